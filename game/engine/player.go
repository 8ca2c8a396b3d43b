package engine

const (
	// HandRefill is the number of hand cards a seat is refilled to at the
	// end of its turn while the deck lasts.
	HandRefill = 3

	maxFloorCards = 3
	maxBlindCards = 3
)

// Player holds one seat's card zones for the lifetime of a match. Zones are
// drawn down in fixed order: hand first, then the face-up floor, then the
// face-down blind stack. A player has cards as long as any zone is
// non-empty.
type Player struct {
	UID          string
	PublicUID    string
	ConnectionID string
	Name         string

	hand  []Card
	floor []Card
	blind []Card
}

// NewPlayer creates a player with empty zones.
func NewPlayer(uid, publicUID, connectionID, name string) *Player {
	return &Player{
		UID:          uid,
		PublicUID:    publicUID,
		ConnectionID: connectionID,
		Name:         name,
	}
}

// AddHandCard appends a card to the hand.
func (p *Player) AddHandCard(card Card) {
	p.hand = append(p.hand, card)
}

// AddFloorCard appends a card to the floor zone, capped at three cards.
func (p *Player) AddFloorCard(card Card) {
	if len(p.floor) < maxFloorCards {
		p.floor = append(p.floor, card)
	}
}

// AddBlindCard appends a card to the blind zone, capped at three cards.
func (p *Player) AddBlindCard(card Card) {
	if len(p.blind) < maxBlindCards {
		p.blind = append(p.blind, card)
	}
}

// HandCard returns the hand card with the given uid, if present.
func (p *Player) HandCard(cardUID string) (Card, bool) {
	for _, c := range p.hand {
		if c.UID == cardUID {
			return c, true
		}
	}
	return Card{}, false
}

// RemoveHandCard removes and returns the hand card with the given uid.
func (p *Player) RemoveHandCard(cardUID string) (Card, bool) {
	for i, c := range p.hand {
		if c.UID == cardUID {
			p.hand = append(p.hand[:i], p.hand[i+1:]...)
			return c, true
		}
	}
	return Card{}, false
}

// ClaimFloor moves every floor card into the hand.
func (p *Player) ClaimFloor() {
	p.hand = append(p.hand, p.floor...)
	p.floor = nil
}

// ClaimBlind moves every blind card into the hand.
func (p *Player) ClaimBlind() {
	p.hand = append(p.hand, p.blind...)
	p.blind = nil
}

// HandCards returns a copy of the hand.
func (p *Player) HandCards() []Card {
	out := make([]Card, len(p.hand))
	copy(out, p.hand)
	return out
}

// FloorValues returns the compact public values of the floor cards. Floor
// cards are face up and public by rule, but their uids stay private so
// opponents cannot address them.
func (p *Player) FloorValues() []int32 {
	out := make([]int32, 0, len(p.floor))
	for _, c := range p.floor {
		out = append(out, c.Value())
	}
	return out
}

// HandCount returns the number of hand cards.
func (p *Player) HandCount() int { return len(p.hand) }

// FloorCount returns the number of floor cards.
func (p *Player) FloorCount() int { return len(p.floor) }

// BlindCount returns the number of blind cards.
func (p *Player) BlindCount() int { return len(p.blind) }

// HandEmpty reports whether the hand is empty.
func (p *Player) HandEmpty() bool { return len(p.hand) == 0 }

// FloorEmpty reports whether the floor zone is empty.
func (p *Player) FloorEmpty() bool { return len(p.floor) == 0 }

// BlindEmpty reports whether the blind zone is empty.
func (p *Player) BlindEmpty() bool { return len(p.blind) == 0 }

// HasCards reports whether any zone still holds a card.
func (p *Player) HasCards() bool {
	return len(p.hand) > 0 || len(p.floor) > 0 || len(p.blind) > 0
}

// ClearCards empties every zone and returns the removed cards.
func (p *Player) ClearCards() []Card {
	all := make([]Card, 0, len(p.hand)+len(p.floor)+len(p.blind))
	all = append(all, p.hand...)
	all = append(all, p.floor...)
	all = append(all, p.blind...)
	p.hand, p.floor, p.blind = nil, nil, nil
	return all
}
