package engine

// burnRun is the number of already-played top cards that, together with a
// same-rank candidate, clear the pile. The window is the pile's last three
// cards plus the candidate, i.e. four of a kind in a row.
const burnRun = 3

// Pile is the ordered discard pile of one match. Cards are appended during
// a turn and the whole pile is cleared atomically on a burn, a destroy
// effect, or a pickup. Legality depends only on the top card, or for a
// transparent top on the nearest non-transparent card beneath it.
type Pile struct {
	cards []Card
}

// NewPile creates an empty pile.
func NewPile() *Pile {
	return &Pile{}
}

// Add appends a played card to the pile.
func (p *Pile) Add(card Card) {
	p.cards = append(p.cards, card)
}

// Top returns the most recently played card, if any.
func (p *Pile) Top() (Card, bool) {
	if len(p.cards) == 0 {
		return Card{}, false
	}
	return p.cards[len(p.cards)-1], true
}

// Clear empties the pile and returns the removed cards in play order.
func (p *Pile) Clear() []Card {
	cards := p.cards
	p.cards = nil
	return cards
}

// Cards returns a copy of the pile in play order.
func (p *Pile) Cards() []Card {
	out := make([]Card, len(p.cards))
	copy(out, p.cards)
	return out
}

// Values returns the compact public values of the pile in play order.
func (p *Pile) Values() []int32 {
	out := make([]int32, 0, len(p.cards))
	for _, c := range p.cards {
		out = append(out, c.Value())
	}
	return out
}

// Len returns the number of cards on the pile.
func (p *Pile) Len() int {
	return len(p.cards)
}

// Empty reports whether the pile holds no cards.
func (p *Pile) Empty() bool {
	return len(p.cards) == 0
}

// CanPlay decides whether card may legally be played on the pile given the
// number of cards the acting seat has already played this turn.
//
// Matching the top card's rank is always legal, regardless of move count.
// Otherwise a seat gets exactly one new rank per turn: with turnMoves > 0
// only rank-stacking remains. An empty pile and destroy cards are
// unconditionally legal openings. Everything else resolves through the
// effect pair of the candidate and the top card.
func (p *Pile) CanPlay(card Card, turnMoves int) bool {
	top, ok := p.Top()

	if ok && top.Rank == card.Rank {
		return true
	}

	if turnMoves > 0 {
		return false
	}

	if !ok || card.Effect == Destroy {
		return true
	}

	switch {
	case card.Effect == NoEffect && top.Effect == NoEffect:
		return card.Rank >= top.Rank

	case card.Effect != NoEffect && top.Effect == NoEffect:
		switch card.Effect {
		case AceKiller:
			return top.Rank == RankAce
		case Transparent, Constraint:
			return true
		default:
			return false
		}

	case card.Effect == NoEffect && top.Effect != NoEffect:
		switch top.Effect {
		case AceKiller:
			return true
		case Constraint:
			return card.Rank <= top.Rank
		case Transparent:
			return p.playableOnBeneath(card)
		default:
			return false
		}

	default:
		switch top.Effect {
		case Transparent:
			return p.playableOnBeneath(card)
		case AceKiller, Constraint:
			return true
		default:
			return false
		}
	}
}

// IsBurn reports whether playing candidate completes a four-of-a-kind run:
// the pile's last three cards all share the candidate's rank. The caller
// clears the pile and resets its move counter when this returns true.
func (p *Pile) IsBurn(candidate Card) bool {
	if len(p.cards) < burnRun {
		return false
	}
	for _, c := range p.cards[len(p.cards)-burnRun:] {
		if c.Rank != candidate.Rank {
			return false
		}
	}
	return true
}

// playableOnBeneath resolves legality against the nearest non-transparent
// card under a run of transparent tops. With no such card the play is
// legal.
func (p *Pile) playableOnBeneath(card Card) bool {
	beneath, ok := p.beneathTransparent()
	if !ok {
		return true
	}
	switch beneath.Effect {
	case AceKiller:
		return true
	case Constraint:
		return card.Rank <= beneath.Rank
	case NoEffect:
		return card.Rank >= beneath.Rank
	default:
		return true
	}
}

// beneathTransparent returns the topmost card that is not transparent.
func (p *Pile) beneathTransparent() (Card, bool) {
	for i := len(p.cards) - 1; i >= 0; i-- {
		if p.cards[i].Effect != Transparent {
			return p.cards[i], true
		}
	}
	return Card{}, false
}
