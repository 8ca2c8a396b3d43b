package match

import (
	"github.com/tkoskela/kasa/game/engine"
	"github.com/tkoskela/kasa/wire"
)

// View renders the per-recipient snapshot for playerUID. The recipient's
// own hand is fully enumerated; every other seat appears only as counts
// plus its public floor values. This asymmetry is the privacy boundary:
// a view must never carry another seat's card identities.
//
// The feedback is taken as given, so callers build it per recipient:
// HasWon marks the recipient, not the match, as the winner.
//
// Returns nil when the player is not seated in this match.
func (m *Match) View(playerUID string, feedback wire.TurnFeedback) *wire.TurnView {
	m.mu.Lock()
	defer m.mu.Unlock()

	recipient, ok := m.findLocked(playerUID)
	if !ok {
		return nil
	}

	view := &wire.TurnView{
		Self: wire.PlayerView{
			Hand:       handCards(recipient),
			Floor:      recipient.FloorValues(),
			BlindCount: recipient.BlindCount(),
		},
		Table:     m.pile.Values(),
		DeckCount: m.deck.Remaining(),
		IsMyTurn:  false,
		Feedback:  feedback,
		IsWinner:  feedback.HasWon,
	}

	if current, ok := m.currentLocked(); ok {
		view.CurrentPlayerName = current.Name
		view.IsMyTurn = current.UID == playerUID
	}

	for _, p := range m.players {
		if p.UID == playerUID {
			continue
		}
		view.Opponents = append(view.Opponents, wire.OpponentView{
			Name:       p.Name,
			HandCount:  p.HandCount(),
			Floor:      p.FloorValues(),
			BlindCount: p.BlindCount(),
		})
	}

	return view
}

func handCards(p *engine.Player) []wire.HandCard {
	cards := p.HandCards()
	out := make([]wire.HandCard, 0, len(cards))
	for _, c := range cards {
		out = append(out, wire.HandCard{
			UID:    c.UID,
			Rank:   int32(c.Rank),
			Suit:   int32(c.Suit),
			Effect: int32(c.Effect),
		})
	}
	return out
}
