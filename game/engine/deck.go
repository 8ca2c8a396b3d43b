package engine

import "math/rand"

// DeckSize is the number of cards in a full deck: 13 ranks by 4 suits.
const DeckSize = 52

// Deck is a shuffled, consumable sequence of the full card set. A card
// drawn from the deck never returns to it. One deck is created per match
// and destroyed with it.
type Deck struct {
	cards []Card
}

// NewDeck builds the full 52-card set and shuffles it.
func NewDeck() *Deck {
	cards := make([]Card, 0, DeckSize)
	for r := RankTwo; r <= RankAce; r++ {
		for s := Hearts; s <= Spades; s++ {
			cards = append(cards, NewCard(r, s))
		}
	}
	rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return &Deck{cards: cards}
}

// Draw removes and returns the next card. The second return value is false
// when the deck is exhausted.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Empty reports whether all cards have been drawn.
func (d *Deck) Empty() bool {
	return len(d.cards) == 0
}

// Clear discards all remaining cards. Used when a match is torn down.
func (d *Deck) Clear() {
	d.cards = nil
}
