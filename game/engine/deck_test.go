package engine

import "testing"

func TestNewDeckSize(t *testing.T) {
	deck := NewDeck()
	if deck.Remaining() != DeckSize {
		t.Errorf("new deck has %d cards, want %d", deck.Remaining(), DeckSize)
	}
}

func TestDeckDrawsEveryCardOnce(t *testing.T) {
	deck := NewDeck()
	seen := make(map[[2]int32]bool)

	for {
		card, ok := deck.Draw()
		if !ok {
			break
		}
		key := [2]int32{int32(card.Rank), int32(card.Suit)}
		if seen[key] {
			t.Fatalf("duplicate card rank=%d suit=%d", card.Rank, card.Suit)
		}
		seen[key] = true
	}

	if len(seen) != DeckSize {
		t.Errorf("drew %d distinct cards, want %d", len(seen), DeckSize)
	}
	if !deck.Empty() {
		t.Error("deck should be empty after drawing every card")
	}
}

func TestDrawFromEmptyDeck(t *testing.T) {
	deck := NewDeck()
	deck.Clear()

	if _, ok := deck.Draw(); ok {
		t.Error("draw from an empty deck should report no card")
	}
}

func TestEffectAssignment(t *testing.T) {
	cases := []struct {
		rank Rank
		want Effect
	}{
		{RankTwo, AceKiller},
		{RankSeven, Constraint},
		{RankEight, Transparent},
		{RankTen, Destroy},
		{RankThree, NoEffect},
		{RankAce, NoEffect},
	}

	for _, tc := range cases {
		if got := EffectOf(tc.rank); got != tc.want {
			t.Errorf("EffectOf(%d) = %v, want %v", tc.rank, got, tc.want)
		}
	}
}

func TestCardValueRoundTrip(t *testing.T) {
	for r := RankTwo; r <= RankAce; r++ {
		for s := Hearts; s <= Spades; s++ {
			card := NewCard(r, s)
			back := CardFromValue(card.Value())
			if back.Rank != r || back.Suit != s {
				t.Errorf("value %d decoded to rank=%d suit=%d, want rank=%d suit=%d",
					card.Value(), back.Rank, back.Suit, r, s)
			}
		}
	}
}
