package engine

import "github.com/google/uuid"

// Rank identifies one of the 13 card ranks, ordered from low to high.
// Twos are the lowest rank and aces the highest.
type Rank int32

const (
	RankTwo Rank = iota
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
	RankAce
)

// Suit identifies one of the four card suits. Suits carry no ordering.
type Suit int32

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// Effect is the special behavior a card carries when played. Most ranks
// carry NoEffect; the mapping from rank to effect is fixed by EffectOf.
type Effect int32

const (
	NoEffect Effect = iota
	Transparent
	Constraint
	AceKiller
	Destroy
)

// String returns a stable name for the effect, used in feedback messages.
func (e Effect) String() string {
	switch e {
	case Transparent:
		return "TRANSPARENT"
	case Constraint:
		return "CONSTRAINT"
	case AceKiller:
		return "ACE_KILLER"
	case Destroy:
		return "DESTROY"
	default:
		return "NO_EFFECT"
	}
}

// EffectOf returns the effect assigned to a rank. The assignment is total
// and fixed: twos are ace killers, sevens constrain, eights are transparent,
// tens destroy, everything else has no effect.
func EffectOf(rank Rank) Effect {
	switch rank {
	case RankTwo:
		return AceKiller
	case RankSeven:
		return Constraint
	case RankEight:
		return Transparent
	case RankTen:
		return Destroy
	default:
		return NoEffect
	}
}

// Card is an immutable playing card. A card belongs to exactly one zone at
// a time (deck, a player's hand/floor/blind, or the pile); the zones move
// cards between themselves, the card itself never changes.
type Card struct {
	UID    string
	Rank   Rank
	Suit   Suit
	Effect Effect
}

// NewCard creates a card with a fresh uid and the effect derived from rank.
func NewCard(rank Rank, suit Suit) Card {
	return Card{
		UID:    uuid.NewString(),
		Rank:   rank,
		Suit:   suit,
		Effect: EffectOf(rank),
	}
}

// Value returns the compact public representation of the card in 1..52.
// Clients receive this value for cards whose identity must not leak
// (pile and floor cards).
func (c Card) Value() int32 {
	return int32(c.Rank) + 1 + int32(c.Suit)*13
}

// CardFromValue reconstructs the rank and suit encoded by Value. The
// returned card has a fresh uid and carries no effect; it is only suitable
// for display purposes.
func CardFromValue(value int32) Card {
	rank := Rank((value - 1) % 13)
	suit := Suit((value - 1) / 13)
	return Card{
		UID:  uuid.NewString(),
		Rank: rank,
		Suit: suit,
	}
}
