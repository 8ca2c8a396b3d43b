// Package match implements the per-session turn engine.
//
// A Match owns one game's deck, discard pile, seated players, turn cursor
// and move counter, plus the inactivity timer for the session. Turn
// operations (PlayCard, EndTurn, PickupTurn) consult the card rule model
// in game/engine and mutate match state under a single coarse mutex, so
// no caller can ever observe a half-applied turn.
//
// Lifecycle:
//
// A match is created by the lobby when a wait queue fills, populated with
// AddPlayer, and armed with Initialize, which deals every seat three hand,
// three floor and three blind cards and starts the turn timer. The match
// is torn down by the lobby when a win, timeout or disconnect resolution
// completes; Stop durably disarms the timer so a late expiry cannot touch
// a removed session.
//
// The match renders per-recipient views (View) rather than exposing raw
// state: a player sees their own hand in full but only card counts for
// every other seat.
package match
