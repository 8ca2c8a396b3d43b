// Package engine provides the card rule model for the shedding game.
//
// The engine package implements:
//   - Card, rank, suit and effect value types
//   - The fixed rank-to-effect assignment
//   - Deck generation and shuffling
//   - Per-player card zones (hand, floor, blind)
//   - The pile legality function and four-of-a-kind burn detection
//
// Everything in this package is pure data manipulation: there is no I/O,
// no locking and no timers. Concurrency control lives one level up in
// game/match, which owns an engine state per session and serializes access
// to it.
//
// Core Rules:
//
// A card's effect is determined solely by its rank: twos kill aces, sevens
// constrain the next play to an equal or lower rank, eights are transparent
// (legality is resolved against the card beneath them), tens destroy the
// pile. All other ranks carry no effect and compare by rank order.
//
// Usage:
//
//	deck := engine.NewDeck()
//	pile := engine.NewPile()
//
//	card, _ := deck.Draw()
//	if pile.CanPlay(card, 0) {
//		pile.Add(card)
//	}
package engine
