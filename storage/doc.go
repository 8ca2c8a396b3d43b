// Package storage persists match outcomes and serves the aggregates the
// lobby broadcasts to connected players.
//
// The package is built around a small Store contract:
//
//   - RecordResult appends a finished match and adjusts the win/loss
//     tallies of everyone who was seated in it.
//   - TopPlayers returns the leaderboard ordered by win count.
//   - RecentMatches returns the newest match records first.
//
// Two implementations ship: GormStore backed by Postgres for production,
// and MemoryStore for tests and the -memory run mode. Both apply the same
// accounting rules, so callers never branch on the backing store.
package storage
