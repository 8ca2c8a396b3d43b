package storage

import (
	"errors"
	"time"
)

// ErrNoStore is returned by constructors when no usable backend is
// configured.
var ErrNoStore = errors.New("storage: no backend configured")

// Participant identifies one seated player in a finished match.
type Participant struct {
	PlayerUID string `json:"player_uid"`
	Name      string `json:"name"`
}

// Result is the immutable record of a finished match.
type Result struct {
	SessionUID string
	Winner     Participant
	Losers     []Participant
	RosterSize int
	StartedAt  time.Time
	Duration   time.Duration
}

// PlayerTally is one leaderboard row.
type PlayerTally struct {
	PlayerUID string
	Name      string
	WinCount  int
	LossCount int
}

// MatchRecord is one stored match, newest first in listings.
type MatchRecord struct {
	SessionUID      string
	WinnerUID       string
	WinnerName      string
	OtherPlayers    []Participant
	RosterSize      int
	StartedAt       time.Time
	DurationSeconds int
}

// Store persists match results and serves lobby aggregates.
type Store interface {
	// RecordResult appends the result and updates every participant's
	// tally. Recording the same session uid twice is the caller's bug;
	// implementations may reject or duplicate it.
	RecordResult(result Result) error

	// TopPlayers returns up to limit tallies ordered by wins descending.
	TopPlayers(limit int) ([]PlayerTally, error)

	// RecentMatches returns up to limit match records, newest first.
	RecentMatches(limit int) ([]MatchRecord, error)
}
