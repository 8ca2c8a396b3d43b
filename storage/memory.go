package storage

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps tallies and match history in memory. It backs tests
// and the -memory run mode; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	tallies map[string]*PlayerTally
	matches []MatchRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tallies: make(map[string]*PlayerTally),
	}
}

// RecordResult appends the match and updates every participant's tally.
func (s *MemoryStore) RecordResult(result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches = append(s.matches, MatchRecord{
		SessionUID:      result.SessionUID,
		WinnerUID:       result.Winner.PlayerUID,
		WinnerName:      result.Winner.Name,
		OtherPlayers:    append([]Participant(nil), result.Losers...),
		RosterSize:      result.RosterSize,
		StartedAt:       result.StartedAt,
		DurationSeconds: int(result.Duration / time.Second),
	})

	s.bump(result.Winner, 1, 0)
	for _, loser := range result.Losers {
		s.bump(loser, 0, 1)
	}
	return nil
}

func (s *MemoryStore) bump(p Participant, wins, losses int) {
	tally, ok := s.tallies[p.PlayerUID]
	if !ok {
		tally = &PlayerTally{PlayerUID: p.PlayerUID}
		s.tallies[p.PlayerUID] = tally
	}
	tally.Name = p.Name
	tally.WinCount += wins
	tally.LossCount += losses
}

// TopPlayers returns the leaderboard ordered by wins, then fewest losses,
// then name.
func (s *MemoryStore) TopPlayers(limit int) ([]PlayerTally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tallies := make([]PlayerTally, 0, len(s.tallies))
	for _, t := range s.tallies {
		tallies = append(tallies, *t)
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].WinCount != tallies[j].WinCount {
			return tallies[i].WinCount > tallies[j].WinCount
		}
		if tallies[i].LossCount != tallies[j].LossCount {
			return tallies[i].LossCount < tallies[j].LossCount
		}
		return tallies[i].Name < tallies[j].Name
	})
	if limit > 0 && len(tallies) > limit {
		tallies = tallies[:limit]
	}
	return tallies, nil
}

// RecentMatches returns the newest match records first.
func (s *MemoryStore) RecentMatches(limit int) ([]MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]MatchRecord, 0, len(s.matches))
	for i := len(s.matches) - 1; i >= 0; i-- {
		records = append(records, s.matches[i])
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, nil
}
