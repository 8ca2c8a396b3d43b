package storage

import (
	"testing"
	"time"
)

func result(session, winner string, losers ...string) Result {
	r := Result{
		SessionUID: session,
		Winner:     Participant{PlayerUID: winner, Name: "name-" + winner},
		RosterSize: 1 + len(losers),
		StartedAt:  time.Now(),
		Duration:   90 * time.Second,
	}
	for _, l := range losers {
		r.Losers = append(r.Losers, Participant{PlayerUID: l, Name: "name-" + l})
	}
	return r
}

func TestRecordResultAccounting(t *testing.T) {
	store := NewMemoryStore()

	if err := store.RecordResult(result("s1", "alice", "bob")); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if err := store.RecordResult(result("s2", "alice", "carol", "bob")); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if err := store.RecordResult(result("s3", "bob", "alice")); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	tallies, err := store.TopPlayers(10)
	if err != nil {
		t.Fatalf("TopPlayers: %v", err)
	}
	if len(tallies) != 3 {
		t.Fatalf("got %d tallies, want 3", len(tallies))
	}

	want := map[string][2]int{
		"alice": {2, 1},
		"bob":   {1, 2},
		"carol": {0, 1},
	}
	for _, tally := range tallies {
		w := want[tally.PlayerUID]
		if tally.WinCount != w[0] || tally.LossCount != w[1] {
			t.Errorf("%s tally = %d/%d, want %d/%d",
				tally.PlayerUID, tally.WinCount, tally.LossCount, w[0], w[1])
		}
	}
	if tallies[0].PlayerUID != "alice" {
		t.Errorf("leaderboard head = %s, want alice", tallies[0].PlayerUID)
	}
}

func TestTopPlayersTieAndLimit(t *testing.T) {
	store := NewMemoryStore()

	store.RecordResult(result("s1", "bob", "alice"))
	store.RecordResult(result("s2", "alice", "carol"))
	store.RecordResult(result("s3", "carol", "dave"))

	// alice, bob and carol all hold one win; alice and bob share one loss,
	// carol holds one too, so the tie resolves by name.
	tallies, err := store.TopPlayers(2)
	if err != nil {
		t.Fatalf("TopPlayers: %v", err)
	}
	if len(tallies) != 2 {
		t.Fatalf("limit not applied, got %d tallies", len(tallies))
	}
	if tallies[0].PlayerUID != "alice" || tallies[1].PlayerUID != "bob" {
		t.Errorf("tie order = %s, %s, want alice, bob",
			tallies[0].PlayerUID, tallies[1].PlayerUID)
	}
}

func TestRecentMatchesNewestFirst(t *testing.T) {
	store := NewMemoryStore()

	store.RecordResult(result("s1", "alice", "bob"))
	store.RecordResult(result("s2", "bob", "alice"))
	store.RecordResult(result("s3", "alice", "bob"))

	records, err := store.RecentMatches(2)
	if err != nil {
		t.Fatalf("RecentMatches: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].SessionUID != "s3" || records[1].SessionUID != "s2" {
		t.Errorf("order = %s, %s, want s3, s2",
			records[0].SessionUID, records[1].SessionUID)
	}
	if records[0].WinnerName != "name-alice" {
		t.Errorf("winner name = %s, want name-alice", records[0].WinnerName)
	}
	if len(records[1].OtherPlayers) != 1 || records[1].OtherPlayers[0].PlayerUID != "alice" {
		t.Errorf("losers of s2 = %+v, want alice", records[1].OtherPlayers)
	}
}

func TestEmptyStoreQueries(t *testing.T) {
	store := NewMemoryStore()

	tallies, err := store.TopPlayers(10)
	if err != nil || len(tallies) != 0 {
		t.Errorf("TopPlayers on empty store = %v, %v", tallies, err)
	}
	records, err := store.RecentMatches(10)
	if err != nil || len(records) != 0 {
		t.Errorf("RecentMatches on empty store = %v, %v", records, err)
	}
}
