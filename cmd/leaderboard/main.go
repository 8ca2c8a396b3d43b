// Command leaderboard prints a human-readable summary of the stored match
// results: the win/loss standings followed by the most recent matches.
// It reads the same Postgres database the server writes to.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tkoskela/kasa/storage"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		dsn = os.Args[1]
	}

	store, err := storage.OpenGorm(dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "leaderboard: %v\n", err)
		os.Exit(1)
	}

	if err := printStandings(store); err != nil {
		fmt.Fprintf(os.Stderr, "leaderboard: %v\n", err)
		os.Exit(1)
	}
}

func printStandings(store storage.Store) error {
	tallies, err := store.TopPlayers(20)
	if err != nil {
		return err
	}

	fmt.Println("=== Standings ===")
	if len(tallies) == 0 {
		fmt.Println("no results recorded yet")
	}
	for i, t := range tallies {
		total := t.WinCount + t.LossCount
		ratio := 0.0
		if total > 0 {
			ratio = float64(t.WinCount) / float64(total)
		}
		fmt.Printf("%2d. %-20s %3d wins %3d losses (%.0f%%)\n",
			i+1, t.Name, t.WinCount, t.LossCount, ratio*100)
	}

	records, err := store.RecentMatches(10)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Recent Matches ===")
	for _, r := range records {
		var losers []string
		for _, p := range r.OtherPlayers {
			losers = append(losers, p.Name)
		}
		duration := time.Duration(r.DurationSeconds) * time.Second
		fmt.Printf("%s  %s beat %s  (%d players, %s)\n",
			r.StartedAt.Format("2006-01-02 15:04"),
			r.WinnerName,
			strings.Join(losers, ", "),
			r.RosterSize,
			duration)
	}
	return nil
}
