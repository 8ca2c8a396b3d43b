package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// playerStatRow is the per-player win/loss tally table.
type playerStatRow struct {
	ID         uint   `gorm:"primaryKey"`
	PlayerUID  string `gorm:"uniqueIndex;size:64"`
	PlayerName string `gorm:"size:128"`
	WinCount   int
	LossCount  int
	UpdatedAt  time.Time
}

func (playerStatRow) TableName() string { return "player_stats" }

// matchRow is the append-only match history table. OtherPlayers holds the
// losing participants as a JSON array.
type matchRow struct {
	ID              uint   `gorm:"primaryKey"`
	SessionUID      string `gorm:"index;size:64"`
	WinnerUID       string `gorm:"size:64"`
	WinnerName      string `gorm:"size:128"`
	OtherPlayers    string `gorm:"type:text"`
	RosterSize      int
	StartedAt       time.Time
	DurationSeconds int
	CreatedAt       time.Time
}

func (matchRow) TableName() string { return "matches" }

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm connects to Postgres with the given DSN and migrates the
// schema.
func OpenGorm(dsn string) (*GormStore, error) {
	if dsn == "" {
		return nil, ErrNoStore
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&playerStatRow{}, &matchRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// RecordResult appends the match row and upserts every participant's
// tally inside one transaction.
func (s *GormStore) RecordResult(result Result) error {
	others, err := json.Marshal(result.Losers)
	if err != nil {
		return fmt.Errorf("encode losers: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		row := matchRow{
			SessionUID:      result.SessionUID,
			WinnerUID:       result.Winner.PlayerUID,
			WinnerName:      result.Winner.Name,
			OtherPlayers:    string(others),
			RosterSize:      result.RosterSize,
			StartedAt:       result.StartedAt,
			DurationSeconds: int(result.Duration / time.Second),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert match: %w", err)
		}

		if err := upsertTally(tx, result.Winner, 1, 0); err != nil {
			return err
		}
		for _, loser := range result.Losers {
			if err := upsertTally(tx, loser, 0, 1); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertTally(tx *gorm.DB, p Participant, wins, losses int) error {
	row := playerStatRow{
		PlayerUID:  p.PlayerUID,
		PlayerName: p.Name,
		WinCount:   wins,
		LossCount:  losses,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_uid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"player_name": p.Name,
			"win_count":   gorm.Expr("player_stats.win_count + ?", wins),
			"loss_count":  gorm.Expr("player_stats.loss_count + ?", losses),
			"updated_at":  time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert tally for %s: %w", p.PlayerUID, err)
	}
	return nil
}

// TopPlayers returns the leaderboard ordered by wins, then fewest losses.
func (s *GormStore) TopPlayers(limit int) ([]PlayerTally, error) {
	var rows []playerStatRow
	err := s.db.
		Order("win_count DESC, loss_count ASC, player_name ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query tallies: %w", err)
	}

	tallies := make([]PlayerTally, 0, len(rows))
	for _, r := range rows {
		tallies = append(tallies, PlayerTally{
			PlayerUID: r.PlayerUID,
			Name:      r.PlayerName,
			WinCount:  r.WinCount,
			LossCount: r.LossCount,
		})
	}
	return tallies, nil
}

// RecentMatches returns the newest match records first.
func (s *GormStore) RecentMatches(limit int) ([]MatchRecord, error) {
	var rows []matchRow
	err := s.db.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}

	records := make([]MatchRecord, 0, len(rows))
	for _, r := range rows {
		var others []Participant
		if r.OtherPlayers != "" {
			if err := json.Unmarshal([]byte(r.OtherPlayers), &others); err != nil {
				return nil, fmt.Errorf("decode losers for %s: %w", r.SessionUID, err)
			}
		}
		records = append(records, MatchRecord{
			SessionUID:      r.SessionUID,
			WinnerUID:       r.WinnerUID,
			WinnerName:      r.WinnerName,
			OtherPlayers:    others,
			RosterSize:      r.RosterSize,
			StartedAt:       r.StartedAt,
			DurationSeconds: r.DurationSeconds,
		})
	}
	return records, nil
}
