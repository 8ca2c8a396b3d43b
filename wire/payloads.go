package wire

import "errors"

// RosterSize is the party size a player queues for. The value doubles as
// the queue capacity.
type RosterSize int

const (
	RosterTwo   RosterSize = 2
	RosterThree RosterSize = 3
	RosterFour  RosterSize = 4
	RosterFive  RosterSize = 5
)

// Valid reports whether the roster size is one of the supported values.
func (r RosterSize) Valid() bool {
	return r >= RosterTwo && r <= RosterFive
}

// QueueAction tells a queueing player what happened to their request.
type QueueAction int32

const (
	QueueStart QueueAction = iota
	QueueWait
)

// TurnAction identifies the turn operation a player requested, and echoes
// back in the response feedback. ActionWin is only ever sent by the server.
type TurnAction int32

const (
	ActionInit TurnAction = iota
	ActionPlayCard
	ActionEndTurn
	ActionPickUp
	ActionWin
)

// MessageKind separates informational feedback from rule-violation errors.
type MessageKind int32

const (
	MessageInfo MessageKind = iota
	MessageError
)

// PlayerRef identifies a player in requests. PlayerUID is the private
// identity, PublicUID the one safe to show other players.
type PlayerRef struct {
	PlayerUID string `json:"player_uid"`
	PublicUID string `json:"public_uid"`
	Name      string `json:"name"`
}

// LobbyQueueRequest asks to join or leave a wait queue.
type LobbyQueueRequest struct {
	Player     *PlayerRef `json:"player"`
	Leave      bool       `json:"leave"`
	RosterSize RosterSize `json:"roster_size"`
}

// Validate checks the request for required fields.
func (r *LobbyQueueRequest) Validate() error {
	if r.Player == nil || r.Player.PlayerUID == "" {
		return errors.New("wire: queue request without player")
	}
	if !r.Leave && !r.RosterSize.Valid() {
		return errors.New("wire: queue request with invalid roster size")
	}
	return nil
}

// LobbyQueueResponse answers a queue request: either wait for more players
// or start playing in the given session.
type LobbyQueueResponse struct {
	SessionUID string      `json:"session_uid"`
	Action     QueueAction `json:"action"`
}

// GameTurnRequest carries one turn operation for one session.
type GameTurnRequest struct {
	SessionUID string     `json:"session_uid"`
	Player     *PlayerRef `json:"player"`
	Action     TurnAction `json:"action"`
	CardID     string     `json:"card_id,omitempty"`
}

// Validate checks the request for required fields.
func (r *GameTurnRequest) Validate() error {
	if r.SessionUID == "" {
		return errors.New("wire: turn request without session")
	}
	if r.Player == nil || r.Player.PlayerUID == "" {
		return errors.New("wire: turn request without player")
	}
	if r.Action == ActionPlayCard && r.CardID == "" {
		return errors.New("wire: play request without card id")
	}
	return nil
}

// GameTurnResponse delivers the per-recipient view after a turn event.
type GameTurnResponse struct {
	SessionUID string    `json:"session_uid"`
	Turn       *TurnView `json:"turn"`
}

// HandCard is a fully described card, sent only to its owner.
type HandCard struct {
	UID    string `json:"uid"`
	Rank   int32  `json:"rank"`
	Suit   int32  `json:"suit"`
	Effect int32  `json:"effect"`
}

// PlayerView is the recipient's own visible state: full hand, public floor
// values, and a count of face-down blind cards.
type PlayerView struct {
	Hand       []HandCard `json:"hand"`
	Floor      []int32    `json:"floor"`
	BlindCount int        `json:"blind_count"`
}

// OpponentView exposes only what an opponent may know about a seat:
// counts, plus the public floor values.
type OpponentView struct {
	Name       string  `json:"name"`
	HandCount  int     `json:"hand_count"`
	Floor      []int32 `json:"floor"`
	BlindCount int     `json:"blind_count"`
}

// TurnMessage is user-facing feedback text.
type TurnMessage struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

// TurnFeedback reports what the last turn operation did.
type TurnFeedback struct {
	Action        TurnAction   `json:"action"`
	Message       *TurnMessage `json:"message,omitempty"`
	HasWon        bool         `json:"has_won"`
	HasDisconnect bool         `json:"has_disconnect"`
}

// TurnView is the complete per-recipient snapshot of a match. Opponents'
// hand and blind cards appear only as counts; the table and floors appear
// as compact public values.
type TurnView struct {
	Self              PlayerView     `json:"self"`
	Opponents         []OpponentView `json:"opponents"`
	Table             []int32        `json:"table"`
	DeckCount         int            `json:"deck_count"`
	CurrentPlayerName string         `json:"current_player_name"`
	IsMyTurn          bool           `json:"is_my_turn"`
	Feedback          TurnFeedback   `json:"feedback"`
	IsWinner          bool           `json:"is_winner"`
}

// PlayerStats is one leaderboard row.
type PlayerStats struct {
	PublicUID string `json:"public_uid"`
	Name      string `json:"name"`
	Wins      int    `json:"wins"`
	Losses    int    `json:"losses"`
}

// MatchSummary is one match-history row.
type MatchSummary struct {
	SessionUID      string   `json:"session_uid"`
	WinnerUID       string   `json:"winner_uid"`
	WinnerName      string   `json:"winner_name"`
	DurationSeconds int64    `json:"duration_seconds"`
	RosterSize      int      `json:"roster_size"`
	OtherPlayers    []string `json:"other_players"`
}

// LobbyStatistics is broadcast to every connection on join, leave and
// session end.
type LobbyStatistics struct {
	PlayerCount  int            `json:"player_count"`
	SessionCount int            `json:"session_count"`
	Leaderboard  []PlayerStats  `json:"leaderboard"`
	MatchHistory []MatchSummary `json:"match_history"`
}
