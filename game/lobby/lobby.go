package lobby

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tkoskela/kasa/game/match"
	"github.com/tkoskela/kasa/storage"
	"github.com/tkoskela/kasa/wire"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInvalidRosterSize = errors.New("invalid roster size")
	ErrNotWinner         = errors.New("claimed winner does not hold the turn")
)

// Resolution says how a session ended.
type Resolution int32

const (
	// ResolutionDefault is a regular win claim. It is only honored when
	// the claimed winner holds the turn cursor.
	ResolutionDefault Resolution = iota
	// ResolutionDisconnect forfeits the match to the surviving player.
	ResolutionDisconnect
	// ResolutionTimeout awards the match after the turn timer fires.
	ResolutionTimeout
)

func (r Resolution) String() string {
	switch r {
	case ResolutionDefault:
		return "default"
	case ResolutionDisconnect:
		return "disconnect"
	case ResolutionTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// queue is one matchmaking queue for a fixed roster size.
type queue struct {
	uid     string
	entries []wire.PlayerRef
}

func newQueue() *queue {
	return &queue{uid: uuid.NewString()}
}

func (q *queue) contains(playerUID string) bool {
	for _, e := range q.entries {
		if e.PlayerUID == playerUID {
			return true
		}
	}
	return false
}

func (q *queue) remove(playerUID string) bool {
	for i, e := range q.entries {
		if e.PlayerUID == playerUID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Roster is the product of a filled queue: the session uid the match
// will carry and the players to seat.
type Roster struct {
	SessionUID string
	Players    []wire.PlayerRef
}

// Lobby owns the connected-user index, the matchmaking queues and the
// live session table.
type Lobby struct {
	log   *zap.Logger
	store storage.Store

	qmu    sync.Mutex
	queues map[wire.RosterSize]*queue

	mu            sync.RWMutex
	sessions      map[string]*match.Match
	users         map[string]*socketUser
	connsByPlayer map[string]string
}

// socketUser is what a connection id resolves to: the player bound to the
// socket and the session that player is seated in, if any.
type socketUser struct {
	ref        wire.PlayerRef
	sessionUID string
}

// New returns an empty lobby recording results to store.
func New(log *zap.Logger, store storage.Store) *Lobby {
	return &Lobby{
		log:           log,
		store:         store,
		queues:        make(map[wire.RosterSize]*queue),
		sessions:      make(map[string]*match.Match),
		users:         make(map[string]*socketUser),
		connsByPlayer: make(map[string]string),
	}
}

// AddConnection registers a freshly accepted socket. The player identity
// arrives later, with the first lobby request on that socket.
func (l *Lobby) AddConnection(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.users[connID]; !ok {
		l.users[connID] = &socketUser{}
	}
}

// RemoveConnection drops the socket from the index and returns the player
// that was bound to it, if any.
func (l *Lobby) RemoveConnection(connID string) (wire.PlayerRef, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[connID]
	delete(l.users, connID)
	if ok && u.ref.PlayerUID != "" {
		delete(l.connsByPlayer, u.ref.PlayerUID)
		return u.ref, true
	}
	return wire.PlayerRef{}, false
}

// BindPlayer attaches a player identity to a socket. Later requests on
// any socket resolve back to this identity.
func (l *Lobby) BindPlayer(connID string, ref wire.PlayerRef) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[connID]
	if !ok {
		u = &socketUser{}
		l.users[connID] = u
	}
	u.ref = ref
	l.connsByPlayer[ref.PlayerUID] = connID
}

// BindSession attaches a session uid to a socket, completing the
// connection index entry. AddSession binds every seated socket; the
// binding is cleared when the session leaves the table.
func (l *Lobby) BindSession(connID, sessionUID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bindSessionLocked(connID, sessionUID)
}

func (l *Lobby) bindSessionLocked(connID, sessionUID string) {
	u, ok := l.users[connID]
	if !ok {
		u = &socketUser{}
		l.users[connID] = u
	}
	u.sessionUID = sessionUID
}

func (l *Lobby) unbindSessionLocked(sessionUID string) {
	for _, u := range l.users {
		if u.sessionUID == sessionUID {
			u.sessionUID = ""
		}
	}
}

// ConnectionByPlayer resolves a player uid to its live socket.
func (l *Lobby) ConnectionByPlayer(playerUID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	connID, ok := l.connsByPlayer[playerUID]
	return connID, ok
}

// UserByConnection returns the player bound to a socket.
func (l *Lobby) UserByConnection(connID string) (wire.PlayerRef, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.users[connID]
	if !ok || u.ref.PlayerUID == "" {
		return wire.PlayerRef{}, false
	}
	return u.ref, true
}

// Enqueue places the player in the queue for the requested roster size.
// When the join fills the queue, the queue is drained and returned as a
// ready roster; the membership check and the drain share one critical
// section. Rejoining the same queue is a no-op wait.
func (l *Lobby) Enqueue(player wire.PlayerRef, size wire.RosterSize) (*Roster, string, error) {
	if !size.Valid() {
		return nil, "", ErrInvalidRosterSize
	}

	l.qmu.Lock()
	defer l.qmu.Unlock()

	q, ok := l.queues[size]
	if !ok {
		q = newQueue()
		l.queues[size] = q
	}

	if !q.contains(player.PlayerUID) {
		q.entries = append(q.entries, player)
	}

	if len(q.entries) < int(size) {
		return nil, q.uid, nil
	}

	roster := &Roster{
		SessionUID: q.uid,
		Players:    q.entries,
	}
	l.queues[size] = newQueue()

	l.log.Info("queue filled",
		zap.String("session_uid", roster.SessionUID),
		zap.Int("roster_size", int(size)))
	return roster, roster.SessionUID, nil
}

// Dequeue removes the player from every queue.
func (l *Lobby) Dequeue(playerUID string) {
	l.qmu.Lock()
	defer l.qmu.Unlock()
	for _, q := range l.queues {
		q.remove(playerUID)
	}
}

// AddSession puts a started match on the live table and binds every
// seated socket to it.
func (l *Lobby) AddSession(m *match.Match) {
	seats := m.Seats()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sessions[m.UID()] = m
	for _, seat := range seats {
		if seat.ConnectionID != "" {
			l.bindSessionLocked(seat.ConnectionID, m.UID())
		}
	}
}

// Session looks up a live match by uid.
func (l *Lobby) Session(sessionUID string) (*match.Match, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.sessions[sessionUID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m, nil
}

// SessionFor finds the live match the player is seated in through the
// connection index.
func (l *Lobby) SessionFor(playerUID string) (*match.Match, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	connID, ok := l.connsByPlayer[playerUID]
	if !ok {
		return nil, false
	}
	u, ok := l.users[connID]
	if !ok || u.sessionUID == "" {
		return nil, false
	}
	m, ok := l.sessions[u.sessionUID]
	return m, ok
}

// Sessions returns a snapshot of the live match table.
func (l *Lobby) Sessions() []*match.Match {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*match.Match, 0, len(l.sessions))
	for _, m := range l.sessions {
		out = append(out, m)
	}
	return out
}

// EndSession resolves a live match. With ResolutionDefault the claimed
// winner must hold the turn cursor; forfeit resolutions skip that check.
// The result is persisted before the session leaves the table. A second
// call for the same session uid is a no-op.
func (l *Lobby) EndSession(sessionUID, winnerUID string, resolution Resolution) error {
	l.mu.Lock()
	m, ok := l.sessions[sessionUID]
	if !ok {
		l.mu.Unlock()
		return nil
	}
	if resolution == ResolutionDefault && !m.IsTurn(winnerUID) {
		l.mu.Unlock()
		return ErrNotWinner
	}
	delete(l.sessions, sessionUID)
	l.unbindSessionLocked(sessionUID)
	l.mu.Unlock()

	m.Stop()

	result := storage.Result{
		SessionUID: sessionUID,
		RosterSize: len(m.Seats()),
		StartedAt:  m.CreatedAt(),
		Duration:   time.Since(m.CreatedAt()),
	}
	// Results are stored under the public uid so leaderboard rows never
	// carry a private player uid.
	for _, seat := range m.Seats() {
		p := storage.Participant{PlayerUID: seat.PublicUID, Name: seat.Name}
		if seat.UID == winnerUID {
			result.Winner = p
		} else {
			result.Losers = append(result.Losers, p)
		}
	}

	if err := l.store.RecordResult(result); err != nil {
		l.log.Error("record match result",
			zap.String("session_uid", sessionUID),
			zap.Error(err))
	}

	l.log.Info("session ended",
		zap.String("session_uid", sessionUID),
		zap.String("winner_uid", winnerUID),
		zap.String("resolution", resolution.String()))

	m.Clean()
	return nil
}

// CleanupStale removes live sessions older than maxAge and returns how
// many were dropped. Stale matches are abandoned rather than resolved;
// nothing is recorded for them.
func (l *Lobby) CleanupStale(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	l.mu.Lock()
	var stale []*match.Match
	for uid, m := range l.sessions {
		if m.CreatedAt().Before(cutoff) {
			stale = append(stale, m)
			delete(l.sessions, uid)
			l.unbindSessionLocked(uid)
		}
	}
	l.mu.Unlock()

	for _, m := range stale {
		m.Stop()
		m.Clean()
		l.log.Info("cleaned stale session", zap.String("session_uid", m.UID()))
	}
	return len(stale)
}

// Statistics assembles the lobby snapshot broadcast to every socket.
func (l *Lobby) Statistics() wire.LobbyStatistics {
	l.mu.RLock()
	playerCount := 0
	for _, u := range l.users {
		if u.ref.PlayerUID != "" {
			playerCount++
		}
	}
	sessionCount := len(l.sessions)
	l.mu.RUnlock()

	stats := wire.LobbyStatistics{
		PlayerCount:  playerCount,
		SessionCount: sessionCount,
	}

	tallies, err := l.store.TopPlayers(10)
	if err != nil {
		l.log.Error("query leaderboard", zap.Error(err))
	}
	for _, t := range tallies {
		stats.Leaderboard = append(stats.Leaderboard, wire.PlayerStats{
			PublicUID: t.PlayerUID,
			Name:      t.Name,
			Wins:      t.WinCount,
			Losses:    t.LossCount,
		})
	}

	records, err := l.store.RecentMatches(10)
	if err != nil {
		l.log.Error("query match history", zap.Error(err))
	}
	for _, r := range records {
		summary := wire.MatchSummary{
			SessionUID:      r.SessionUID,
			WinnerUID:       r.WinnerUID,
			WinnerName:      r.WinnerName,
			RosterSize:      r.RosterSize,
			DurationSeconds: int64(r.DurationSeconds),
		}
		for _, p := range r.OtherPlayers {
			summary.OtherPlayers = append(summary.OtherPlayers, p.Name)
		}
		stats.MatchHistory = append(stats.MatchHistory, summary)
	}

	return stats
}
