package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/tkoskela/kasa/game/engine"
	"github.com/tkoskela/kasa/game/lobby"
	"github.com/tkoskela/kasa/game/match"
	"github.com/tkoskela/kasa/wire"
)

// LobbyService handles connection lifecycle and matchmaking.
type LobbyService struct {
	log         *zap.Logger
	lobby       *lobby.Lobby
	transport   Transport
	turnTimeout time.Duration
}

// NewLobbyService wires the lobby handlers. A non-positive turnTimeout
// falls back to the match default.
func NewLobbyService(log *zap.Logger, reg *lobby.Lobby, transport Transport, turnTimeout time.Duration) *LobbyService {
	return &LobbyService{
		log:         log,
		lobby:       reg,
		transport:   transport,
		turnTimeout: turnTimeout,
	}
}

// Connect registers a freshly accepted socket and pushes the current
// lobby statistics to it.
func (s *LobbyService) Connect(connID string) {
	s.lobby.AddConnection(connID)
	if err := s.transport.EmitTo(connID, wire.EventLobbyStatistics, s.lobby.Statistics()); err != nil {
		s.log.Debug("push statistics on connect",
			zap.String("conn_id", connID),
			zap.Error(err))
	}
}

// Disconnect unbinds the socket. A player seated in a live match forfeits
// it; the remaining seat in turn order is declared the winner and the
// survivors see a disconnect result.
func (s *LobbyService) Disconnect(connID string) {
	ref, ok := s.lobby.RemoveConnection(connID)
	if !ok {
		return
	}
	s.lobby.Dequeue(ref.PlayerUID)

	m, live := s.lobby.SessionFor(ref.PlayerUID)
	if live {
		s.forfeit(m, ref.PlayerUID)
	}

	s.Statistics()
}

// forfeit resolves a match abandoned by leaverUID in favor of the next
// surviving seat.
func (s *LobbyService) forfeit(m *match.Match, leaverUID string) {
	seats := m.Seats()
	winnerIdx := -1
	for i, seat := range seats {
		if seat.UID == leaverUID {
			winnerIdx = (i + 1) % len(seats)
			break
		}
	}
	if winnerIdx < 0 {
		return
	}
	winner := seats[winnerIdx]

	// Final views go out before EndSession tears the zones down.
	s.broadcastResolution(m, winner.UID, leaverUID, "opponent disconnected", true)

	if err := s.lobby.EndSession(m.UID(), winner.UID, lobby.ResolutionDisconnect); err != nil {
		s.log.Error("resolve forfeit",
			zap.String("session_uid", m.UID()),
			zap.Error(err))
		return
	}

	s.log.Info("match forfeited",
		zap.String("session_uid", m.UID()),
		zap.String("leaver_uid", leaverUID),
		zap.String("winner_uid", winner.UID))
}

// HandleQueue processes a join or leave request. A join that fills the
// queue starts a match immediately: the roster is seated, dealt, armed
// with the turn timer, and every member receives a start response plus
// their opening view.
func (s *LobbyService) HandleQueue(connID string, req *wire.LobbyQueueRequest) {
	if err := req.Validate(); err != nil {
		s.log.Warn("bad queue request", zap.String("conn_id", connID), zap.Error(err))
		return
	}

	s.lobby.BindPlayer(connID, *req.Player)

	if req.Leave {
		s.lobby.Dequeue(req.Player.PlayerUID)
		s.Statistics()
		return
	}

	roster, queueUID, err := s.lobby.Enqueue(*req.Player, req.RosterSize)
	if err != nil {
		s.log.Warn("enqueue rejected",
			zap.String("player_uid", req.Player.PlayerUID),
			zap.Error(err))
		return
	}

	if roster == nil {
		resp := wire.LobbyQueueResponse{SessionUID: queueUID, Action: wire.QueueWait}
		if err := s.transport.EmitTo(connID, wire.EventLobbyQueue, resp); err != nil {
			s.log.Debug("push wait response", zap.Error(err))
		}
		return
	}

	s.startMatch(roster)
	s.Statistics()
}

// startMatch seats a drained roster, deals it and notifies every member.
func (s *LobbyService) startMatch(roster *lobby.Roster) {
	m := match.NewWithUID(roster.SessionUID, s.turnTimeout)

	for _, member := range roster.Players {
		connID, _ := s.lobby.ConnectionByPlayer(member.PlayerUID)
		p := engine.NewPlayer(member.PlayerUID, member.PublicUID, connID, member.Name)
		if err := m.AddPlayer(p); err != nil {
			s.log.Error("seat player",
				zap.String("session_uid", roster.SessionUID),
				zap.String("player_uid", member.PlayerUID),
				zap.Error(err))
			return
		}
	}

	s.lobby.AddSession(m)
	m.Initialize(func() { s.resolveTimeout(m) })

	s.log.Info("match started",
		zap.String("session_uid", m.UID()),
		zap.Int("roster_size", len(roster.Players)))

	start := wire.LobbyQueueResponse{SessionUID: m.UID(), Action: wire.QueueStart}
	for _, seat := range m.Seats() {
		if err := s.transport.EmitTo(seat.ConnectionID, wire.EventLobbyQueue, start); err != nil {
			s.log.Debug("push start response", zap.Error(err))
		}
	}

	s.broadcastViews(m, wire.TurnFeedback{Action: wire.ActionInit}, "")
}

// resolveTimeout ends the session in favor of the seat after the one that
// let the timer run out.
func (s *LobbyService) resolveTimeout(m *match.Match) {
	winner, ok := m.NextSeat()
	if !ok {
		return
	}

	s.broadcastResolution(m, winner.UID, "", "turn timer expired", false)

	if err := s.lobby.EndSession(m.UID(), winner.UID, lobby.ResolutionTimeout); err != nil {
		s.log.Error("resolve timeout",
			zap.String("session_uid", m.UID()),
			zap.Error(err))
		return
	}

	s.log.Info("turn timer expired",
		zap.String("session_uid", m.UID()),
		zap.String("winner_uid", winner.UID))

	s.Statistics()
}

// Statistics broadcasts the lobby snapshot to every socket.
func (s *LobbyService) Statistics() {
	s.transport.Broadcast(wire.EventLobbyStatistics, s.lobby.Statistics())
}

// broadcastViews renders and delivers each seat's private view. The
// skipUID seat, if any, is omitted; used when that socket is already
// gone.
func (s *LobbyService) broadcastViews(m *match.Match, feedback wire.TurnFeedback, skipUID string) {
	for _, seat := range m.Seats() {
		if seat.UID == skipUID {
			continue
		}
		view := m.View(seat.UID, feedback)
		if view == nil {
			continue
		}
		resp := wire.GameTurnResponse{SessionUID: m.UID(), Turn: view}
		if err := s.transport.EmitTo(seat.ConnectionID, wire.EventGameTurn, resp); err != nil {
			s.log.Debug("push turn view",
				zap.String("conn_id", seat.ConnectionID),
				zap.Error(err))
		}
	}
}

// broadcastResolution delivers final views for a resolved match. Only the
// winner's view carries HasWon.
func (s *LobbyService) broadcastResolution(m *match.Match, winnerUID, skipUID, text string, disconnect bool) {
	for _, seat := range m.Seats() {
		if seat.UID == skipUID {
			continue
		}
		feedback := wire.TurnFeedback{
			Action:        wire.ActionWin,
			HasWon:        seat.UID == winnerUID,
			HasDisconnect: disconnect,
			Message:       &wire.TurnMessage{Kind: wire.MessageInfo, Text: text},
		}
		view := m.View(seat.UID, feedback)
		if view == nil {
			continue
		}
		resp := wire.GameTurnResponse{SessionUID: m.UID(), Turn: view}
		if err := s.transport.EmitTo(seat.ConnectionID, wire.EventGameTurn, resp); err != nil {
			s.log.Debug("push final view",
				zap.String("conn_id", seat.ConnectionID),
				zap.Error(err))
		}
	}
}
