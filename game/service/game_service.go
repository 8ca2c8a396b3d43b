package service

import (
	"go.uber.org/zap"

	"github.com/tkoskela/kasa/game/engine"
	"github.com/tkoskela/kasa/game/lobby"
	"github.com/tkoskela/kasa/game/match"
	"github.com/tkoskela/kasa/wire"
)

// GameService dispatches turn operations onto live matches.
type GameService struct {
	log       *zap.Logger
	lobby     *lobby.Lobby
	lobbySvc  *LobbyService
	transport Transport
}

// NewGameService wires the turn handler.
func NewGameService(log *zap.Logger, reg *lobby.Lobby, lobbySvc *LobbyService, transport Transport) *GameService {
	return &GameService{
		log:       log,
		lobby:     reg,
		lobbySvc:  lobbySvc,
		transport: transport,
	}
}

// HandleTurn processes one turn request. Rule violations produce an error
// view for the requesting socket only; accepted operations fan the
// updated views out to every seat.
func (s *GameService) HandleTurn(connID string, req *wire.GameTurnRequest) {
	if err := req.Validate(); err != nil {
		s.log.Warn("bad turn request", zap.String("conn_id", connID), zap.Error(err))
		return
	}

	m, err := s.lobby.Session(req.SessionUID)
	if err != nil {
		s.rejectTo(connID, nil, req, "session not found")
		return
	}

	playerUID := req.Player.PlayerUID
	if !m.HasPlayer(playerUID) {
		s.rejectTo(connID, nil, req, "player not in session")
		return
	}

	if req.Action != wire.ActionInit && !m.IsTurn(playerUID) {
		s.rejectTo(connID, m, req, "not your turn")
		return
	}

	switch req.Action {
	case wire.ActionInit:
		s.lobbySvc.broadcastViews(m, wire.TurnFeedback{Action: wire.ActionInit}, "")

	case wire.ActionPlayCard:
		s.playCard(connID, m, req)

	case wire.ActionEndTurn:
		// A seat that has emptied every zone wins the moment it closes
		// its turn, even without a move this turn.
		if m.IsWinCondition(playerUID, false) {
			s.resolveWin(m, playerUID)
			return
		}
		if m.TurnMoves() == 0 {
			s.rejectTo(connID, m, req, "play or pick up before ending the turn")
			return
		}
		if !m.EndTurn() {
			s.rejectTo(connID, m, req, "turn could not be ended")
			return
		}
		s.accept(m, req, "turn ended")

	case wire.ActionPickUp:
		if !m.PickupTurn() {
			s.rejectTo(connID, m, req, "pile could not be picked up")
			return
		}
		s.accept(m, req, "pile picked up")

	default:
		// ActionWin is a server-side result marker, never a request.
		s.rejectTo(connID, m, req, "unknown action")
	}
}

// playCard resolves a single card play, including the burn and destroy
// outcomes.
func (s *GameService) playCard(connID string, m *match.Match, req *wire.GameTurnRequest) {
	played, effect := m.PlayCard(req.CardID)
	if !played {
		s.rejectTo(connID, m, req, "card cannot be played")
		return
	}

	text := "card played"
	if effect == engine.Destroy {
		text = "pile destroyed"
	}
	s.accept(m, req, text)
}

// resolveWin ends the session in favor of playerUID, whose win condition
// the caller has already verified.
func (s *GameService) resolveWin(m *match.Match, playerUID string) {
	s.lobbySvc.broadcastResolution(m, playerUID, "", "game over", false)

	if err := s.lobby.EndSession(m.UID(), playerUID, lobby.ResolutionDefault); err != nil {
		s.log.Warn("win claim rejected",
			zap.String("session_uid", m.UID()),
			zap.String("player_uid", playerUID),
			zap.Error(err))
		return
	}

	s.log.Info("match won",
		zap.String("session_uid", m.UID()),
		zap.String("winner_uid", playerUID))

	s.lobbySvc.Statistics()
}

// accept fans an informational result out to every seat.
func (s *GameService) accept(m *match.Match, req *wire.GameTurnRequest, text string) {
	feedback := wire.TurnFeedback{
		Action:  req.Action,
		Message: &wire.TurnMessage{Kind: wire.MessageInfo, Text: text},
	}
	s.lobbySvc.broadcastViews(m, feedback, "")
}

// rejectTo sends an error view to the requesting socket only. With a nil
// match there is no state to render, so only the feedback goes out.
func (s *GameService) rejectTo(connID string, m *match.Match, req *wire.GameTurnRequest, text string) {
	feedback := wire.TurnFeedback{
		Action:  req.Action,
		Message: &wire.TurnMessage{Kind: wire.MessageError, Text: text},
	}

	resp := wire.GameTurnResponse{SessionUID: req.SessionUID}
	if m != nil {
		resp.Turn = m.View(req.Player.PlayerUID, feedback)
	}
	if resp.Turn == nil {
		resp.Turn = &wire.TurnView{Feedback: feedback}
	}

	if err := s.transport.EmitTo(connID, wire.EventGameTurn, resp); err != nil {
		s.log.Debug("push rejection",
			zap.String("conn_id", connID),
			zap.Error(err))
	}
	s.log.Debug("turn rejected",
		zap.String("session_uid", req.SessionUID),
		zap.String("reason", text))
}
