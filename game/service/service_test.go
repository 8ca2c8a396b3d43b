package service

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tkoskela/kasa/game/engine"
	"github.com/tkoskela/kasa/game/lobby"
	"github.com/tkoskela/kasa/game/match"
	"github.com/tkoskela/kasa/storage"
	"github.com/tkoskela/kasa/wire"
)

// fakeTransport records everything the services emit.
type fakeTransport struct {
	mu         sync.Mutex
	broadcasts []wire.EventType
	sent       map[string][]sentFrame
}

type sentFrame struct {
	event   wire.EventType
	payload any
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(map[string][]sentFrame)}
}

func (f *fakeTransport) Broadcast(event wire.EventType, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, event)
}

func (f *fakeTransport) EmitTo(connID string, event wire.EventType, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[connID] = append(f.sent[connID], sentFrame{event: event, payload: payload})
	return nil
}

func (f *fakeTransport) framesFor(connID string) []sentFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentFrame(nil), f.sent[connID]...)
}

func (f *fakeTransport) lastTurnView(t *testing.T, connID string) *wire.TurnView {
	t.Helper()
	frames := f.framesFor(connID)
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].event == wire.EventGameTurn {
			resp, ok := frames[i].payload.(wire.GameTurnResponse)
			if !ok {
				t.Fatalf("turn frame payload is %T", frames[i].payload)
			}
			return resp.Turn
		}
	}
	t.Fatalf("no turn frame sent to %s", connID)
	return nil
}

type fixture struct {
	transport *fakeTransport
	lobby     *lobby.Lobby
	store     *storage.MemoryStore
	lobbySvc  *LobbyService
	gameSvc   *GameService
}

func newFixture() *fixture {
	return newFixtureWithTimeout(time.Hour)
}

func newFixtureWithTimeout(turnTimeout time.Duration) *fixture {
	log := zap.NewNop()
	store := storage.NewMemoryStore()
	reg := lobby.New(log, store)
	transport := newFakeTransport()
	lobbySvc := NewLobbyService(log, reg, transport, turnTimeout)
	gameSvc := NewGameService(log, reg, lobbySvc, transport)
	return &fixture{
		transport: transport,
		lobby:     reg,
		store:     store,
		lobbySvc:  lobbySvc,
		gameSvc:   gameSvc,
	}
}

func queueReq(uid string, size wire.RosterSize) *wire.LobbyQueueRequest {
	return &wire.LobbyQueueRequest{
		Player: &wire.PlayerRef{
			PlayerUID: uid,
			PublicUID: "pub-" + uid,
			Name:      "name-" + uid,
		},
		RosterSize: size,
	}
}

// seatTwo connects and queues two players and returns the session uid.
func seatTwo(t *testing.T, f *fixture) string {
	t.Helper()

	f.lobbySvc.Connect("conn-a")
	f.lobbySvc.Connect("conn-b")
	f.lobbySvc.HandleQueue("conn-a", queueReq("alice", wire.RosterTwo))
	f.lobbySvc.HandleQueue("conn-b", queueReq("bob", wire.RosterTwo))

	m, ok := f.lobby.SessionFor("alice")
	if !ok {
		t.Fatal("filled queue did not start a match")
	}
	return m.UID()
}

func TestConnectPushesStatistics(t *testing.T) {
	f := newFixture()

	f.lobbySvc.Connect("conn-a")

	frames := f.transport.framesFor("conn-a")
	if len(frames) != 1 || frames[0].event != wire.EventLobbyStatistics {
		t.Fatalf("connect frames = %+v, want one statistics push", frames)
	}
}

func TestHandleQueueWaitThenStart(t *testing.T) {
	f := newFixture()

	f.lobbySvc.Connect("conn-a")
	f.lobbySvc.HandleQueue("conn-a", queueReq("alice", wire.RosterTwo))

	var wait *wire.LobbyQueueResponse
	for _, frame := range f.transport.framesFor("conn-a") {
		if frame.event == wire.EventLobbyQueue {
			resp := frame.payload.(wire.LobbyQueueResponse)
			wait = &resp
		}
	}
	if wait == nil || wait.Action != wire.QueueWait {
		t.Fatalf("first join should wait, got %+v", wait)
	}

	f.lobbySvc.Connect("conn-b")
	f.lobbySvc.HandleQueue("conn-b", queueReq("bob", wire.RosterTwo))

	for _, connID := range []string{"conn-a", "conn-b"} {
		var started bool
		for _, frame := range f.transport.framesFor(connID) {
			if frame.event == wire.EventLobbyQueue {
				if resp := frame.payload.(wire.LobbyQueueResponse); resp.Action == wire.QueueStart {
					started = true
					if resp.SessionUID != wait.SessionUID {
						t.Errorf("start session uid = %s, want queue uid %s",
							resp.SessionUID, wait.SessionUID)
					}
				}
			}
		}
		if !started {
			t.Errorf("%s never received a start response", connID)
		}

		view := f.transport.lastTurnView(t, connID)
		if len(view.Self.Hand) != 3 {
			t.Errorf("%s opening hand has %d cards, want 3", connID, len(view.Self.Hand))
		}
	}
}

func TestHandleTurnRejectsOffTurn(t *testing.T) {
	f := newFixture()
	sessionUID := seatTwo(t, f)

	// Seat order follows queue order, so bob is off turn.
	f.gameSvc.HandleTurn("conn-b", &wire.GameTurnRequest{
		SessionUID: sessionUID,
		Player:     &wire.PlayerRef{PlayerUID: "bob"},
		Action:     wire.ActionEndTurn,
	})

	view := f.transport.lastTurnView(t, "conn-b")
	if view.Feedback.Message == nil || view.Feedback.Message.Kind != wire.MessageError {
		t.Fatalf("off-turn request should produce an error view, got %+v", view.Feedback)
	}
}

func TestHandleTurnRejectsEmptyEndTurn(t *testing.T) {
	f := newFixture()
	sessionUID := seatTwo(t, f)

	f.gameSvc.HandleTurn("conn-a", &wire.GameTurnRequest{
		SessionUID: sessionUID,
		Player:     &wire.PlayerRef{PlayerUID: "alice"},
		Action:     wire.ActionEndTurn,
	})

	view := f.transport.lastTurnView(t, "conn-a")
	if view.Feedback.Message == nil || view.Feedback.Message.Kind != wire.MessageError {
		t.Fatal("ending a turn without a move should be rejected")
	}
	m, _ := f.lobby.SessionFor("alice")
	if !m.IsTurn("alice") {
		t.Error("rejected end turn must not advance the cursor")
	}
}

func TestHandleTurnPlayAndEnd(t *testing.T) {
	f := newFixture()
	sessionUID := seatTwo(t, f)

	view := f.transport.lastTurnView(t, "conn-a")
	cardID := view.Self.Hand[0].UID

	f.gameSvc.HandleTurn("conn-a", &wire.GameTurnRequest{
		SessionUID: sessionUID,
		Player:     &wire.PlayerRef{PlayerUID: "alice"},
		Action:     wire.ActionPlayCard,
		CardID:     cardID,
	})

	after := f.transport.lastTurnView(t, "conn-a")
	if after.Feedback.Message == nil || after.Feedback.Message.Kind != wire.MessageInfo {
		t.Fatalf("legal opening play should be accepted, got %+v", after.Feedback)
	}
	if len(after.Table) != 1 {
		t.Errorf("table has %d cards after the play, want 1", len(after.Table))
	}

	// The opponent sees the play too, but never alice's cards.
	opp := f.transport.lastTurnView(t, "conn-b")
	if len(opp.Table) != 1 {
		t.Errorf("opponent table has %d cards, want 1", len(opp.Table))
	}
	if len(opp.Opponents) != 1 || opp.Opponents[0].HandCount != 2 {
		t.Errorf("opponent sees hand count %+v, want 2", opp.Opponents)
	}

	f.gameSvc.HandleTurn("conn-a", &wire.GameTurnRequest{
		SessionUID: sessionUID,
		Player:     &wire.PlayerRef{PlayerUID: "alice"},
		Action:     wire.ActionEndTurn,
	})

	final := f.transport.lastTurnView(t, "conn-b")
	if !final.IsMyTurn {
		t.Error("cursor should have moved to bob after end turn")
	}
	mine := f.transport.lastTurnView(t, "conn-a")
	if len(mine.Self.Hand) != 3 {
		t.Errorf("hand refilled to %d, want 3", len(mine.Self.Hand))
	}
}

func TestHandleTurnUnknownSession(t *testing.T) {
	f := newFixture()
	f.lobbySvc.Connect("conn-a")

	f.gameSvc.HandleTurn("conn-a", &wire.GameTurnRequest{
		SessionUID: "missing",
		Player:     &wire.PlayerRef{PlayerUID: "alice"},
		Action:     wire.ActionInit,
	})

	view := f.transport.lastTurnView(t, "conn-a")
	if view.Feedback.Message == nil || view.Feedback.Message.Kind != wire.MessageError {
		t.Error("unknown session should produce an error view")
	}
}

// seatTwoDirect builds a two-player match around the fixture's lobby so a
// test can reach the seated engine players.
func seatTwoDirect(t *testing.T, f *fixture, sessionUID string) (*engine.Player, *engine.Player) {
	t.Helper()

	f.lobbySvc.Connect("conn-a")
	f.lobbySvc.Connect("conn-b")
	f.lobby.BindPlayer("conn-a", wire.PlayerRef{PlayerUID: "alice", PublicUID: "pub-alice", Name: "name-alice"})
	f.lobby.BindPlayer("conn-b", wire.PlayerRef{PlayerUID: "bob", PublicUID: "pub-bob", Name: "name-bob"})

	alice := engine.NewPlayer("alice", "pub-alice", "conn-a", "name-alice")
	bob := engine.NewPlayer("bob", "pub-bob", "conn-b", "name-bob")
	m := match.NewWithUID(sessionUID, time.Hour)
	if err := m.AddPlayer(alice); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := m.AddPlayer(bob); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	m.Initialize(func() {})
	f.lobby.AddSession(m)
	return alice, bob
}

func TestEndTurnResolvesWin(t *testing.T) {
	f := newFixture()
	alice, _ := seatTwoDirect(t, f, "s-win")

	// Alice has shed every zone; closing the turn settles the match.
	alice.ClearCards()

	f.gameSvc.HandleTurn("conn-a", &wire.GameTurnRequest{
		SessionUID: "s-win",
		Player:     &wire.PlayerRef{PlayerUID: "alice"},
		Action:     wire.ActionEndTurn,
	})

	if _, err := f.lobby.Session("s-win"); err != lobby.ErrSessionNotFound {
		t.Error("session should be resolved by the winning end turn")
	}

	records, _ := f.store.RecentMatches(1)
	if len(records) != 1 || records[0].WinnerUID != "pub-alice" {
		t.Errorf("result not recorded for the winner: %+v", records)
	}

	win := f.transport.lastTurnView(t, "conn-a")
	if !win.IsWinner {
		t.Error("winner's final view should carry the win")
	}
	lose := f.transport.lastTurnView(t, "conn-b")
	if lose.IsWinner {
		t.Error("loser's final view must not carry the win")
	}
}

func TestEndTurnWithCardsLeftDoesNotWin(t *testing.T) {
	f := newFixture()
	sessionUID := seatTwo(t, f)

	view := f.transport.lastTurnView(t, "conn-a")
	f.gameSvc.HandleTurn("conn-a", &wire.GameTurnRequest{
		SessionUID: sessionUID,
		Player:     &wire.PlayerRef{PlayerUID: "alice"},
		Action:     wire.ActionPlayCard,
		CardID:     view.Self.Hand[0].UID,
	})
	f.gameSvc.HandleTurn("conn-a", &wire.GameTurnRequest{
		SessionUID: sessionUID,
		Player:     &wire.PlayerRef{PlayerUID: "alice"},
		Action:     wire.ActionEndTurn,
	})

	if _, err := f.lobby.Session(sessionUID); err != nil {
		t.Error("an ordinary end turn must leave the session live")
	}
}

func TestWinActionRejectedAsRequest(t *testing.T) {
	f := newFixture()
	alice, _ := seatTwoDirect(t, f, "s-claim")

	// Even a seat that has genuinely won cannot claim through the
	// server-only result action.
	alice.ClearCards()

	f.gameSvc.HandleTurn("conn-a", &wire.GameTurnRequest{
		SessionUID: "s-claim",
		Player:     &wire.PlayerRef{PlayerUID: "alice"},
		Action:     wire.ActionWin,
	})

	view := f.transport.lastTurnView(t, "conn-a")
	if view.Feedback.Message == nil || view.Feedback.Message.Kind != wire.MessageError {
		t.Fatalf("client-sent win action should be rejected, got %+v", view.Feedback)
	}
	if _, err := f.lobby.Session("s-claim"); err != nil {
		t.Error("rejected action must leave the session live")
	}
}

func TestTurnTimeoutResolvesSession(t *testing.T) {
	f := newFixtureWithTimeout(50 * time.Millisecond)
	sessionUID := seatTwo(t, f)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := f.lobby.Session(sessionUID); err == lobby.ErrSessionNotFound {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session still live after the turn timer elapsed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The seat after the idle cursor takes the match.
	records, _ := f.store.RecentMatches(1)
	if len(records) != 1 || records[0].WinnerUID != "pub-bob" {
		t.Fatalf("timeout result = %+v, want pub-bob as winner", records)
	}

	win := f.transport.lastTurnView(t, "conn-b")
	if !win.IsWinner {
		t.Error("beneficiary's final view should carry the win")
	}
	lose := f.transport.lastTurnView(t, "conn-a")
	if lose.IsWinner {
		t.Error("idle seat's final view must not carry the win")
	}
}

func TestDisconnectForfeitsMatch(t *testing.T) {
	f := newFixture()
	sessionUID := seatTwo(t, f)

	f.lobbySvc.Disconnect("conn-a")

	if _, err := f.lobby.Session(sessionUID); err != lobby.ErrSessionNotFound {
		t.Error("session should be resolved after a seat disconnects")
	}

	view := f.transport.lastTurnView(t, "conn-b")
	if !view.IsWinner || !view.Feedback.HasDisconnect {
		t.Errorf("survivor view = %+v, want disconnect win", view.Feedback)
	}

	tallies, _ := f.store.TopPlayers(10)
	if len(tallies) != 2 || tallies[0].PlayerUID != "pub-bob" {
		t.Errorf("forfeit not recorded: %+v", tallies)
	}
}

func TestDisconnectWhileQueuedOnlyDequeues(t *testing.T) {
	f := newFixture()

	f.lobbySvc.Connect("conn-a")
	f.lobbySvc.HandleQueue("conn-a", queueReq("alice", wire.RosterTwo))
	f.lobbySvc.Disconnect("conn-a")

	f.lobbySvc.Connect("conn-b")
	f.lobbySvc.HandleQueue("conn-b", queueReq("bob", wire.RosterTwo))
	if _, ok := f.lobby.SessionFor("bob"); ok {
		t.Error("queue should have lost the disconnected player")
	}
}

func TestQueueLeaveRequest(t *testing.T) {
	f := newFixture()

	f.lobbySvc.Connect("conn-a")
	f.lobbySvc.HandleQueue("conn-a", queueReq("alice", wire.RosterTwo))

	leave := queueReq("alice", wire.RosterTwo)
	leave.Leave = true
	f.lobbySvc.HandleQueue("conn-a", leave)

	f.lobbySvc.Connect("conn-b")
	f.lobbySvc.HandleQueue("conn-b", queueReq("bob", wire.RosterTwo))
	if _, ok := f.lobby.SessionFor("bob"); ok {
		t.Error("left player must not be seated")
	}
}
