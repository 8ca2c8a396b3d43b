package websocket

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tkoskela/kasa/wire"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	s := NewServer(zap.NewNop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (wire.EventType, []byte) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	event, payload, err := wire.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return event, payload
}

func TestConnectCallbackFires(t *testing.T) {
	s, ts := newTestServer(t)

	connected := make(chan string, 1)
	s.OnConnect(func(connID string) { connected <- connID })

	dial(t, ts)

	select {
	case connID := <-connected:
		if connID == "" {
			t.Error("connect callback fired with empty conn id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("connect callback never fired")
	}
}

func TestDisconnectCallbackFiresOnce(t *testing.T) {
	s, ts := newTestServer(t)

	connected := make(chan string, 1)
	s.OnConnect(func(connID string) { connected <- connID })

	var mu sync.Mutex
	fired := 0
	done := make(chan struct{}, 1)
	s.OnDisconnect(func(connID string) {
		mu.Lock()
		fired++
		mu.Unlock()
		done <- struct{}{}
	})

	conn := dial(t, ts)
	<-connected
	conn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback never fired")
	}

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("disconnect callback fired %d times, want 1", fired)
	}
}

func TestDispatchRoutesByEvent(t *testing.T) {
	s, ts := newTestServer(t)

	got := make(chan []byte, 1)
	s.On(wire.EventLobbyQueue, func(connID string, payload []byte) {
		got <- payload
	})

	conn := dial(t, ts)
	frame := wire.Encode(wire.EventLobbyQueue, []byte(`{"leave":true}`))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case payload := <-got:
		if string(payload) != `{"leave":true}` {
			t.Errorf("handler payload = %q", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestPingAnsweredWithPong(t *testing.T) {
	_, ts := newTestServer(t)

	conn := dial(t, ts)
	frame := wire.Encode(wire.EventPing, nil)
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	event, _ := readFrame(t, conn)
	if event != wire.EventPong {
		t.Errorf("ping answered with %v, want EventPong", event)
	}
}

func TestUnhandledEventKeepsSocketOpen(t *testing.T) {
	_, ts := newTestServer(t)

	conn := dial(t, ts)
	if err := conn.WriteMessage(websocket.BinaryMessage, wire.Encode(wire.EventGameTurn, nil)); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The socket survives the unhandled frame and still answers pings.
	if err := conn.WriteMessage(websocket.BinaryMessage, wire.Encode(wire.EventPing, nil)); err != nil {
		t.Fatalf("write after unhandled frame: %v", err)
	}
	event, _ := readFrame(t, conn)
	if event != wire.EventPong {
		t.Errorf("got %v, want EventPong", event)
	}
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	s, ts := newTestServer(t)

	s.On(wire.EventLobbyQueue, func(connID string, payload []byte) {
		panic("boom")
	})

	conn := dial(t, ts)
	if err := conn.WriteMessage(websocket.BinaryMessage, wire.Encode(wire.EventLobbyQueue, nil)); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, wire.Encode(wire.EventPing, nil)); err != nil {
		t.Fatalf("write after panic: %v", err)
	}
	event, _ := readFrame(t, conn)
	if event != wire.EventPong {
		t.Errorf("got %v, want EventPong", event)
	}
}

func TestEmitToDeliversFrame(t *testing.T) {
	s, ts := newTestServer(t)

	connected := make(chan string, 1)
	s.OnConnect(func(connID string) { connected <- connID })

	conn := dial(t, ts)
	connID := <-connected

	type note struct {
		Text string `json:"text"`
	}
	if err := s.EmitTo(connID, wire.EventLobbyStatistics, note{Text: "hello"}); err != nil {
		t.Fatalf("EmitTo: %v", err)
	}

	event, payload := readFrame(t, conn)
	if event != wire.EventLobbyStatistics {
		t.Errorf("event = %v, want EventLobbyStatistics", event)
	}
	if string(payload) != `{"text":"hello"}` {
		t.Errorf("payload = %q", payload)
	}
}

func TestEmitToUnknownConnection(t *testing.T) {
	s, _ := newTestServer(t)

	if err := s.EmitTo("missing", wire.EventPong, nil); err != ErrConnectionNotFound {
		t.Errorf("EmitTo unknown conn = %v, want ErrConnectionNotFound", err)
	}
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	s, ts := newTestServer(t)

	conns := []*websocket.Conn{dial(t, ts), dial(t, ts)}

	// Let both registrations land before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.RLock()
		n := len(s.conns)
		s.mu.RUnlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("connections never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.Broadcast(wire.EventLobbyStatistics, nil)

	for i, conn := range conns {
		event, _ := readFrame(t, conn)
		if event != wire.EventLobbyStatistics {
			t.Errorf("conn %d got %v, want EventLobbyStatistics", i, event)
		}
	}
}
