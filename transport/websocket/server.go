package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tkoskela/kasa/wire"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound frames queued per connection before broadcasts drop it.
	sendBuffer = 256
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrSendBufferFull     = errors.New("connection send buffer full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; the game carries no credentials.
		return true
	},
}

// Handler processes one decoded frame from one connection.
type Handler func(connID string, payload []byte)

// connection is one accepted socket with its outbound queue.
type connection struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

// Server owns the connection registry and the event dispatch table.
type Server struct {
	log *zap.Logger

	onConnect    func(connID string)
	onDisconnect func(connID string)

	hmu      sync.RWMutex
	handlers map[wire.EventType]Handler

	mu    sync.RWMutex
	conns map[string]*connection

	httpServer *http.Server
}

// NewServer creates a server with an empty dispatch table.
func NewServer(log *zap.Logger) *Server {
	return &Server{
		log:      log,
		handlers: make(map[wire.EventType]Handler),
		conns:    make(map[string]*connection),
	}
}

// On registers the handler for an event type. Call before ListenAndServe;
// a later registration replaces the earlier one.
func (s *Server) On(event wire.EventType, h Handler) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.handlers[event] = h
}

// OnConnect registers the callback fired when a socket is accepted.
func (s *Server) OnConnect(fn func(connID string)) { s.onConnect = fn }

// OnDisconnect registers the callback fired exactly once when a socket
// goes away.
func (s *Server) OnDisconnect(fn func(connID string)) { s.onDisconnect = fn }

// ListenAndServe upgrades sockets on /ws until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.log.Info("listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler returns the upgrade endpoint for mounting on an external mux,
// used by the tests.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveWS)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := &connection{
		id:   uuid.NewString(),
		conn: sock,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	s.log.Info("connection accepted", zap.String("conn_id", c.id))

	go s.writePump(c)
	go s.readPump(c)

	if s.onConnect != nil {
		s.onConnect(c.id)
	}
}

// Broadcast encodes the payload once and queues it on every connection.
// Connections with a full send buffer miss the frame.
func (s *Server) Broadcast(event wire.EventType, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		s.log.Error("encode broadcast", zap.Stringer("event", event), zap.Error(err))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		select {
		case c.send <- frame:
		default:
			s.log.Warn("broadcast dropped", zap.String("conn_id", c.id))
		}
	}
}

// EmitTo queues a frame for one connection.
func (s *Server) EmitTo(connID string, event wire.EventType, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	s.mu.RLock()
	c, ok := s.conns[connID]
	s.mu.RUnlock()
	if !ok {
		return ErrConnectionNotFound
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func encodeFrame(event wire.EventType, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return wire.Encode(event, body), nil
}

// drop removes the connection and fires the disconnect callback exactly
// once.
func (s *Server) drop(c *connection) {
	c.closeOnce.Do(func() {
		s.mu.Lock()
		delete(s.conns, c.id)
		s.mu.Unlock()

		// send stays open so a concurrent emit can never hit a closed
		// channel; the write pump exits through done instead.
		close(c.done)
		c.conn.Close()

		s.log.Info("connection closed", zap.String("conn_id", c.id))
		if s.onDisconnect != nil {
			s.onDisconnect(c.id)
		}
	})
}

// readPump decodes and dispatches inbound frames until the socket errors.
func (s *Server) readPump(c *connection) {
	defer s.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("read error", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}

		event, payload, err := wire.Decode(data)
		if err != nil {
			s.log.Warn("undecodable frame", zap.String("conn_id", c.id), zap.Error(err))
			continue
		}

		// Keepalive is answered ahead of the dispatch table.
		if event == wire.EventPing {
			if err := s.EmitTo(c.id, wire.EventPong, nil); err != nil {
				s.log.Debug("pong", zap.String("conn_id", c.id), zap.Error(err))
			}
			continue
		}

		s.dispatch(c.id, event, payload)
	}
}

func (s *Server) dispatch(connID string, event wire.EventType, payload []byte) {
	s.hmu.RLock()
	h, ok := s.handlers[event]
	s.hmu.RUnlock()

	if !ok {
		s.log.Warn("unhandled event",
			zap.String("conn_id", connID),
			zap.Stringer("event", event))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panic",
				zap.String("conn_id", connID),
				zap.Stringer("event", event),
				zap.Any("panic", r))
		}
	}()
	h(connID, payload)
}

// writePump flushes the outbound queue and keeps the socket alive with
// pings.
func (s *Server) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.drop(c)
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
