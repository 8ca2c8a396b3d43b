// Package websocket provides the socket transport and event multiplexer.
//
// The websocket package implements:
//   - Real-time bidirectional communication over a single upgrade path
//   - Binary frame envelopes routed by event type
//   - Connection lifecycle management with exactly-once disconnect
//   - Best-effort broadcast and error-propagating unicast
//
// Architecture:
//
// A central Server owns the connection registry. Each accepted socket is
// handled by a dedicated read goroutine and a dedicated write goroutine;
// outbound frames travel through a buffered per-connection channel, so a
// slow consumer never blocks a broadcast.
//
// Message Protocol:
//
// Frames are binary envelopes carrying an event type and an opaque
// payload; see the wire package. Incoming frames are routed through a
// dispatch table registered with On before the server starts listening.
// Ping frames are answered with Pong ahead of dispatch. Frames that fail
// to decode, and events without a registered handler, are logged and
// dropped without closing the socket.
//
// Connection Lifecycle:
//
// 1. Client connects to /ws and the socket is assigned a connection id
// 2. The connect callback fires with the new id
// 3. Frames are dispatched to their registered handlers
// 4. Close or read error triggers the disconnect callback exactly once
//
// Concurrency:
//
// The registry is guarded by a read-write mutex. Handlers run on the
// owning connection's read goroutine; a panicking handler is recovered
// and logged rather than taking the server down.
package websocket
