package service

import "github.com/tkoskela/kasa/wire"

// Transport is the outbound half of the socket layer. Broadcast is
// best-effort; EmitTo reports delivery problems for a single socket.
type Transport interface {
	// Broadcast sends the event to every open socket.
	Broadcast(event wire.EventType, payload any)

	// EmitTo sends the event to one socket.
	EmitTo(connID string, event wire.EventType, payload any) error
}
