// Package wire defines the message envelope and payload schema exchanged
// over the websocket transport. The envelope is a small binary frame: a
// varint event tag followed by an opaque payload. Payload schemas are
// JSON-encoded; the transport never looks inside them.
package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// EventType tags every frame with the handler it is routed to.
// The numeric values are wire-visible and must stay stable.
type EventType int32

const (
	EventConnect EventType = iota
	EventLobbyQueue
	EventLobbyStatistics
	EventGameTurn
	EventDisconnect
	EventPing
	EventPong
	EventUnknown
)

// String returns the event name used in logs.
func (e EventType) String() string {
	switch e {
	case EventConnect:
		return "CONNECT"
	case EventLobbyQueue:
		return "LOBBY_QUEUE"
	case EventLobbyStatistics:
		return "LOBBY_STATISTICS"
	case EventGameTurn:
		return "GAME_TURN"
	case EventDisconnect:
		return "DISCONNECT"
	case EventPing:
		return "PING"
	case EventPong:
		return "PONG"
	default:
		return "UNKNOWN"
	}
}

// Envelope field numbers.
const (
	fieldEvent   = 1
	fieldPayload = 2
)

var errTruncatedFrame = errors.New("wire: truncated frame")

// Encode builds the binary frame for an event and its payload bytes.
func Encode(event EventType, payload []byte) []byte {
	buf := make([]byte, 0, len(payload)+8)
	buf = protowire.AppendTag(buf, fieldEvent, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(event))
	buf = protowire.AppendTag(buf, fieldPayload, protowire.BytesType)
	buf = protowire.AppendBytes(buf, payload)
	return buf
}

// Decode parses a binary frame into its event tag and payload bytes.
// Unrecognized event numbers decode as EventUnknown; callers drop those
// frames. Unknown fields are skipped so the envelope can grow.
func Decode(frame []byte) (EventType, []byte, error) {
	event := EventUnknown
	var payload []byte

	for len(frame) > 0 {
		num, typ, n := protowire.ConsumeTag(frame)
		if n < 0 {
			return EventUnknown, nil, fmt.Errorf("wire: bad tag: %w", protowire.ParseError(n))
		}
		frame = frame[n:]

		switch {
		case num == fieldEvent && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(frame)
			if n < 0 {
				return EventUnknown, nil, errTruncatedFrame
			}
			frame = frame[n:]
			if v <= uint64(EventUnknown) {
				event = EventType(v)
			}
		case num == fieldPayload && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(frame)
			if n < 0 {
				return EventUnknown, nil, errTruncatedFrame
			}
			frame = frame[n:]
			payload = b
		default:
			n := protowire.ConsumeFieldValue(num, typ, frame)
			if n < 0 {
				return EventUnknown, nil, errTruncatedFrame
			}
			frame = frame[n:]
		}
	}

	return event, payload, nil
}
