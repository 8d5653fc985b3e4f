// Package transport abstracts the byte-stream bridge carrying the two
// session channels. The bridge is a pure byte forwarder: it delivers opaque
// binary chunks with no framing or interpretation of its own, and chunk
// boundaries are independent of message boundaries. Adapters exist for a
// direct TCP connection and for a websocket bridge endpoint; the session
// core only ever sees the interfaces here.
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by Send after the connection is closed.
var ErrClosed = errors.New("transport connection closed")

// Event is one inbound transport signal: either a data chunk or a terminal
// error. io.EOF means the remote closed cleanly. After a terminal event the
// event channel is closed and no further events arrive.
type Event struct {
	Data []byte
	Err  error
}

// Conn is one full-duplex byte stream.
type Conn interface {
	// Send writes one chunk. The transport may coalesce or split chunks
	// arbitrarily in flight.
	Send(b []byte) error

	// Events delivers inbound chunks and the terminal error, in order.
	Events() <-chan Event

	// Close tears the stream down. Safe to call more than once.
	Close() error
}

// Dialer opens bridge connections to a named endpoint.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}
