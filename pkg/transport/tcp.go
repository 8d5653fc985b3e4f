package transport

import (
	"context"
	"net"
	"sync"
)

const readChunkSize = 32 * 1024

// TCPDialer opens direct TCP connections to backend endpoints.
type TCPDialer struct {
	dialer net.Dialer
}

// NewTCPDialer returns a ready TCPDialer.
func NewTCPDialer() *TCPDialer {
	return &TCPDialer{}
}

// Dial connects to a host:port endpoint.
func (d *TCPDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	c, err := d.dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, err
	}
	return newStreamConn(c), nil
}

// streamConn adapts any net.Conn to the bridge interface: a reader
// goroutine turns the stream into chunk events.
type streamConn struct {
	conn   net.Conn
	events chan Event

	closeOnce sync.Once
	closed    chan struct{}
}

func newStreamConn(c net.Conn) *streamConn {
	s := &streamConn{
		conn:   c,
		events: make(chan Event, 32),
		closed: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *streamConn) readLoop() {
	defer close(s.events)
	for {
		buf := make([]byte, readChunkSize)
		n, err := s.conn.Read(buf)
		if n > 0 {
			select {
			case s.events <- Event{Data: buf[:n]}:
			case <-s.closed:
				return
			}
		}
		if err != nil {
			select {
			case s.events <- Event{Err: err}:
			case <-s.closed:
			}
			return
		}
	}
}

func (s *streamConn) Send(b []byte) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	_, err := s.conn.Write(b)
	return err
}

func (s *streamConn) Events() <-chan Event {
	return s.events
}

func (s *streamConn) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return err
}
