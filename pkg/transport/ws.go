package transport

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// WSDialer opens connections through a websocket bridge endpoint, the path
// used when the backend TCP services are not directly reachable.
type WSDialer struct {
	dialer *websocket.Dialer
}

// NewWSDialer returns a WSDialer with default handshake settings.
func NewWSDialer() *WSDialer {
	return &WSDialer{dialer: websocket.DefaultDialer}
}

// Dial connects to a ws:// or wss:// bridge URL.
func (d *WSDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	c, resp, err := d.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return newWSConn(c), nil
}

// wsConn adapts a websocket to the bridge interface. Each binary message is
// one chunk; the framing layer reassembles regardless of boundaries.
type wsConn struct {
	conn   *websocket.Conn
	events chan Event

	sendMu    sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func newWSConn(c *websocket.Conn) *wsConn {
	w := &wsConn{
		conn:   c,
		events: make(chan Event, 32),
		closed: make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *wsConn) readLoop() {
	defer close(w.events)
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case w.events <- Event{Err: err}:
			case <-w.closed:
			}
			return
		}
		select {
		case w.events <- Event{Data: data}:
		case <-w.closed:
			return
		}
	}
}

func (w *wsConn) Send(b []byte) error {
	select {
	case <-w.closed:
		return ErrClosed
	default:
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	return w.conn.WriteMessage(websocket.BinaryMessage, b)
}

func (w *wsConn) Events() <-chan Event {
	return w.events
}

func (w *wsConn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		err = w.conn.Close()
	})
	return err
}
