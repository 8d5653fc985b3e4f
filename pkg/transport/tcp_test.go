package transport

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"
)

func TestStreamConnDelivery(t *testing.T) {
	local, remote := net.Pipe()
	conn := newStreamConn(local)
	defer conn.Close()

	go remote.Write([]byte("chunk one"))

	select {
	case ev := <-conn.Events():
		if ev.Err != nil {
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
		if !bytes.Equal(ev.Data, []byte("chunk one")) {
			t.Errorf("Data = %q", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestStreamConnSend(t *testing.T) {
	local, remote := net.Pipe()
	conn := newStreamConn(local)
	defer conn.Close()

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 16)
		n, _ := remote.Read(buf)
		done <- buf[:n]
	}()

	if err := conn.Send([]byte("outbound")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case got := <-done:
		if !bytes.Equal(got, []byte("outbound")) {
			t.Errorf("remote read %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("send never reached remote")
	}
}

func TestStreamConnRemoteClose(t *testing.T) {
	local, remote := net.Pipe()
	conn := newStreamConn(local)
	defer conn.Close()

	remote.Close()

	select {
	case ev := <-conn.Events():
		if ev.Err == nil {
			t.Fatal("expected terminal error event")
		}
		if ev.Err != io.EOF && ev.Err != io.ErrClosedPipe {
			t.Logf("terminal error: %v", ev.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("no terminal event after remote close")
	}

	// Channel closes after the terminal event.
	select {
	case _, ok := <-conn.Events():
		if ok {
			t.Error("event after terminal error")
		}
	case <-time.After(time.Second):
		t.Fatal("event channel never closed")
	}
}

func TestStreamConnCloseIdempotent(t *testing.T) {
	local, _ := net.Pipe()
	conn := newStreamConn(local)

	if err := conn.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if err := conn.Send([]byte("late")); err != ErrClosed {
		t.Errorf("Send after close: error = %v, want ErrClosed", err)
	}
}
