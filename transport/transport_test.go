package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/graphbolt/driver/transport"
)

func contextWithTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

// pipeTransport adapts net.Pipe for tests that don't want a real dial.
type pipeTransport struct {
	net.Conn
}

func (p pipeTransport) Write(b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := p.Conn.Write(b[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (p pipeTransport) Read(b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := p.Conn.Read(b[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestPipeTransportRoundTrip(t *testing.T) {
	t.Parallel()
	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})

	var ct transport.Transport = pipeTransport{client}
	var st transport.Transport = pipeTransport{server}

	payload := []byte("hello bolt")
	done := make(chan error, 1)
	go func() {
		_, err := ct.Write(payload)
		done <- err
	}()

	got := make([]byte, len(payload))
	if _, err := st.Read(got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("write: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestDialPlainRejectsUnusedLocalPort(t *testing.T) {
	t.Parallel()
	_, err := transport.DialPlain(contextWithTimeout(t), "127.0.0.1:1", transport.SocketOptions{
		ConnectTimeout: 200 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected dial to an unused local port to fail")
	}
}
