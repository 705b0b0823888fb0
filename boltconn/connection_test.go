package boltconn_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/graphbolt/driver/address"
	"github.com/graphbolt/driver/boltconn"
	"github.com/graphbolt/driver/buffer"
	"github.com/graphbolt/driver/chunking"
	"github.com/graphbolt/driver/packstream"
	"github.com/graphbolt/driver/protocol"
	"github.com/graphbolt/driver/transport"
	"github.com/graphbolt/driver/value"
)

// pipeTransport adapts net.Pipe for tests that don't want a real dial,
// mirroring transport_test.go's helper of the same shape.
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

func successStructure(kv ...any) value.Value {
	var d value.Value
	n := len(kv) / 2
	d.FormatDictionary(n)
	for i := 0; i < n; i++ {
		d.DictionarySetKey(i, kv[i*2].(string))
		d.DictionaryValue(i).FormatString(kv[i*2+1].(string))
	}
	var msg value.Value
	msg.FormatStructure(protocol.TagSuccess, 1)
	*msg.StructureField(0) = d
	return msg
}

func failureStructure(code, message string) value.Value {
	var d value.Value
	d.FormatDictionary(2)
	d.DictionarySetKey(0, "code")
	d.DictionaryValue(0).FormatString(code)
	d.DictionarySetKey(1, "message")
	d.DictionaryValue(1).FormatString(message)
	var msg value.Value
	msg.FormatStructure(protocol.TagFailure, 1)
	*msg.StructureField(0) = d
	return msg
}

// fakeServer drives the server side of a net.Pipe through a Bolt
// handshake and then answers one scripted summary structure per
// incoming client message, in order.
func fakeServer(t *testing.T, conn net.Conn, version int32, responses []value.Value) {
	t.Helper()
	go func() {
		var hello [20]byte
		if _, err := conn.Read(hello[:]); err != nil {
			return
		}
		reply := []byte{0, 0, 0, byte(version)}
		if _, err := conn.Write(reply); err != nil {
			return
		}

		chunkR := chunking.NewReader(conn)
		enc := packstream.NewEncoder(packstream.AllowAll{})
		for _, resp := range responses {
			if _, err := chunkR.ReadMessage(); err != nil {
				return
			}
			tx := buffer.New(64)
			if err := enc.Encode(tx, &resp); err != nil {
				return
			}
			if err := chunking.Write(conn, tx.Bytes()); err != nil {
				return
			}
		}
	}()
}

func openTestConnection(t *testing.T, responses []value.Value) *boltconn.Connection {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	fakeServer(t, server, 3, responses)

	dial := func(ctx context.Context, addr string) (transport.Transport, error) {
		return pipeTransport{client}, nil
	}
	addr := address.New("localhost", "7687")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := boltconn.Open(ctx, addr, boltconn.OpenOptions{Dial: dial, UserAgent: "test/1.0"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return c
}

// Property 5: once Defunct, no subsequent operation reports a state
// other than Defunct, and Close is the only thing that moves it to
// Disconnected afterward.
func TestConnectionStateMonotonicityAfterDefunct(t *testing.T) {
	t.Parallel()
	c := openTestConnection(t, []value.Value{
		successStructure("server", "Neo4j/4.4.0"), // HELLO
		failureStructure("Neo.ClientError.Statement.SyntaxError", "bad query"),
	})
	if c.State() != boltconn.Ready {
		t.Fatalf("after HELLO: got state %v, want Ready", c.State())
	}

	ctx := context.Background()
	runID, err := c.Run(ctx, "NOT CYPHER", nil, protocol.TxMeta{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	summary, err := c.FetchSummary(ctx, runID)
	if err != nil {
		t.Fatalf("fetch summary: %v", err)
	}
	if summary.Kind != protocol.SummaryFailure {
		t.Fatalf("got summary kind %v, want Failure", summary.Kind)
	}
	if c.State() != boltconn.Failed {
		t.Fatalf("after FAILURE: got state %v, want Failed", c.State())
	}

	// While Failed, requireState rejects Run without touching the
	// protocol or the state.
	if _, err := c.Run(ctx, "RETURN 1", nil, protocol.TxMeta{}); err == nil {
		t.Fatal("expected Run to be rejected while Failed")
	}
	if c.State() != boltconn.Failed {
		t.Fatalf("Run while Failed must not change state, got %v", c.State())
	}

	// No RESET response is scripted, so the fake server never answers;
	// bound the wait with a short deadline rather than blocking forever.
	resetCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	if err := c.Reset(resetCtx); err == nil {
		t.Fatal("expected Reset to fail since no RESET response was scripted")
	}
	if c.State() != boltconn.Defunct {
		t.Fatalf("after failed Reset: got state %v, want Defunct", c.State())
	}

	// Every operation attempted after Defunct must leave the state at
	// Defunct (requireState rejects it before touching the protocol).
	if _, err := c.Run(ctx, "RETURN 1", nil, protocol.TxMeta{}); err == nil {
		t.Fatal("expected Run to be rejected while Defunct")
	}
	if c.State() != boltconn.Defunct {
		t.Fatalf("got state %v after rejected Run, want Defunct", c.State())
	}
	if err := c.Reset(ctx); err == nil {
		t.Fatal("expected Reset to be rejected while Defunct")
	}
	if c.State() != boltconn.Defunct {
		t.Fatalf("got state %v after rejected Reset, want Defunct", c.State())
	}

	// Close is the sole operation permitted to move a Defunct
	// connection onward, landing it at Disconnected.
	_ = c.Close(ctx)
	if c.State() != boltconn.Disconnected {
		t.Fatalf("after Close: got state %v, want Disconnected", c.State())
	}
}

// S5-style scenario at the Connection layer: a clean RUN/PULL_ALL round
// trip ends in a SUCCESS summary and leaves the connection Ready.
func TestConnectionRunPullRoundTrip(t *testing.T) {
	t.Parallel()
	c := openTestConnection(t, []value.Value{
		successStructure("server", "Neo4j/4.4.0"), // HELLO
		successStructure("fields", "n"),            // RUN
		successStructure("type", "r"),               // PULL_ALL
	})
	if c.State() != boltconn.Ready {
		t.Fatalf("got state %v, want Ready", c.State())
	}

	ctx := context.Background()
	runID, err := c.Run(ctx, "RETURN 1 AS n", nil, protocol.TxMeta{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := c.FetchSummary(ctx, runID); err != nil {
		t.Fatalf("fetch run summary: %v", err)
	}

	pullID, err := c.PullAll(ctx)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	summary, err := c.FetchSummary(ctx, pullID)
	if err != nil {
		t.Fatalf("fetch pull summary: %v", err)
	}
	if summary.Kind != protocol.SummarySuccess {
		t.Fatalf("got summary kind %v, want Success", summary.Kind)
	}
	if c.State() != boltconn.Ready {
		t.Fatalf("got state %v after clean round trip, want Ready", c.State())
	}
}
