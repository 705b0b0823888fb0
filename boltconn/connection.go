// Package boltconn implements the Connection: it opens a Transport to a
// resolved Address, performs the version handshake, and drives a
// version-gated Protocol over that transport, exposing the protocol's
// operations as methods guarded by the connection's own state machine.
package boltconn

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/graphbolt/driver/address"
	"github.com/graphbolt/driver/boltcodes"
	"github.com/graphbolt/driver/boltlog"
	"github.com/graphbolt/driver/boltmetrics"
	"github.com/graphbolt/driver/protocol"
	"github.com/graphbolt/driver/transport"
	"github.com/graphbolt/driver/value"
)

// Dialer opens a Transport to a resolved address string ("host:port").
type Dialer func(ctx context.Context, addr string) (transport.Transport, error)

// OnErrorFunc is invoked exactly when a Connection enters Failed or
// Defunct, letting a pool forget the server.
type OnErrorFunc func(*Connection, error)

// OpenOptions configures Open; everything but Dial has a usable zero
// value.
type OpenOptions struct {
	Dial               Dialer
	UserAgent          string
	AuthToken          map[string]*value.Value
	VersionPreferences [4]int
	MaxMessageSize     int
	Logger             *boltlog.Logger
	OnError            OnErrorFunc
}

// Connection binds a transport.Transport and a version-gated
// protocol.Protocol, tracking the Disconnected/Connected/Ready/Failed/
// Defunct state machine and an in-use "agent" tag for pools.
type Connection struct {
	id        uuid.UUID
	addr      *address.Address
	transport transport.Transport
	proto     protocol.Protocol
	wire      *wire
	status    Status
	openedAt  time.Time

	agent   string // empty when the slot is free
	onError OnErrorFunc
	log     *boltlog.Logger
}

// Open dials addr, performs the handshake, and sends HELLO/INIT,
// leaving the Connection Ready on success.
func Open(ctx context.Context, addr *address.Address, opts OpenOptions) (*Connection, error) {
	logger := opts.Logger
	if logger == nil {
		logger = boltlog.Discard
	}
	maxMsg := opts.MaxMessageSize
	if maxMsg <= 0 {
		maxMsg = 1 << 30
	}
	prefs := opts.VersionPreferences
	if prefs == [4]int{} {
		prefs = protocol.DefaultVersionPreferences
	}

	t, err := opts.Dial(ctx, addr.String())
	if err != nil {
		return nil, err
	}
	c := &Connection{
		id:        uuid.New(),
		addr:      addr,
		transport: t,
		status:    Status{State: Disconnected},
		onError:   opts.OnError,
		log:       logger,
	}
	logger.Debugf("boltconn", "open", "connection %s dialing %s", c.id, addr)

	version, err := protocol.Handshake(handshakeRW{t}, prefs)
	if err != nil {
		c.fail(Disconnected, boltcodes.CodeOf(err), err)
		_ = t.Close()
		return nil, err
	}
	c.status.State = Connected
	boltmetrics.ConnectionsOpened.WithLabelValues(addr.String()).Inc()

	c.wire = newWire(t, nil, maxMsg)
	c.wire.bytesSent = func(n int) { boltmetrics.BytesSent.WithLabelValues(addr.String()).Add(float64(n)) }
	c.wire.bytesReceived = func(n int) { boltmetrics.BytesReceived.WithLabelValues(addr.String()).Add(float64(n)) }

	proto, err := protocol.NewProtocol(version, c.wire)
	if err != nil {
		c.fail(Defunct, boltcodes.ProtocolUnsupported, err)
		_ = t.Close()
		return nil, err
	}
	c.proto = proto
	c.wire.enc.Policy = proto
	c.wire.dec.Policy = proto

	c.openedAt = time.Now()
	if err := c.hello(ctx, opts.UserAgent, opts.AuthToken); err != nil {
		return nil, err
	}
	return c, nil
}

// handshakeRW adapts a transport.Transport to io.ReadWriter for
// protocol.Handshake, which runs before any chunking framer exists.
type handshakeRW struct {
	transport.Transport
}

func (c *Connection) hello(ctx context.Context, userAgent string, auth map[string]*value.Value) error {
	id, err := c.proto.Hello(ctx, userAgent, auth)
	if err != nil {
		c.fail(Defunct, boltcodes.CodeOf(err), err)
		return err
	}
	summary, err := c.proto.FetchSummary(ctx, id)
	if err != nil {
		c.fail(Defunct, boltcodes.CodeOf(err), err)
		return err
	}
	if summary.Kind != protocol.SummarySuccess {
		err := boltcodes.New(boltcodes.ServerFailure, "boltconn: HELLO/INIT failed")
		c.fail(Defunct, boltcodes.ServerFailure, err)
		return err
	}
	c.status.State = Ready
	return nil
}

// ID returns the connection's log-correlation identifier, generated once
// in Open and stable for the connection's lifetime.
func (c *Connection) ID() uuid.UUID { return c.id }

// State reports the connection's current state.
func (c *Connection) State() State { return c.status.State }

// Status returns a copy of the observable status record.
func (c *Connection) Status() Status { return c.status }

// Address returns the server address this connection is open to.
func (c *Connection) Address() *address.Address { return c.addr }

// Agent returns the pool-assigned in-use tag ("" when free).
func (c *Connection) Agent() string { return c.agent }

// SetAgent tags or clears the connection's in-use marker.
func (c *Connection) SetAgent(agent string) { c.agent = agent }

// OpenedAt returns when the connection completed its handshake+HELLO.
func (c *Connection) OpenedAt() time.Time { return c.openedAt }

// Bookmark/ResultFields/Server/FailureData surface SessionState fields
// the caller needs without exposing the protocol package directly.
func (c *Connection) Bookmark() string                      { return c.proto.State().Bookmark }
func (c *Connection) ResultFields() []string                { return c.proto.State().ResultFields }
func (c *Connection) Server() string                        { return c.proto.State().Server }
func (c *Connection) FailureData() map[string]*value.Value  { return c.proto.State().FailureData }

func (c *Connection) requireState(states ...State) error {
	for _, s := range states {
		if c.status.State == s {
			return nil
		}
	}
	return boltcodes.New(boltcodes.UnknownError, "boltconn: operation invalid in state "+c.status.State.String())
}

// fail transitions the connection and fires the error callback exactly
// once per transition into Failed/Defunct.
func (c *Connection) fail(state State, code boltcodes.Code, err error) {
	c.status.State = state
	c.status.Code = code
	if err != nil {
		c.status.Context = err.Error()
	}
	c.log.Errorf("boltconn", "state transition", "%s -> %v", c.addr, state)
	if (state == Failed || state == Defunct) && c.onError != nil {
		c.onError(c, err)
	}
}

// Run loads a RUN request; the caller must be Ready.
func (c *Connection) Run(ctx context.Context, cypher string, params map[string]*value.Value, meta protocol.TxMeta) (protocol.RequestID, error) {
	if err := c.requireState(Ready); err != nil {
		return 0, err
	}
	id, err := c.proto.Run(ctx, cypher, params, meta)
	return id, c.classify(err)
}

func (c *Connection) PullAll(ctx context.Context) (protocol.RequestID, error) {
	if err := c.requireState(Ready); err != nil {
		return 0, err
	}
	id, err := c.proto.PullAll(ctx)
	return id, c.classify(err)
}

func (c *Connection) DiscardAll(ctx context.Context) (protocol.RequestID, error) {
	if err := c.requireState(Ready); err != nil {
		return 0, err
	}
	id, err := c.proto.DiscardAll(ctx)
	return id, c.classify(err)
}

func (c *Connection) Begin(ctx context.Context, meta protocol.TxMeta) (protocol.RequestID, error) {
	if err := c.requireState(Ready); err != nil {
		return 0, err
	}
	id, err := c.proto.Begin(ctx, meta)
	return id, c.classify(err)
}

func (c *Connection) Commit(ctx context.Context) (protocol.RequestID, error) {
	if err := c.requireState(Ready); err != nil {
		return 0, err
	}
	id, err := c.proto.Commit(ctx)
	return id, c.classify(err)
}

func (c *Connection) Rollback(ctx context.Context) (protocol.RequestID, error) {
	if err := c.requireState(Ready); err != nil {
		return 0, err
	}
	id, err := c.proto.Rollback(ctx)
	return id, c.classify(err)
}

// Reset recovers a Failed connection back to Ready.
func (c *Connection) Reset(ctx context.Context) error {
	if err := c.requireState(Ready, Failed); err != nil {
		return err
	}
	id, err := c.proto.Reset(ctx)
	if err != nil {
		c.fail(Defunct, boltcodes.CodeOf(err), err)
		return err
	}
	summary, err := c.proto.FetchSummary(ctx, id)
	if err != nil {
		c.fail(Defunct, boltcodes.CodeOf(err), err)
		return err
	}
	if summary.Kind != protocol.SummarySuccess {
		err := boltcodes.New(boltcodes.ServerFailure, "boltconn: RESET failed")
		c.fail(Defunct, boltcodes.ServerFailure, err)
		return err
	}
	c.status.State = Ready
	c.status.Code = boltcodes.Success
	c.status.Context = ""
	return nil
}

// Fetch drives the fetch loop for request id target, classifying any
// summary it reaches per the state-transition table.
func (c *Connection) Fetch(ctx context.Context, target protocol.RequestID) (protocol.FetchOutcome, error) {
	outcome, err := c.proto.Fetch(ctx, target)
	if err != nil {
		c.fail(Defunct, boltcodes.ProtocolViolation, err)
		return outcome, err
	}
	if outcome.Kind == protocol.FetchSummaryReady {
		c.observeSummary(outcome.Summary.Kind)
	}
	return outcome, nil
}

// FetchSummary drives the fetch loop to target's own summary.
func (c *Connection) FetchSummary(ctx context.Context, target protocol.RequestID) (protocol.Summary, error) {
	summary, err := c.proto.FetchSummary(ctx, target)
	if err != nil {
		c.fail(Defunct, boltcodes.ProtocolViolation, err)
		return summary, err
	}
	c.observeSummary(summary.Kind)
	return summary, nil
}

func (c *Connection) observeSummary(kind protocol.SummaryKind) {
	switch kind {
	case protocol.SummaryFailure:
		c.fail(Failed, boltcodes.ServerFailure, boltcodes.New(boltcodes.ServerFailure, "boltconn: remote FAILURE"))
	case protocol.SummaryIgnored:
		// IGNORED without a prior reported FAILURE is still FAILURE-class,
		// per the spec's state table. The connection is not necessarily
		// Failed yet: a FAILURE for an earlier request folded in by the
		// fetch loop on the way to this summary is never observed here.
		if c.status.State != Failed {
			c.fail(Failed, boltcodes.ServerFailure, boltcodes.New(boltcodes.ServerFailure, "boltconn: remote IGNORED"))
		}
	}
}

func (c *Connection) classify(err error) error {
	if err != nil {
		c.fail(Defunct, boltcodes.CodeOf(err), err)
	}
	return err
}

// Goodbye is fire-and-forget; the caller still must Close the transport.
func (c *Connection) Goodbye(ctx context.Context) error {
	return c.proto.Goodbye(ctx)
}

// Close sends GOODBYE where supported and closes the transport,
// transitioning to Disconnected regardless of outcome.
func (c *Connection) Close(ctx context.Context) error {
	if c.status.State != Disconnected && c.status.State != Defunct {
		_ = c.proto.Goodbye(ctx)
	}
	err := c.transport.Close()
	reason := "explicit"
	if c.status.State == Defunct {
		reason = "defunct"
	} else if c.status.State == Failed {
		reason = "failed"
	}
	boltmetrics.ConnectionsClosed.WithLabelValues(c.addr.String(), reason).Inc()
	c.status.State = Disconnected
	return err
}
