package protocol

import (
	"context"

	"github.com/graphbolt/driver/value"
)

// legacy implements the Bolt 1/2 message catalogue: INIT in place of
// HELLO, no BEGIN/COMMIT/ROLLBACK/GOODBYE opcodes, and a two-field RUN
// (no v3 metadata argument). V1 and V2 embed it unchanged — the spec's
// message catalogue does not distinguish them beyond protocol version
// number, which governs handshake negotiation (Handshake), not message
// shape.
type legacy struct {
	base
}

func newLegacy(wire Wire, version int) legacy {
	return legacy{base: newBase(wire, version)}
}

func (l *legacy) Hello(ctx context.Context, userAgent string, auth map[string]*value.Value) (RequestID, error) {
	dict := authDict(userAgent, auth)
	return l.send(ctx, TagHello, []value.Value{dict})
}

func (l *legacy) runInternal(ctx context.Context, cypher string, params map[string]*value.Value) (RequestID, error) {
	p := mapToDict(params)
	var c value.Value
	c.FormatString(cypher)
	return l.send(ctx, TagRun, []value.Value{c, p})
}

func (l *legacy) Run(ctx context.Context, cypher string, params map[string]*value.Value, _ TxMeta) (RequestID, error) {
	return l.runInternal(ctx, cypher, params)
}

func (l *legacy) PullAll(ctx context.Context) (RequestID, error) {
	return l.send(ctx, TagPullAll, nil)
}

func (l *legacy) DiscardAll(ctx context.Context) (RequestID, error) {
	return l.send(ctx, TagDiscardAll, nil)
}

// Begin/Commit/Rollback are synthesized as RUN("BEGIN"/"COMMIT"/"ROLLBACK",
// {}) followed by DISCARD_ALL, since neither statement returns rows. The
// id returned is DISCARD_ALL's: fetching its summary necessarily folds
// the RUN summary's metadata in on the way, since the fetch loop counts
// every summary in receive order regardless of which id the caller asked
// for.
func (l *legacy) txBoundary(ctx context.Context, keyword string) (RequestID, error) {
	if _, err := l.runInternal(ctx, keyword, map[string]*value.Value{}); err != nil {
		return 0, err
	}
	return l.DiscardAll(ctx)
}

func (l *legacy) Begin(ctx context.Context, _ TxMeta) (RequestID, error) {
	return l.txBoundary(ctx, "BEGIN")
}

func (l *legacy) Commit(ctx context.Context) (RequestID, error) {
	return l.txBoundary(ctx, "COMMIT")
}

func (l *legacy) Rollback(ctx context.Context) (RequestID, error) {
	return l.txBoundary(ctx, "ROLLBACK")
}

func (l *legacy) Reset(ctx context.Context) (RequestID, error) {
	id, err := l.send(ctx, TagReset, nil)
	if err == nil {
		l.session.reset()
	}
	return id, err
}

// Goodbye has no wire opcode in v1/v2; the caller closes the transport
// directly.
func (l *legacy) Goodbye(context.Context) error { return nil }

func (l *legacy) Writable(tag int8) bool {
	switch tag {
	case TagHello, TagRun, TagDiscardAll, TagPullAll, TagReset:
		return true
	default:
		return false
	}
}

func (l *legacy) Readable(tag int8) bool {
	switch tag {
	case TagSuccess, TagRecord, TagIgnored, TagFailure:
		return true
	default:
		return false
	}
}

func authDict(userAgent string, auth map[string]*value.Value) value.Value {
	merged := make(map[string]*value.Value, len(auth)+1)
	for k, v := range auth {
		merged[k] = v
	}
	var ua value.Value
	ua.FormatString(userAgent)
	merged["user_agent"] = &ua
	return mapToDict(merged)
}
