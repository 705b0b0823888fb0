package protocol

import (
	"context"

	"github.com/graphbolt/driver/value"
)

// V3 implements the Bolt 3 message catalogue: HELLO, first-class
// BEGIN/COMMIT/ROLLBACK/GOODBYE, and transaction metadata on RUN/BEGIN.
type V3 struct {
	base
}

// NewV3 returns a Bolt 3 Protocol driving wire.
func NewV3(wire Wire) *V3 {
	return &V3{base: newBase(wire, 3)}
}

func (p *V3) Hello(ctx context.Context, userAgent string, auth map[string]*value.Value) (RequestID, error) {
	dict := authDict(userAgent, auth)
	return p.send(ctx, TagHello, []value.Value{dict})
}

func txMetaDict(meta TxMeta) value.Value {
	fields := make(map[string]*value.Value, 3)
	if len(meta.Bookmarks) > 0 {
		bm := stringListValue(meta.Bookmarks)
		fields["bookmarks"] = &bm
	}
	if meta.TxTimeout > 0 {
		var t value.Value
		t.FormatInt(meta.TxTimeout)
		fields["tx_timeout"] = &t
	}
	if len(meta.Metadata) > 0 {
		tm := mapToDict(meta.Metadata)
		fields["tx_metadata"] = &tm
	}
	if meta.Mode == ModeRead {
		var m value.Value
		m.FormatString("r")
		fields["mode"] = &m
	}
	return mapToDict(fields)
}

func (p *V3) Run(ctx context.Context, cypher string, params map[string]*value.Value, meta TxMeta) (RequestID, error) {
	var c value.Value
	c.FormatString(cypher)
	paramsDict := mapToDict(params)
	metaDict := txMetaDict(meta)
	return p.send(ctx, TagRun, []value.Value{c, paramsDict, metaDict})
}

func (p *V3) PullAll(ctx context.Context) (RequestID, error) {
	return p.send(ctx, TagPullAll, nil)
}

func (p *V3) DiscardAll(ctx context.Context) (RequestID, error) {
	return p.send(ctx, TagDiscardAll, nil)
}

func (p *V3) Begin(ctx context.Context, meta TxMeta) (RequestID, error) {
	dict := txMetaDict(meta)
	return p.send(ctx, TagBegin, []value.Value{dict})
}

func (p *V3) Commit(ctx context.Context) (RequestID, error) {
	return p.send(ctx, TagCommit, nil)
}

func (p *V3) Rollback(ctx context.Context) (RequestID, error) {
	return p.send(ctx, TagRollback, nil)
}

func (p *V3) Reset(ctx context.Context) (RequestID, error) {
	id, err := p.send(ctx, TagReset, nil)
	if err == nil {
		p.session.reset()
	}
	return id, err
}

// Goodbye is fire-and-forget: no reply is awaited, the server closes.
func (p *V3) Goodbye(ctx context.Context) error {
	return p.wire.SendStructure(ctx, TagGoodbye, nil)
}

func (p *V3) Writable(tag int8) bool {
	switch tag {
	case TagHello, TagGoodbye, TagRun, TagBegin, TagCommit, TagRollback, TagDiscardAll, TagPullAll, TagReset:
		return true
	default:
		return false
	}
}

func (p *V3) Readable(tag int8) bool {
	switch tag {
	case TagSuccess, TagRecord, TagIgnored, TagFailure:
		return true
	default:
		return false
	}
}
