package protocol

import (
	"context"

	"github.com/graphbolt/driver/boltcodes"
	"github.com/graphbolt/driver/value"
)

// base implements the request-id bookkeeping, the fetch loop, and
// metadata merge shared by every Bolt version; V1/V2/V3 embed it and
// add their own message-building quirks.
type base struct {
	wire            Wire
	version         int
	session         *SessionState
	lastRequest     RequestID
	responseCounter RequestID
	lastSummary     SummaryKind
}

func newBase(wire Wire, version int) base {
	return base{wire: wire, version: version, session: newSessionState()}
}

func (b *base) Version() int          { return b.version }
func (b *base) LastRequest() RequestID { return b.lastRequest }
func (b *base) State() *SessionState   { return b.session }

// LastSummaryKind reports the most recent summary classification seen by
// Fetch, including summaries folded in on the way to a later target.
func (b *base) LastSummaryKind() SummaryKind { return b.lastSummary }

// send encodes and flushes one structure, assigning it the next request
// id in the pipeline.
func (b *base) send(ctx context.Context, tag int8, fields []value.Value) (RequestID, error) {
	if err := b.wire.SendStructure(ctx, tag, fields); err != nil {
		return 0, err
	}
	b.lastRequest++
	return b.lastRequest, nil
}

// Fetch drives the central fetch-loop algorithm: read one framed
// message, classify it as RECORD or summary, and either surface a
// record belonging to target or fold the summary into session state
// and keep looping until the response counter reaches target.
func (b *base) Fetch(ctx context.Context, target RequestID) (FetchOutcome, error) {
	for {
		tag, fields, err := b.wire.ReceiveStructure(ctx)
		if err != nil {
			return FetchOutcome{}, err
		}

		if tag == TagRecord {
			if b.responseCounter == target-1 {
				return FetchOutcome{Kind: FetchRecord, Record: fields}, nil
			}
			continue
		}

		if !isSummaryTag(tag) {
			return FetchOutcome{}, boltcodes.New(boltcodes.ProtocolViolation, "protocol: unexpected structure tag in response stream")
		}

		kind := summaryKindForTag(tag)
		var metaDict *value.Value
		if len(fields) > 0 {
			metaDict = &fields[0]
		}
		meta := dictToMap(metaDict)
		b.session.merge(kind, meta)
		b.responseCounter++
		b.lastSummary = kind

		if b.responseCounter == target {
			return FetchOutcome{Kind: FetchSummaryReady, Summary: Summary{Kind: kind, Metadata: meta}}, nil
		}
	}
}

// FetchSummary drives Fetch to target's own summary, discarding any
// records belonging to it along the way.
func (b *base) FetchSummary(ctx context.Context, target RequestID) (Summary, error) {
	for {
		outcome, err := b.Fetch(ctx, target)
		if err != nil {
			return Summary{}, err
		}
		if outcome.Kind == FetchSummaryReady {
			return outcome.Summary, nil
		}
	}
}
