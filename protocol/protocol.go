// Package protocol implements the Bolt session/transaction message
// catalogue and the fetch-loop algorithm on top of a Wire, version-gated
// for Bolt 1, 2 and 3.
package protocol

import (
	"context"

	"github.com/graphbolt/driver/value"
)

// RequestID is a strictly increasing identifier assigned to every
// message loaded into the outbound pipeline.
type RequestID uint64

// AccessMode distinguishes read from write transactions, carried as the
// v3 RUN/BEGIN metadata "mode" key (read sets it to "r"; write omits the
// key, the wire format's default).
type AccessMode int

const (
	ModeWrite AccessMode = iota
	ModeRead
)

// TxMeta carries the optional BEGIN/RUN transaction metadata fields.
type TxMeta struct {
	Bookmarks []string
	TxTimeout int64 // milliseconds; 0 means unset
	Metadata  map[string]*value.Value
	Mode      AccessMode
}

// SummaryKind classifies a summary response.
type SummaryKind int

const (
	SummarySuccess SummaryKind = iota
	SummaryFailure
	SummaryIgnored
)

func (k SummaryKind) String() string {
	switch k {
	case SummarySuccess:
		return "success"
	case SummaryFailure:
		return "failure"
	case SummaryIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Summary is a completed response: SUCCESS, FAILURE or IGNORED along
// with its metadata dictionary.
type Summary struct {
	Kind     SummaryKind
	Metadata map[string]*value.Value
}

// FetchKind distinguishes the two things Fetch can return.
type FetchKind int

const (
	FetchRecord FetchKind = iota
	FetchSummaryReady
)

// FetchOutcome is the result of one Fetch call.
type FetchOutcome struct {
	Kind    FetchKind
	Record  []value.Value
	Summary Summary
}

// Wire is the framed message transport a Protocol drives: it encodes a
// structure (tag + fields) as PackStream, hands it to the chunking
// framer and the underlying transport, and decodes inbound structures
// the same way. boltconn.Connection supplies the concrete implementation
// that actually owns a transport.Transport and a pair of buffer.Buffers;
// this package only depends on the narrow interface so it can be tested
// with an in-memory Wire.
type Wire interface {
	// SendStructure encodes tag+fields as a PackStream structure, frames
	// it, and flushes it to the peer.
	SendStructure(ctx context.Context, tag int8, fields []value.Value) error
	// ReceiveStructure reads and decodes the next framed structure.
	ReceiveStructure(ctx context.Context) (tag int8, fields []value.Value, err error)
}

// Protocol is the version-gated Bolt session/transaction message
// catalogue plus the fetch loop, per the state-transition table and
// metadata-merge rules.
type Protocol interface {
	Version() int

	Hello(ctx context.Context, userAgent string, auth map[string]*value.Value) (RequestID, error)
	Run(ctx context.Context, cypher string, params map[string]*value.Value, meta TxMeta) (RequestID, error)
	PullAll(ctx context.Context) (RequestID, error)
	DiscardAll(ctx context.Context) (RequestID, error)
	Begin(ctx context.Context, meta TxMeta) (RequestID, error)
	Commit(ctx context.Context) (RequestID, error)
	Rollback(ctx context.Context) (RequestID, error)
	Reset(ctx context.Context) (RequestID, error)
	Goodbye(ctx context.Context) error

	// Fetch drives the fetch loop until either a record belonging to
	// target becomes available or target's own summary is reached.
	Fetch(ctx context.Context, target RequestID) (FetchOutcome, error)
	// FetchSummary drives the fetch loop to target's summary, silently
	// discarding any records belonging to it.
	FetchSummary(ctx context.Context, target RequestID) (Summary, error)

	LastRequest() RequestID
	State() *SessionState
	LastSummaryKind() SummaryKind

	// Writable / Readable satisfy packstream.TagPolicy, gating which
	// structure tags this version may encode/decode.
	Writable(tag int8) bool
	Readable(tag int8) bool
}
