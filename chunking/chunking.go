// Package chunking implements the Bolt chunked-message framing described
// in spec §4.4: a message is split into ≤65535-byte chunks, each prefixed
// by a 2-byte big-endian length, terminated by a zero-length chunk.
package chunking

import (
	"encoding/binary"
	"io"

	"github.com/graphbolt/driver/boltcodes"
)

// MaxChunkSize is the largest payload a single chunk may carry; imposed
// by the 2-byte length prefix.
const MaxChunkSize = 0xFFFF

// DefaultMaxMessageSize caps the total reassembled message size. Spec §9
// leaves this as an open question for implementers; 1 GiB is the chosen
// safety cap (see SPEC_FULL.md §9).
const DefaultMaxMessageSize = 1 << 30

// Write splits message into ≤MaxChunkSize chunks and appends them,
// header-then-payload, to w, followed by a zero-length terminator chunk.
// Per spec §4.4's send path, a message of length L produces
// ceil(L/65535) data chunks plus the terminator.
func Write(w io.Writer, message []byte) error {
	var hdr [2]byte
	remaining := message
	for len(remaining) > 0 {
		n := len(remaining)
		if n > MaxChunkSize {
			n = MaxChunkSize
		}
		binary.BigEndian.PutUint16(hdr[:], uint16(n))
		if _, err := w.Write(hdr[:]); err != nil {
			return boltcodes.Wrap(boltcodes.ConnectionReset, "chunking: write chunk header", err)
		}
		if _, err := w.Write(remaining[:n]); err != nil {
			return boltcodes.Wrap(boltcodes.ConnectionReset, "chunking: write chunk payload", err)
		}
		remaining = remaining[n:]
	}
	binary.BigEndian.PutUint16(hdr[:], 0)
	if _, err := w.Write(hdr[:]); err != nil {
		return boltcodes.Wrap(boltcodes.ConnectionReset, "chunking: write terminator", err)
	}
	return nil
}

// Reader reassembles chunked messages read from an io.Reader.
type Reader struct {
	r              io.Reader
	maxMessageSize int
}

// NewReader returns a Reader with the default maximum message size.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, maxMessageSize: DefaultMaxMessageSize}
}

// WithMaxMessageSize overrides the reassembly cap (spec §9 open question).
func (rd *Reader) WithMaxMessageSize(n int) *Reader {
	rd.maxMessageSize = n
	return rd
}

// ReadMessage reads chunks until the zero-length terminator and returns
// the reassembled payload, per spec §4.4's receive path.
func (rd *Reader) ReadMessage() ([]byte, error) {
	var hdr [2]byte
	var out []byte
	for {
		if _, err := io.ReadFull(rd.r, hdr[:]); err != nil {
			return nil, boltcodes.Wrap(boltcodes.ConnectionReset, "chunking: read chunk header", err)
		}
		n := binary.BigEndian.Uint16(hdr[:])
		if n == 0 {
			return out, nil
		}
		if len(out)+int(n) > rd.maxMessageSize {
			return nil, boltcodes.New(boltcodes.ProtocolViolation, "chunking: reassembled message exceeds maximum size")
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(rd.r, chunk); err != nil {
			return nil, boltcodes.Wrap(boltcodes.ConnectionReset, "chunking: read chunk payload", err)
		}
		out = append(out, chunk...)
	}
}
