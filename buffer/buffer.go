// Package buffer implements an append-then-consume byte buffer with a
// read cursor and a written-bytes extent, used by the PackStream codec
// and the chunking framer as the staging area between Value trees and
// the wire.
package buffer

import "encoding/binary"

// Buffer is a growable byte buffer tracking three positions: extent (how
// much has been written), cursor (how much has been consumed), and the
// backing slice's capacity. It never shrinks implicitly.
type Buffer struct {
	data   []byte
	extent int
	cursor int
}

// New returns an empty Buffer with capacity hint n.
func New(n int) *Buffer {
	return &Buffer{data: make([]byte, n)}
}

// Len returns the number of unconsumed bytes (extent - cursor).
func (b *Buffer) Len() int { return b.extent - b.cursor }

// Extent returns the number of written bytes.
func (b *Buffer) Extent() int { return b.extent }

// Cursor returns the current read position.
func (b *Buffer) Cursor() int { return b.cursor }

// Bytes returns the unconsumed slice [cursor, extent). The slice aliases
// the Buffer's backing array and is invalidated by the next mutating
// call.
func (b *Buffer) Bytes() []byte { return b.data[b.cursor:b.extent] }

func (b *Buffer) grow(extra int) {
	need := b.extent + extra
	if need <= len(b.data) {
		return
	}
	newCap := len(b.data)*2 + 1
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, newCap)
	copy(grown, b.data[:b.extent])
	b.data = grown
}

// Append writes raw bytes to the buffer, growing capacity as needed.
func (b *Buffer) Append(p []byte) {
	b.grow(len(p))
	copy(b.data[b.extent:], p)
	b.extent += len(p)
}

// LoadUint8 appends a single byte.
func (b *Buffer) LoadUint8(v uint8) {
	b.grow(1)
	b.data[b.extent] = v
	b.extent++
}

// LoadUint16 appends a big-endian uint16.
func (b *Buffer) LoadUint16(v uint16) {
	b.grow(2)
	binary.BigEndian.PutUint16(b.data[b.extent:], v)
	b.extent += 2
}

// LoadUint32 appends a big-endian uint32.
func (b *Buffer) LoadUint32(v uint32) {
	b.grow(4)
	binary.BigEndian.PutUint32(b.data[b.extent:], v)
	b.extent += 4
}

// LoadUint64 appends a big-endian uint64.
func (b *Buffer) LoadUint64(v uint64) {
	b.grow(8)
	binary.BigEndian.PutUint64(b.data[b.extent:], v)
	b.extent += 8
}

// Unload consumes n bytes from the cursor and returns them. It fails if
// fewer than n bytes are available.
func (b *Buffer) Unload(n int) ([]byte, bool) {
	if b.cursor+n > b.extent {
		return nil, false
	}
	out := b.data[b.cursor : b.cursor+n]
	b.cursor += n
	return out, true
}

// UnloadUint8 consumes one byte.
func (b *Buffer) UnloadUint8() (uint8, bool) {
	p, ok := b.Unload(1)
	if !ok {
		return 0, false
	}
	return p[0], true
}

// UnloadUint16 consumes a big-endian uint16.
func (b *Buffer) UnloadUint16() (uint16, bool) {
	p, ok := b.Unload(2)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint16(p), true
}

// UnloadUint32 consumes a big-endian uint32.
func (b *Buffer) UnloadUint32() (uint32, bool) {
	p, ok := b.Unload(4)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(p), true
}

// UnloadUint64 consumes a big-endian uint64.
func (b *Buffer) UnloadUint64() (uint64, bool) {
	p, ok := b.Unload(8)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint64(p), true
}

// Peek returns the next unconsumed byte without advancing the cursor.
func (b *Buffer) Peek() (uint8, bool) {
	if b.cursor >= b.extent {
		return 0, false
	}
	return b.data[b.cursor], true
}

// Compact discards consumed bytes in [0, cursor), shifts the tail left,
// and resets cursor to 0.
func (b *Buffer) Compact() {
	if b.cursor == 0 {
		return
	}
	n := copy(b.data, b.data[b.cursor:b.extent])
	b.extent = n
	b.cursor = 0
}

// Reset discards all content, keeping the backing capacity.
func (b *Buffer) Reset() {
	b.extent = 0
	b.cursor = 0
}
