package buffer_test

import (
	"bytes"
	"testing"

	"github.com/graphbolt/driver/buffer"
)

func TestScalarRoundTrip(t *testing.T) {
	t.Parallel()
	b := buffer.New(4)
	b.LoadUint8(0x7F)
	b.LoadUint16(0x1234)
	b.LoadUint32(0xCAFEBABE)
	b.LoadUint64(0x0123456789ABCDEF)

	if v, ok := b.UnloadUint8(); !ok || v != 0x7F {
		t.Fatalf("uint8 got %x ok=%v", v, ok)
	}
	if v, ok := b.UnloadUint16(); !ok || v != 0x1234 {
		t.Fatalf("uint16 got %x ok=%v", v, ok)
	}
	if v, ok := b.UnloadUint32(); !ok || v != 0xCAFEBABE {
		t.Fatalf("uint32 got %x ok=%v", v, ok)
	}
	if v, ok := b.UnloadUint64(); !ok || v != 0x0123456789ABCDEF {
		t.Fatalf("uint64 got %x ok=%v", v, ok)
	}
}

func TestUnloadFailsPastExtent(t *testing.T) {
	t.Parallel()
	b := buffer.New(1)
	b.LoadUint8(1)
	if _, ok := b.Unload(2); ok {
		t.Fatal("expected Unload past extent to fail")
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	t.Parallel()
	b := buffer.New(1)
	b.LoadUint8(0x42)
	v, ok := b.Peek()
	if !ok || v != 0x42 {
		t.Fatalf("got %x ok=%v", v, ok)
	}
	if b.Cursor() != 0 {
		t.Fatal("peek must not move the cursor")
	}
	if b.Len() != 1 {
		t.Fatal("peek must not consume")
	}
}

func TestCompactShiftsTailAndResetsCursor(t *testing.T) {
	t.Parallel()
	b := buffer.New(8)
	b.Append([]byte("hello world"))
	_, _ = b.Unload(6) // consume "hello "
	b.Compact()
	if b.Cursor() != 0 {
		t.Fatal("expected cursor reset to 0 after compact")
	}
	if !bytes.Equal(b.Bytes(), []byte("world")) {
		t.Fatalf("got %q", b.Bytes())
	}
}

func TestGrowsOnDemand(t *testing.T) {
	t.Parallel()
	b := buffer.New(1)
	big := bytes.Repeat([]byte{0xAB}, 1000)
	b.Append(big)
	if b.Len() != 1000 {
		t.Fatalf("expected 1000 bytes buffered, got %d", b.Len())
	}
	if !bytes.Equal(b.Bytes(), big) {
		t.Fatal("buffered content mismatch after growth")
	}
}
