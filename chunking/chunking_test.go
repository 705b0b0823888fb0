package chunking_test

import (
	"bytes"
	"testing"

	"github.com/graphbolt/driver/chunking"
)

// Property 3: for every byte sequence M with 0 <= |M| <= 10*65535,
// dechunk(chunk(M)) == M, and chunk(M) ends with 00 00.
func TestFramerRoundTrip(t *testing.T) {
	t.Parallel()
	sizes := []int{0, 1, 65535, 65536, 10 * 65535}
	for _, size := range sizes {
		msg := bytes.Repeat([]byte{0xAB}, size)

		var buf bytes.Buffer
		if err := chunking.Write(&buf, msg); err != nil {
			t.Fatalf("size=%d: write: %v", size, err)
		}

		encoded := buf.Bytes()
		if len(encoded) < 2 || encoded[len(encoded)-2] != 0 || encoded[len(encoded)-1] != 0 {
			t.Fatalf("size=%d: expected terminator 00 00, got tail % X", size, encoded[max(0, len(encoded)-2):])
		}

		got, err := chunking.NewReader(bytes.NewReader(encoded)).ReadMessage()
		if err != nil {
			t.Fatalf("size=%d: read: %v", size, err)
		}
		if !bytes.Equal(got, msg) {
			t.Fatalf("size=%d: round trip mismatch (got %d bytes, want %d)", size, len(got), len(msg))
		}
	}
}

func TestWriteChunksAtBoundary(t *testing.T) {
	t.Parallel()
	msg := bytes.Repeat([]byte{0x01}, chunking.MaxChunkSize+10)
	var buf bytes.Buffer
	if err := chunking.Write(&buf, msg); err != nil {
		t.Fatal(err)
	}
	// Expect: 2-byte header(FFFF) + 65535 bytes + 2-byte header(000A) + 10 bytes + 2-byte terminator.
	want := 2 + chunking.MaxChunkSize + 2 + 10 + 2
	if buf.Len() != want {
		t.Fatalf("got %d bytes on the wire, want %d", buf.Len(), want)
	}
}

func TestReadMessageRejectsOversizedReassembly(t *testing.T) {
	t.Parallel()
	msg := bytes.Repeat([]byte{0x01}, 100)
	var buf bytes.Buffer
	if err := chunking.Write(&buf, msg); err != nil {
		t.Fatal(err)
	}
	reader := chunking.NewReader(bytes.NewReader(buf.Bytes())).WithMaxMessageSize(10)
	if _, err := reader.ReadMessage(); err == nil {
		t.Fatal("expected oversized message to be rejected")
	}
}
