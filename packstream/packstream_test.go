package packstream_test

import (
	"bytes"
	"testing"

	"github.com/go-test/deep"

	"github.com/graphbolt/driver/buffer"
	"github.com/graphbolt/driver/packstream"
	"github.com/graphbolt/driver/value"
)

func encodeInt(t *testing.T, n int64) []byte {
	t.Helper()
	var v value.Value
	v.FormatInt(n)
	buf := buffer.New(16)
	if err := packstream.NewEncoder(nil).Encode(buf, &v); err != nil {
		t.Fatalf("encode %d: %v", n, err)
	}
	return append([]byte(nil), buf.Bytes()...)
}

// S3. Integer encoding widths, spec §8.
func TestIntegerEncodingWidths(t *testing.T) {
	t.Parallel()
	cases := []struct {
		n    int64
		want []byte
	}{
		{-16, []byte{0xF0}},
		{127, []byte{0x7F}},
		{128, []byte{0xC8, 0x80}},
		{200, []byte{0xC9, 0x00, 0xC8}},
		{70000, []byte{0xCA, 0x00, 0x01, 0x11, 0x70}},
		{1000000000, []byte{0xCB, 0x00, 0x00, 0x00, 0x00, 0x3B, 0x9A, 0xCA, 0x00}},
	}
	for _, c := range cases {
		got := encodeInt(t, c.n)
		if !bytes.Equal(got, c.want) {
			t.Errorf("encode(%d) = % X, want % X", c.n, got, c.want)
		}
	}
}

// S4. String "hello", spec §8.
func TestEncodeStringHello(t *testing.T) {
	t.Parallel()
	var v value.Value
	v.FormatString("hello")
	buf := buffer.New(16)
	if err := packstream.NewEncoder(nil).Encode(buf, &v); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x85, 0x68, 0x65, 0x6C, 0x6C, 0x6F}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % X, want % X", buf.Bytes(), want)
	}

	dec := packstream.NewDecoder(nil)
	out, err := dec.Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind() != value.KindString || out.Str() != "hello" {
		t.Fatalf("got kind=%v str=%q", out.Kind(), out.Str())
	}
}

// Property 1: round-trip, for a representative sample across every kind.
func TestRoundTrip(t *testing.T) {
	t.Parallel()

	build := func() value.Value {
		var dict value.Value
		dict.FormatDictionary(2)
		dict.DictionarySetKey(0, "name")
		dict.DictionaryValue(0).FormatString("Alice")
		dict.DictionarySetKey(1, "age")
		dict.DictionaryValue(1).FormatInt(30)

		var list value.Value
		list.FormatList(4)
		list.ListAt(0).FormatNull()
		list.ListAt(1).FormatBoolean(true)
		list.ListAt(2).FormatFloat(3.5)
		*list.ListAt(3) = dict

		var root value.Value
		root.FormatStructure(0x01, 2)
		root.StructureField(0).FormatBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
		*root.StructureField(1) = list
		return root
	}

	original := build()
	buf := buffer.New(64)
	enc := packstream.NewEncoder(packstream.AllowAll{})
	if err := enc.Encode(buf, &original); err != nil {
		t.Fatalf("encode: %v", err)
	}
	encodedBytes := append([]byte(nil), buf.Bytes()...)

	dec := packstream.NewDecoder(packstream.AllowAll{})
	decoded, err := dec.Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if diff := deep.Equal(decoded.Render(), original.Render()); diff != nil {
		t.Fatalf("decoded value differs from original: %v", diff)
	}
	if !decoded.Equal(&original) {
		t.Fatal("decoded value not structurally equal to original")
	}

	// encode(decode(x)) == x bytewise, per spec §4.3's round-trip law.
	reEncoded := buffer.New(64)
	if err := enc.Encode(reEncoded, &decoded); err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(reEncoded.Bytes(), encodedBytes) {
		t.Fatalf("re-encoded bytes differ: got % X, want % X", reEncoded.Bytes(), encodedBytes)
	}
}

// Property 2: encoding minimality across length escalation boundaries.
func TestContainerMinimality(t *testing.T) {
	t.Parallel()
	cases := []struct {
		n          int
		wantMarker byte
	}{
		{0, 0x90},
		{15, 0x9F},
		{16, packstream.MarkerList8},
		{255, packstream.MarkerList8},
		{256, packstream.MarkerList16},
		{65535, packstream.MarkerList16},
		{65536, packstream.MarkerList32},
	}
	for _, c := range cases {
		var v value.Value
		v.FormatList(c.n)
		for i := 0; i < c.n; i++ {
			v.ListAt(i).FormatNull()
		}
		buf := buffer.New(1)
		if err := packstream.NewEncoder(nil).Encode(buf, &v); err != nil {
			t.Fatalf("n=%d: %v", c.n, err)
		}
		marker, _ := buf.Peek()
		if marker != c.wantMarker {
			t.Errorf("n=%d: got marker %#x, want %#x", c.n, marker, c.wantMarker)
		}
	}
}

func TestDecodeNegativeLengthIsProtocolViolation(t *testing.T) {
	t.Parallel()
	buf := buffer.New(8)
	buf.LoadUint8(packstream.MarkerList32)
	buf.LoadUint32(0x80000000) // top bit set: negative as int32
	dec := packstream.NewDecoder(nil)
	if _, err := dec.Decode(buf); err == nil {
		t.Fatal("expected negative length to fail")
	}
}

func TestDecodeUnreadableStructureTag(t *testing.T) {
	t.Parallel()
	var v value.Value
	v.FormatStructure(0x7F, 0)
	buf := buffer.New(4)
	if err := packstream.NewEncoder(packstream.AllowAll{}).Encode(buf, &v); err != nil {
		t.Fatal(err)
	}
	dec := packstream.NewDecoder(denyAll{})
	if _, err := dec.Decode(buf); err == nil {
		t.Fatal("expected unreadable tag to fail")
	}
}

type denyAll struct{}

func (denyAll) Writable(int8) bool { return false }
func (denyAll) Readable(int8) bool { return false }

func TestEncodeUnwritableStructureTagFails(t *testing.T) {
	t.Parallel()
	var v value.Value
	v.FormatStructure(0x01, 0)
	buf := buffer.New(4)
	if err := packstream.NewEncoder(denyAll{}).Encode(buf, &v); err == nil {
		t.Fatal("expected unwritable tag to fail")
	}
}

func TestEncodeStructureOver15FieldsFails(t *testing.T) {
	t.Parallel()
	var v value.Value
	v.FormatStructure(0x01, 16)
	for i := range 16 {
		v.StructureField(i).FormatNull()
	}
	buf := buffer.New(4)
	if err := packstream.NewEncoder(packstream.AllowAll{}).Encode(buf, &v); err == nil {
		t.Fatal("expected structure with >15 fields to fail")
	}
}
