package packstream

import (
	"math"

	"github.com/graphbolt/driver/boltcodes"
	"github.com/graphbolt/driver/buffer"
	"github.com/graphbolt/driver/value"
)

// Encoder writes Value trees into a buffer.Buffer using the smallest
// PackStream encoding that fits, per spec §4.3's minimality contract.
type Encoder struct {
	Policy TagPolicy
}

// NewEncoder returns an Encoder gated by policy. A nil policy is treated
// as AllowAll.
func NewEncoder(policy TagPolicy) *Encoder {
	if policy == nil {
		policy = AllowAll{}
	}
	return &Encoder{Policy: policy}
}

// Encode writes v to buf.
func (e *Encoder) Encode(buf *buffer.Buffer, v *value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		buf.LoadUint8(MarkerNull)
		return nil
	case value.KindBoolean:
		if v.Boolean() {
			buf.LoadUint8(MarkerTrue)
		} else {
			buf.LoadUint8(MarkerFalse)
		}
		return nil
	case value.KindInteger:
		e.encodeInt(buf, v.Int())
		return nil
	case value.KindFloat:
		buf.LoadUint8(MarkerFloat64)
		buf.LoadUint64(math.Float64bits(v.Float()))
		return nil
	case value.KindString:
		e.encodeStringBytes(buf, []byte(v.Str()), true)
		return nil
	case value.KindBytes:
		e.encodeStringBytes(buf, v.Bytes(), false)
		return nil
	case value.KindList:
		return e.encodeList(buf, v)
	case value.KindDictionary:
		return e.encodeDictionary(buf, v)
	case value.KindStructure:
		return e.encodeStructure(buf, v)
	}
	return boltcodes.New(boltcodes.ProtocolUnsupportedType, "packstream: encode: unknown value kind")
}

// encodeInt chooses TinyInt in [-16,127], else the smallest signed width
// in {1,2,4,8} bytes, per spec §4.3 and Testable Property 2.
func (e *Encoder) encodeInt(buf *buffer.Buffer, n int64) {
	switch {
	case n >= -16 && n <= 127:
		buf.LoadUint8(uint8(int8(n)))
	case n >= math.MinInt8 && n <= math.MaxInt8:
		buf.LoadUint8(MarkerInt8)
		buf.LoadUint8(uint8(int8(n)))
	case n >= math.MinInt16 && n <= math.MaxInt16:
		buf.LoadUint8(MarkerInt16)
		buf.LoadUint16(uint16(int16(n)))
	case n >= math.MinInt32 && n <= math.MaxInt32:
		buf.LoadUint8(MarkerInt32)
		buf.LoadUint32(uint32(int32(n)))
	default:
		buf.LoadUint8(MarkerInt64)
		buf.LoadUint64(uint64(n))
	}
}

// encodeStringBytes handles both String and Bytes families, which share
// the same size-escalation shape but different marker bytes and tiny
// thresholds (strings/lists/maps: tiny below 16; bytes: tiny-less, u8
// below 256).
func (e *Encoder) encodeStringBytes(buf *buffer.Buffer, p []byte, isString bool) {
	n := len(p)
	if isString {
		if n < 16 {
			buf.LoadUint8(byte(markerTinyStringMin + n))
		} else if n < 256 {
			buf.LoadUint8(MarkerString8)
			buf.LoadUint8(uint8(n))
		} else if n <= math.MaxUint16 {
			buf.LoadUint8(MarkerString16)
			buf.LoadUint16(uint16(n))
		} else {
			buf.LoadUint8(MarkerString32)
			buf.LoadUint32(uint32(n))
		}
	} else {
		if n < 256 {
			buf.LoadUint8(MarkerBytes8)
			buf.LoadUint8(uint8(n))
		} else if n <= math.MaxUint16 {
			buf.LoadUint8(MarkerBytes16)
			buf.LoadUint16(uint16(n))
		} else {
			buf.LoadUint8(MarkerBytes32)
			buf.LoadUint32(uint32(n))
		}
	}
	buf.Append(p)
}

func (e *Encoder) encodeList(buf *buffer.Buffer, v *value.Value) error {
	n := v.Size()
	e.encodeContainerHeader(buf, n, markerTinyListMin, MarkerList8, MarkerList16, MarkerList32)
	for i := 0; i < n; i++ {
		if err := e.Encode(buf, v.ListAt(i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeDictionary(buf *buffer.Buffer, v *value.Value) error {
	n := v.Size()
	e.encodeContainerHeader(buf, n, markerTinyMapMin, MarkerMap8, MarkerMap16, MarkerMap32)
	for i := 0; i < n; i++ {
		key := v.DictionaryKey(i)
		e.encodeStringBytes(buf, []byte(key), true)
		if err := e.Encode(buf, v.DictionaryValue(i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeContainerHeader(buf *buffer.Buffer, n int, tinyBase byte, m8, m16, m32 byte) {
	switch {
	case n < 16:
		buf.LoadUint8(byte(tinyBase + byte(n)))
	case n < 256:
		buf.LoadUint8(m8)
		buf.LoadUint8(uint8(n))
	case n <= math.MaxUint16:
		buf.LoadUint8(m16)
		buf.LoadUint16(uint16(n))
	default:
		buf.LoadUint8(m32)
		buf.LoadUint32(uint32(n))
	}
}

func (e *Encoder) encodeStructure(buf *buffer.Buffer, v *value.Value) error {
	tag := v.StructureTag()
	if !e.Policy.Writable(tag) {
		return boltcodes.New(boltcodes.ProtocolViolation, "packstream: encode: structure tag not writable for this protocol version")
	}
	n := v.Size()
	if n > 15 {
		return boltcodes.New(boltcodes.ProtocolViolation, "packstream: encode: structure size exceeds 15 fields")
	}
	buf.LoadUint8(byte(markerTinyStructMin + n))
	buf.LoadUint8(uint8(tag))
	for i := 0; i < n; i++ {
		if err := e.Encode(buf, v.StructureField(i)); err != nil {
			return err
		}
	}
	return nil
}
