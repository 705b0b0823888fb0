package packstream

import (
	"math"

	"github.com/graphbolt/driver/boltcodes"
	"github.com/graphbolt/driver/buffer"
	"github.com/graphbolt/driver/value"
)

// Decoder reads Value trees out of a buffer.Buffer by dispatching on the
// marker byte, per spec §4.3.
type Decoder struct {
	Policy TagPolicy
}

// NewDecoder returns a Decoder gated by policy. A nil policy is treated
// as AllowAll.
func NewDecoder(policy TagPolicy) *Decoder {
	if policy == nil {
		policy = AllowAll{}
	}
	return &Decoder{Policy: policy}
}

func unexpected(context string) error {
	return boltcodes.New(boltcodes.ProtocolViolation, "packstream: decode: "+context)
}

// Decode reads exactly one value from buf.
func (d *Decoder) Decode(buf *buffer.Buffer) (value.Value, error) {
	var out value.Value
	marker, ok := buf.UnloadUint8()
	if !ok {
		return out, unexpected("unexpected end of buffer reading marker")
	}
	return d.decodeMarker(buf, marker)
}

func (d *Decoder) decodeMarker(buf *buffer.Buffer, marker byte) (value.Value, error) {
	var out value.Value

	switch {
	case marker <= markerTinyIntMax:
		out.FormatInt(int64(int8(marker)))
		return out, nil
	case marker >= markerTinyIntMin:
		out.FormatInt(int64(int8(marker)))
		return out, nil
	case marker == MarkerNull:
		out.FormatNull()
		return out, nil
	case marker == MarkerFalse:
		out.FormatBoolean(false)
		return out, nil
	case marker == MarkerTrue:
		out.FormatBoolean(true)
		return out, nil
	case marker == MarkerFloat64:
		bits, ok := buf.UnloadUint64()
		if !ok {
			return out, unexpected("truncated float64")
		}
		out.FormatFloat(math.Float64frombits(bits))
		return out, nil
	case marker == MarkerInt8:
		b, ok := buf.UnloadUint8()
		if !ok {
			return out, unexpected("truncated int8")
		}
		out.FormatInt(int64(int8(b)))
		return out, nil
	case marker == MarkerInt16:
		b, ok := buf.UnloadUint16()
		if !ok {
			return out, unexpected("truncated int16")
		}
		out.FormatInt(int64(int16(b)))
		return out, nil
	case marker == MarkerInt32:
		b, ok := buf.UnloadUint32()
		if !ok {
			return out, unexpected("truncated int32")
		}
		out.FormatInt(int64(int32(b)))
		return out, nil
	case marker == MarkerInt64:
		b, ok := buf.UnloadUint64()
		if !ok {
			return out, unexpected("truncated int64")
		}
		out.FormatInt(int64(b))
		return out, nil
	case marker == MarkerBytes8, marker == MarkerBytes16, marker == MarkerBytes32:
		n, err := d.decodeLength(buf, marker, MarkerBytes8, MarkerBytes16, MarkerBytes32)
		if err != nil {
			return out, err
		}
		p, ok := buf.Unload(n)
		if !ok {
			return out, unexpected("truncated bytes payload")
		}
		out.FormatBytes(append([]byte(nil), p...))
		return out, nil
	case marker >= markerTinyStringMin && marker <= markerTinyStringMax:
		return d.decodeString(buf, int(marker-markerTinyStringMin))
	case marker == MarkerString8, marker == MarkerString16, marker == MarkerString32:
		n, err := d.decodeLength(buf, marker, MarkerString8, MarkerString16, MarkerString32)
		if err != nil {
			return out, err
		}
		return d.decodeString(buf, n)
	case marker >= markerTinyListMin && marker <= markerTinyListMax:
		return d.decodeList(buf, int(marker-markerTinyListMin))
	case marker == MarkerList8, marker == MarkerList16, marker == MarkerList32:
		n, err := d.decodeLength(buf, marker, MarkerList8, MarkerList16, MarkerList32)
		if err != nil {
			return out, err
		}
		return d.decodeList(buf, n)
	case marker >= markerTinyMapMin && marker <= markerTinyMapMax:
		return d.decodeMap(buf, int(marker-markerTinyMapMin))
	case marker == MarkerMap8, marker == MarkerMap16, marker == MarkerMap32:
		n, err := d.decodeLength(buf, marker, MarkerMap8, MarkerMap16, MarkerMap32)
		if err != nil {
			return out, err
		}
		return d.decodeMap(buf, n)
	case marker >= markerTinyStructMin && marker <= markerTinyStructMax:
		return d.decodeStructure(buf, int(marker-markerTinyStructMin))
	}

	return out, unexpected("unrecognized marker byte")
}

// decodeLength reads the explicit length following an 8/16/32-bit-width
// marker.
func (d *Decoder) decodeLength(buf *buffer.Buffer, marker, m8, m16, m32 byte) (int, error) {
	switch marker {
	case m8:
		n, ok := buf.UnloadUint8()
		if !ok {
			return 0, unexpected("truncated 8-bit length")
		}
		return int(n), nil
	case m16:
		n, ok := buf.UnloadUint16()
		if !ok {
			return 0, unexpected("truncated 16-bit length")
		}
		return int(n), nil
	case m32:
		n, ok := buf.UnloadUint32()
		if !ok {
			return 0, unexpected("truncated 32-bit length")
		}
		if int32(n) < 0 {
			return 0, unexpected("negative length")
		}
		return int(n), nil
	}
	return 0, unexpected("unreachable length marker")
}

func (d *Decoder) decodeString(buf *buffer.Buffer, n int) (value.Value, error) {
	var out value.Value
	if n < 0 {
		return out, unexpected("negative string length")
	}
	p, ok := buf.Unload(n)
	if !ok {
		return out, unexpected("truncated string payload")
	}
	out.FormatString(string(p))
	return out, nil
}

func (d *Decoder) decodeList(buf *buffer.Buffer, n int) (value.Value, error) {
	var out value.Value
	if n < 0 {
		return out, unexpected("negative list length")
	}
	out.FormatList(n)
	for i := 0; i < n; i++ {
		elem, err := d.Decode(buf)
		if err != nil {
			return out, err
		}
		*out.ListAt(i) = elem
	}
	return out, nil
}

func (d *Decoder) decodeMap(buf *buffer.Buffer, n int) (value.Value, error) {
	var out value.Value
	if n < 0 {
		return out, unexpected("negative map length")
	}
	out.FormatDictionary(n)
	for i := 0; i < n; i++ {
		key, err := d.Decode(buf)
		if err != nil {
			return out, err
		}
		if key.Kind() != value.KindString {
			return out, unexpected("map key is not a string")
		}
		out.DictionarySetKey(i, key.Str())
		val, err := d.Decode(buf)
		if err != nil {
			return out, err
		}
		*out.DictionaryValue(i) = val
	}
	return out, nil
}

func (d *Decoder) decodeStructure(buf *buffer.Buffer, n int) (value.Value, error) {
	var out value.Value
	tagByte, ok := buf.UnloadUint8()
	if !ok {
		return out, unexpected("truncated structure tag")
	}
	tag := int8(tagByte)
	if !d.Policy.Readable(tag) {
		return out, unexpected("unexpected marker: structure tag not readable for this protocol version")
	}
	out.FormatStructure(tag, n)
	for i := 0; i < n; i++ {
		field, err := d.Decode(buf)
		if err != nil {
			return out, err
		}
		*out.StructureField(i) = field
	}
	return out, nil
}
