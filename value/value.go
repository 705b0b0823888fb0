// Package value implements the in-memory typed Value tree that the
// PackStream codec encodes and decodes: a tagged union over Null,
// Boolean, Integer, Float, String, Bytes, List, Dictionary, and
// Structure. Values own their children; copies are deep.
package value

import (
	"fmt"
	"strings"
)

// Kind identifies which field of a Value is live.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindString
	KindBytes
	KindList
	KindDictionary
	KindStructure
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindDictionary:
		return "dictionary"
	case KindStructure:
		return "structure"
	}
	return "unknown"
}

// Value is a tagged union over the PackStream value space. Only the
// field matching Kind is meaningful; the rest are zero.
//
// Dictionary keys and values live in parallel slices (dictKeys[i] maps to
// dictVals[i]) rather than the original's inline alternating-slot layout
// — an ordered-pair-of-slices representation has the same observable
// shape (insertion-ordered, not required unique by the codec) without the
// manual-allocator bookkeeping the inline form existed for.
type Value struct {
	kind Kind

	i64 int64
	f64 float64
	b   bool
	str string
	raw []byte

	list []Value

	dictKeys []string
	dictVals []Value

	structTag    int8
	structFields []Value
}

// Null constructs a Null value. The zero Value is already Null, so Null()
// exists mainly for readability at call sites.
func Null() Value { return Value{kind: KindNull} }

// Kind reports which variant is live.
func (v *Value) Kind() Kind { return v.kind }

// reset releases everything the value owned before a reformat, honoring
// the "format-as-T recycles previously owned children" invariant.
func (v *Value) reset() {
	v.i64 = 0
	v.f64 = 0
	v.b = false
	v.str = ""
	v.raw = nil
	v.list = nil
	v.dictKeys = nil
	v.dictVals = nil
	v.structTag = 0
	v.structFields = nil
}

// FormatNull turns v into Null, releasing any owned children.
func (v *Value) FormatNull() {
	v.reset()
	v.kind = KindNull
}

// FormatBoolean turns v into a Boolean.
func (v *Value) FormatBoolean(b bool) {
	v.reset()
	v.kind = KindBoolean
	v.b = b
}

// FormatInt turns v into an Integer.
func (v *Value) FormatInt(n int64) {
	v.reset()
	v.kind = KindInteger
	v.i64 = n
}

// FormatFloat turns v into a Float.
func (v *Value) FormatFloat(f float64) {
	v.reset()
	v.kind = KindFloat
	v.f64 = f
}

// FormatString turns v into a String.
func (v *Value) FormatString(s string) {
	v.reset()
	v.kind = KindString
	v.str = s
}

// FormatBytes turns v into a Bytes value. The slice is retained, not
// copied; callers that mutate it afterward must copy first.
func (v *Value) FormatBytes(b []byte) {
	v.reset()
	v.kind = KindBytes
	v.raw = b
}

// FormatList turns v into a List of n Null elements. Use ListAt to
// populate elements and Resize to grow or shrink afterward.
func (v *Value) FormatList(n int) {
	v.reset()
	v.kind = KindList
	v.list = make([]Value, n)
}

// FormatDictionary turns v into a Dictionary with n (key, value) slots,
// keys initially empty and values Null.
func (v *Value) FormatDictionary(n int) {
	v.reset()
	v.kind = KindDictionary
	v.dictKeys = make([]string, n)
	v.dictVals = make([]Value, n)
}

// FormatStructure turns v into a Structure with the given tag and n
// ordered fields, each initially Null.
func (v *Value) FormatStructure(tag int8, n int) {
	v.reset()
	v.kind = KindStructure
	v.structTag = tag
	v.structFields = make([]Value, n)
}

// --- scalar reads ---

// Boolean returns the boolean payload; valid only when Kind == KindBoolean.
func (v *Value) Boolean() bool { return v.b }

// Int returns the integer payload; valid only when Kind == KindInteger.
func (v *Value) Int() int64 { return v.i64 }

// Float returns the float payload; valid only when Kind == KindFloat.
func (v *Value) Float() float64 { return v.f64 }

// Str returns the string payload; valid only when Kind == KindString.
func (v *Value) Str() string { return v.str }

// String implements fmt.Stringer via Render, so a Value prints sensibly
// in %v/%s formatting and log lines.
func (v *Value) String() string { return v.Render() }

// Bytes returns the bytes payload; valid only when Kind == KindBytes.
func (v *Value) Bytes() []byte { return v.raw }

// --- list ---

// Size returns the logical element/field/pair count for List, Dictionary,
// and Structure values (0 for scalars).
func (v *Value) Size() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindDictionary:
		return len(v.dictKeys)
	case KindStructure:
		return len(v.structFields)
	}
	return 0
}

// ListAt returns a pointer to the element at i for in-place mutation.
func (v *Value) ListAt(i int) *Value { return &v.list[i] }

// Resize grows or shrinks a List in place. Shrinking releases the
// truncated tail (by simply dropping the backing slots — Go's GC reclaims
// them, which is the ownership-respecting analogue of the original's
// explicit release-in-order loop).
func (v *Value) Resize(n int) {
	if n <= len(v.list) {
		v.list = v.list[:n]
		return
	}
	grown := make([]Value, n)
	copy(grown, v.list)
	v.list = grown
}

// --- dictionary ---

// DictionarySetKey sets the key at slot i without touching its value or
// resizing the map, per the §4.1 invariant.
func (v *Value) DictionarySetKey(i int, key string) { v.dictKeys[i] = key }

// DictionaryKey returns the key at slot i.
func (v *Value) DictionaryKey(i int) string { return v.dictKeys[i] }

// DictionaryValue returns a pointer to the value at slot i.
func (v *Value) DictionaryValue(i int) *Value { return &v.dictVals[i] }

// DictionaryLookup returns the value for key and whether it was found.
// Insertion order is preserved; the first matching slot wins, matching
// the codec's "keys not required unique" contract.
func (v *Value) DictionaryLookup(key string) (*Value, bool) {
	for i, k := range v.dictKeys {
		if k == key {
			return &v.dictVals[i], true
		}
	}
	return nil, false
}

// --- structure ---

// StructureTag returns the structure's tag byte.
func (v *Value) StructureTag() int8 { return v.structTag }

// StructureField returns a pointer to field i for in-place mutation.
func (v *Value) StructureField(i int) *Value { return &v.structFields[i] }

// --- copy / destroy ---

// DeepCopy returns an independent copy of v; no child is shared between
// the original and the copy.
func (v *Value) DeepCopy() Value {
	cp := Value{kind: v.kind, i64: v.i64, f64: v.f64, b: v.b, str: v.str, structTag: v.structTag}
	if v.raw != nil {
		cp.raw = append([]byte(nil), v.raw...)
	}
	if v.list != nil {
		cp.list = make([]Value, len(v.list))
		for i := range v.list {
			cp.list[i] = v.list[i].DeepCopy()
		}
	}
	if v.dictKeys != nil {
		cp.dictKeys = append([]string(nil), v.dictKeys...)
		cp.dictVals = make([]Value, len(v.dictVals))
		for i := range v.dictVals {
			cp.dictVals[i] = v.dictVals[i].DeepCopy()
		}
	}
	if v.structFields != nil {
		cp.structFields = make([]Value, len(v.structFields))
		for i := range v.structFields {
			cp.structFields[i] = v.structFields[i].DeepCopy()
		}
	}
	return cp
}

// DeepDestroy releases every child owned by v and resets it to Null. With
// Go's garbage collector this is observable only through Kind/Size
// afterward; it exists so callers that model the original's explicit
// lifetime discipline have a single mutation point to call.
func (v *Value) DeepDestroy() {
	v.reset()
	v.kind = KindNull
}

// Render produces a log-friendly string representation, in dictionary and
// list insertion order.
func (v *Value) Render() string {
	var b strings.Builder
	renderInto(&b, v)
	return b.String()
}

func renderInto(b *strings.Builder, v *Value) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBoolean:
		fmt.Fprintf(b, "%t", v.b)
	case KindInteger:
		fmt.Fprintf(b, "%d", v.i64)
	case KindFloat:
		fmt.Fprintf(b, "%g", v.f64)
	case KindString:
		fmt.Fprintf(b, "%q", v.str)
	case KindBytes:
		fmt.Fprintf(b, "#[%d bytes]", len(v.raw))
	case KindList:
		b.WriteByte('[')
		for i := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			renderInto(b, &v.list[i])
		}
		b.WriteByte(']')
	case KindDictionary:
		b.WriteByte('{')
		for i, k := range v.dictKeys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", k)
			renderInto(b, &v.dictVals[i])
		}
		b.WriteByte('}')
	case KindStructure:
		fmt.Fprintf(b, "Structure[0x%02X](", uint8(v.structTag))
		for i := range v.structFields {
			if i > 0 {
				b.WriteString(", ")
			}
			renderInto(b, &v.structFields[i])
		}
		b.WriteByte(')')
	}
}

// Equal reports whether v and other have identical shape and content.
// Used by tests alongside github.com/go-test/deep for structural
// equality (deep.Equal gives a readable diff on failure; Equal is used
// where only a boolean is needed, e.g. inside DictionaryLookup-driven
// assertions).
func (v *Value) Equal(other *Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBoolean:
		return v.b == other.b
	case KindInteger:
		return v.i64 == other.i64
	case KindFloat:
		return v.f64 == other.f64
	case KindString:
		return v.str == other.str
	case KindBytes:
		return string(v.raw) == string(other.raw)
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(&other.list[i]) {
				return false
			}
		}
		return true
	case KindDictionary:
		if len(v.dictKeys) != len(other.dictKeys) {
			return false
		}
		for i := range v.dictKeys {
			if v.dictKeys[i] != other.dictKeys[i] || !v.dictVals[i].Equal(&other.dictVals[i]) {
				return false
			}
		}
		return true
	case KindStructure:
		if v.structTag != other.structTag || len(v.structFields) != len(other.structFields) {
			return false
		}
		for i := range v.structFields {
			if !v.structFields[i].Equal(&other.structFields[i]) {
				return false
			}
		}
		return true
	}
	return false
}
