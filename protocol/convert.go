package protocol

import "github.com/graphbolt/driver/value"

// dictToMap flattens a KindDictionary Value into a Go map for metadata
// merge and caller-facing accessors. Returns nil for a Null value (the
// "no metadata" case, e.g. IGNORED's empty argument list).
func dictToMap(v *value.Value) map[string]*value.Value {
	if v == nil || v.Kind() != value.KindDictionary {
		return nil
	}
	out := make(map[string]*value.Value, v.Size())
	for i := 0; i < v.Size(); i++ {
		out[v.DictionaryKey(i)] = v.DictionaryValue(i)
	}
	return out
}

// mapToDict builds a KindDictionary Value from a Go map, in an
// unspecified but deterministic-enough order for wire purposes (the
// codec does not require key ordering).
func mapToDict(m map[string]*value.Value) value.Value {
	var d value.Value
	d.FormatDictionary(len(m))
	i := 0
	for k, v := range m {
		d.DictionarySetKey(i, k)
		*d.DictionaryValue(i) = *v
		i++
	}
	return d
}

func stringListValue(items []string) value.Value {
	var l value.Value
	l.FormatList(len(items))
	for i, s := range items {
		l.ListAt(i).FormatString(s)
	}
	return l
}
