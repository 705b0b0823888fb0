package value_test

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/graphbolt/driver/value"
)

func TestFormatRecyclesChildren(t *testing.T) {
	t.Parallel()
	var v value.Value
	v.FormatList(3)
	v.ListAt(0).FormatString("a")
	v.ListAt(1).FormatString("b")
	v.ListAt(2).FormatString("c")

	v.FormatInt(42)
	if v.Kind() != value.KindInteger {
		t.Fatal("expected KindInteger after reformat")
	}
	if v.Int() != 42 {
		t.Fatalf("got %d", v.Int())
	}
}

func TestResizeShrinkReleasesTail(t *testing.T) {
	t.Parallel()
	var v value.Value
	v.FormatList(4)
	for i := range 4 {
		v.ListAt(i).FormatInt(int64(i))
	}
	v.Resize(2)
	if v.Size() != 2 {
		t.Fatalf("expected size 2, got %d", v.Size())
	}
	if v.ListAt(1).Int() != 1 {
		t.Fatal("expected surviving element to keep its value")
	}
}

func TestResizeGrowAppendsNull(t *testing.T) {
	t.Parallel()
	var v value.Value
	v.FormatList(1)
	v.ListAt(0).FormatInt(1)
	v.Resize(3)
	if v.Size() != 3 {
		t.Fatalf("expected size 3, got %d", v.Size())
	}
	if v.ListAt(2).Kind() != value.KindNull {
		t.Fatal("expected new slot to be Null")
	}
}

func TestDictionarySetKeyDoesNotResize(t *testing.T) {
	t.Parallel()
	var v value.Value
	v.FormatDictionary(2)
	v.DictionarySetKey(0, "a")
	v.DictionaryValue(0).FormatInt(1)
	v.DictionarySetKey(1, "b")
	v.DictionaryValue(1).FormatInt(2)

	if v.Size() != 2 {
		t.Fatalf("expected size unchanged at 2, got %d", v.Size())
	}
	found, ok := v.DictionaryLookup("b")
	if !ok || found.Int() != 2 {
		t.Fatal("expected to find key b with value 2")
	}
}

func TestDeepCopyIsIndependent(t *testing.T) {
	t.Parallel()
	var v value.Value
	v.FormatList(1)
	v.ListAt(0).FormatString("original")

	cp := v.DeepCopy()
	v.ListAt(0).FormatString("mutated")

	if cp.ListAt(0).Str() != "original" {
		t.Fatal("deep copy should not observe mutation of the source")
	}
	if diff := deep.Equal(v.ListAt(0).Str(), "mutated"); diff != nil {
		t.Fatalf("unexpected diff: %v", diff)
	}
}

func TestEqualStructural(t *testing.T) {
	t.Parallel()
	var a, b value.Value
	a.FormatStructure(0x4E, 2)
	a.StructureField(0).FormatString("Alice")
	a.StructureField(1).FormatInt(30)

	b.FormatStructure(0x4E, 2)
	b.StructureField(0).FormatString("Alice")
	b.StructureField(1).FormatInt(30)

	if !a.Equal(&b) {
		t.Fatal("expected structurally identical structures to be equal")
	}

	b.StructureField(1).FormatInt(31)
	if a.Equal(&b) {
		t.Fatal("expected differing field to break equality")
	}
}

func TestRenderOrderIsInsertionOrder(t *testing.T) {
	t.Parallel()
	var v value.Value
	v.FormatDictionary(2)
	v.DictionarySetKey(0, "z")
	v.DictionaryValue(0).FormatInt(1)
	v.DictionarySetKey(1, "a")
	v.DictionaryValue(1).FormatInt(2)

	got := v.Render()
	want := "{z: 1, a: 2}"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
