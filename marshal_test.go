package marshal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

var roundtrips = []*Table{
	tbl(),
	tbl(Number(1), Number(10)),
	tbl(Number(1), Number(-15), Number(2), Number(0xdeadbeef)),
	tbl(Number(1), Number(2.2), Number(2), Number(9891234567890.098)),
	tbl(String("t"), True, String("f"), False),
	tbl(String("hello"), String("world")),
	tbl(String("empty"), String("")),
	tbl(String("bin"), String("\x00\x01\xfe\xff")),
	tbl(String("twas brillig and the slithy toves"), Number(42)),
	tbl(True, String("keyed by boolean")),
	arr(Number(1), Number(2), String("three")),
	arr(Number(0), Number(1), Number(2), Number(3), Number(4), Number(5)),
	arr(String("a"), String("b"), arr(Number(1), Number(2), Number(3))),
	tbl(String("nested"), tbl(String("foo"), arr(Number(1), Number(2), Number(3)))),
	tbl(String("inf"), Number(math.Inf(1)), String("ninf"), Number(math.Inf(-1))),
	tbl(String("nan"), Number(math.NaN())),
}

func TestRoundtrip(t *testing.T) {
	for _, v := range roundtrips {
		b, err := Marshal(v)
		if err != nil {
			t.Errorf("failed marshalling %v: %s", v, err)
			continue
		}
		got, err := Unmarshal(b)
		if err != nil {
			t.Errorf("error during unmarshal: %s", err)
			continue
		}
		if !v.Equal(got) {
			t.Errorf("failed roundtripping: %#v: got %#v", v, got)
		}
	}
}

func TestMarshalWire(t *testing.T) {
	b, err := Marshal(tbl(Number(1), String("a")))
	if err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	body.WriteByte(tagNumber)
	binary.Write(&body, binary.NativeEndian, math.Float64bits(1))
	body.WriteByte(tagString)
	binary.Write(&body, binary.NativeEndian, uint32(1))
	body.WriteByte('a')

	var want bytes.Buffer
	want.WriteByte(magicByte)
	want.WriteByte(hostEndianMarker())
	binary.Write(&want, binary.NativeEndian, uint32(body.Len()))
	want.Write(body.Bytes())

	if !bytes.Equal(b, want.Bytes()) {
		t.Errorf("wire mismatch:\ngot    %x\nexpect %x", b, want.Bytes())
	}
}

func TestSharedReference(t *testing.T) {
	inner := tbl(String("x"), Number(1))
	root := tbl(String("a"), inner, String("b"), inner)

	got, err := Clone(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	a, aok := got.Get(String("a")).(*Table)
	b, bok := got.Get(String("b")).(*Table)
	if !aok || !bok {
		t.Fatalf("expected tables, got %#v and %#v", got.Get(String("a")), got.Get(String("b")))
	}
	if a != b {
		t.Error("shared table decoded as two instances")
	}
	if !inner.Equal(a) {
		t.Errorf("shared table contents lost: got %#v", a)
	}
}

func TestSelfCycle(t *testing.T) {
	root := NewTable()
	root.Set(String("self"), root)

	got, err := Clone(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Get(String("self")) != Value(got) {
		t.Error("self-reference through the root broken")
	}
}

func TestMutualCycle(t *testing.T) {
	a := NewTable()
	b := NewTable()
	a.Set(String("other"), b)
	b.Set(String("other"), a)
	root := tbl(String("a"), a, String("b"), b)

	got, err := Clone(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ga := got.Get(String("a")).(*Table)
	gb := got.Get(String("b")).(*Table)
	if ga.Get(String("other")) != Value(gb) || gb.Get(String("other")) != Value(ga) {
		t.Error("mutual cycle broken")
	}
}

func TestNilRoot(t *testing.T) {
	if _, err := Marshal(nil); !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("expected ErrUnsupportedValue, got %v", err)
	}
}

func TestThreadDroppedToNil(t *testing.T) {
	root := tbl(
		String("co"), &testThread{},
		String("n"), Number(5),
	)

	got, err := Clone(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Get(String("co")) != Nil {
		t.Errorf("thread should decode as nil, got %#v", got.Get(String("co")))
	}
	if got.Get(String("n")) != Value(Number(5)) {
		t.Error("sibling value lost")
	}
}

func deepGraph(n int) *Table {
	root := NewTable()
	cur := root
	for i := 0; i < n; i++ {
		next := NewTable()
		cur.Set(Number(1), next)
		cur = next
	}
	return root
}

func TestMaxDepthEncode(t *testing.T) {
	e := &Encoder{MaxDepth: 4}
	if _, err := e.Marshal(deepGraph(10)); !errors.Is(err, ErrTooDeep) {
		t.Errorf("expected ErrTooDeep, got %v", err)
	}
	if _, err := e.Marshal(deepGraph(2)); err != nil {
		t.Errorf("shallow graph should encode: %v", err)
	}
}

func TestMaxDepthDecode(t *testing.T) {
	b, err := Marshal(deepGraph(10))
	if err != nil {
		t.Fatal(err)
	}
	d := &Decoder{MaxDepth: 4}
	if _, err := d.Unmarshal(b); !errors.Is(err, ErrTooDeep) {
		t.Errorf("expected ErrTooDeep, got %v", err)
	}
	if _, err := Unmarshal(b); err != nil {
		t.Errorf("default depth should decode: %v", err)
	}
}

func TestCycleDepthBounded(t *testing.T) {
	root := NewTable()
	root.Set(String("self"), root)
	if _, err := Marshal(root); err != nil {
		t.Errorf("back-references must not recurse: %v", err)
	}
}
