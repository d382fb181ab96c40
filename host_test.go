package marshal

import (
	"fmt"
	"io"
)

// test doubles standing in for a host runtime: named closures whose
// "bytecode" is just their prototype name, plus opaque userdata boxes

type testClosure struct {
	name string
	ups  []Value
	fn   func(arg Value) (Value, error)
}

func (c *testClosure) Kind() Kind { return KindFunction }

func (c *testClosure) Call(arg Value) (Value, error) {
	if c.fn == nil {
		return Nil, nil
	}
	return c.fn(arg)
}

func (c *testClosure) UpvalueCount() int { return len(c.ups) }

func (c *testClosure) Upvalue(i int) Value {
	if i < 1 || i > len(c.ups) {
		return Nil
	}
	return c.ups[i-1]
}

func (c *testClosure) SetUpvalue(i int, v Value) {
	for len(c.ups) < i {
		c.ups = append(c.ups, Nil)
	}
	c.ups[i-1] = v
}

// testHost resolves prototype names back to behavior on load. loads
// counts Load calls so tests can assert on sharing.
type testHost struct {
	protos map[string]func(Value) (Value, error)
	loads  int
}

func newTestHost() *testHost {
	return &testHost{protos: make(map[string]func(Value) (Value, error))}
}

func (h *testHost) define(name string, nups int, fn func(Value) (Value, error)) *testClosure {
	h.protos[name] = fn
	c := &testClosure{name: name, fn: fn}
	for i := 0; i < nups; i++ {
		c.ups = append(c.ups, Nil)
	}
	return c
}

func (h *testHost) Dump(fn Callable, w io.Writer) error {
	c, ok := fn.(*testClosure)
	if !ok || c.name == "" {
		return fmt.Errorf("%w: native function", ErrUnsupportedValue)
	}
	_, err := io.WriteString(w, c.name)
	return err
}

func (h *testHost) Load(r io.Reader) (Callable, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fn, ok := h.protos[string(b)]
	if !ok {
		return nil, fmt.Errorf("unknown prototype %q", b)
	}
	h.loads++
	return &testClosure{name: string(b), fn: fn}, nil
}

type testUserdata struct {
	typeName string
	payload  Value
}

func (u *testUserdata) Kind() Kind       { return KindUserdata }
func (u *testUserdata) TypeName() string { return u.typeName }

type testThread struct{}

func (*testThread) Kind() Kind { return KindThread }

// tbl builds a table from interleaved key/value pairs.
func tbl(kv ...Value) *Table {
	t := NewTable()
	for i := 0; i+1 < len(kv); i += 2 {
		t.Set(kv[i], kv[i+1])
	}
	return t
}

// arr builds a table with keys 1..len(vs).
func arr(vs ...Value) *Table {
	t := NewTable()
	for i, v := range vs {
		t.Set(Number(i+1), v)
	}
	return t
}
