package marshal

// types for representing the host value model

// Kind identifies the runtime type of a Value.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindTable
	KindFunction
	KindUserdata
	KindThread
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTable:
		return "table"
	case KindFunction:
		return "function"
	case KindUserdata:
		return "userdata"
	case KindThread:
		return "thread"
	}
	return "unknown"
}

// Value is a single value in the host value model. The core kinds are
// closed (Nil, Bool, Number, String, *Table); Function, Userdata, and
// Thread kinds are implemented by the host.
type Value interface {
	Kind() Kind
}

type nilValue struct{}

func (nilValue) Kind() Kind { return KindNil }

// Nil is the null value. A nil Value interface is treated the same.
var Nil Value = nilValue{}

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }

// True and False are the two boolean values.
const (
	True  = Bool(true)
	False = Bool(false)
)

// Number is a double-precision float, the only numeric type.
type Number float64

func (Number) Kind() Kind { return KindNumber }

// String is an immutable, binary-safe byte string.
type String string

func (String) Kind() Kind { return KindString }

// Callable is an executable host value: a closure over bytecode the
// host can dump and load, plus 1-based captured upvalue slots. A
// callable produced by a persist hook (a reviver) is invoked with the
// captured-state record as its sole argument.
type Callable interface {
	Value
	Call(arg Value) (Value, error)
	UpvalueCount() int
	Upvalue(i int) Value
	SetUpvalue(i int, v Value)
}

// Userdata is an opaque host value outside the core type set. Its
// type name keys the persist-hook registry at pack time.
type Userdata interface {
	Value
	TypeName() string
}

// Table is the structural aggregate: a mapping of values to values.
// Keys are unique by identity for reference kinds and by equality for
// scalars. Iteration follows insertion order, so a table marshals
// deterministically and a decoded table preserves the order its pairs
// appeared on the wire.
type Table struct {
	keys  []Value
	items map[Value]Value
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{items: make(map[Value]Value)}
}

func (t *Table) Kind() Kind { return KindTable }

// Set stores v under k. Storing Nil removes the key; a Nil key is
// ignored, as the model has no nil-keyed entries.
func (t *Table) Set(k, v Value) {
	if k == nil || k == Nil {
		return
	}
	if v == nil || v == Nil {
		if _, ok := t.items[k]; !ok {
			return
		}
		delete(t.items, k)
		for i, e := range t.keys {
			if e == k {
				t.keys = append(t.keys[:i], t.keys[i+1:]...)
				break
			}
		}
		return
	}
	if _, ok := t.items[k]; !ok {
		t.keys = append(t.keys, k)
	}
	t.items[k] = v
}

// Get returns the value stored under k, or Nil if absent.
func (t *Table) Get(k Value) Value {
	if k == nil || k == Nil {
		return Nil
	}
	if v, ok := t.items[k]; ok {
		return v
	}
	return Nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.keys) }

// Pairs calls fn for each entry in insertion order until fn returns
// false.
func (t *Table) Pairs(fn func(k, v Value) bool) {
	for _, k := range t.keys {
		if !fn(k, t.items[k]) {
			return
		}
	}
}

// Equal reports deep, order-sensitive equality of two tables: the
// i-th entry of each is compared pairwise. Scalars compare by value
// (NaN equals NaN here), tables recurse, and function, userdata, and
// thread values compare by identity. Cyclic graphs are handled by
// assuming equality for a pair of tables already under comparison.
// go-cmp picks this method up for diffing in tests.
func (t *Table) Equal(o *Table) bool {
	return tablesEqual(t, o, make(map[tablePair]bool))
}

type tablePair struct{ a, b *Table }

func tablesEqual(a, b *Table, seen map[tablePair]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || len(a.keys) != len(b.keys) {
		return false
	}
	p := tablePair{a, b}
	if seen[p] {
		return true
	}
	seen[p] = true
	for i, ak := range a.keys {
		bk := b.keys[i]
		if !valuesEqual(ak, bk, seen) {
			return false
		}
		if !valuesEqual(a.items[ak], b.items[bk], seen) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b Value, seen map[tablePair]bool) bool {
	if a == nil {
		a = Nil
	}
	if b == nil {
		b = Nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case nilValue:
		return true
	case Bool:
		return av == b
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return false
		}
		return av == bv || (av != av && bv != bv)
	case String:
		return av == b
	case *Table:
		bv, ok := b.(*Table)
		if !ok {
			return false
		}
		return tablesEqual(av, bv, seen)
	}
	// function, userdata, thread: identity
	return a == b
}
