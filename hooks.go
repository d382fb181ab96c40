package marshal

import "io"

// BytecodeService dumps and loads closure bytecode on behalf of the
// codec. The blob format is host-defined and passed through opaquely.
// Dump writes the bytecode of fn to w; a callable with no
// introspectable bytecode (a native builtin) should fail with
// ErrUnsupportedValue. Load reconstructs a fresh callable from a
// one-shot read cursor over a dumped blob; its upvalues are bound by
// the decoder afterwards.
type BytecodeService interface {
	Dump(fn Callable, w io.Writer) error
	Load(r io.Reader) (Callable, error)
}

// PersistFunc translates one userdata value into a reviver and the
// state the reviver needs. The reviver must be a Callable; at decode
// time it is invoked exactly once per decoded instance with the state
// record as sole argument, and its result replaces the userdata in
// the reconstructed graph. Hooks run synchronously inside the marshal
// call and must not retain the buffer or reference table.
type PersistFunc func(u Userdata) (reviver Value, state *Table, err error)

// Hooks maps userdata type names to persist hooks. A userdata whose
// type has no hook is dropped to Nil on the wire without error.
type Hooks struct {
	m map[string]PersistFunc
}

// NewHooks returns an empty registry.
func NewHooks() *Hooks {
	return &Hooks{m: make(map[string]PersistFunc)}
}

// Register installs fn as the persist hook for the named userdata
// type, replacing any previous hook.
func (h *Hooks) Register(typeName string, fn PersistFunc) {
	h.m[typeName] = fn
}

func (h *Hooks) lookup(typeName string) PersistFunc {
	if h == nil {
		return nil
	}
	return h.m[typeName]
}
