package marshal

import (
	"fmt"
	"math"
)

// An Encoder marshals value graphs. The zero value is usable for
// graphs of scalars and tables; serializing closures requires a
// BytecodeService and serializing userdata requires persist hooks.
type Encoder struct {
	// Hooks supplies persist hooks for userdata values. Userdata
	// without a hook degrades to Nil on the wire.
	Hooks *Hooks

	// Bytecode dumps closure bytecode. When nil, any Callable in the
	// graph fails with ErrUnsupportedValue.
	Bytecode BytecodeService

	// MaxDepth bounds recursive descent; 0 means DefaultMaxDepth.
	MaxDepth int
}

// NewEncoder returns an Encoder with default settings.
func NewEncoder() *Encoder { return &Encoder{} }

// Marshal returns the encoding of the graph rooted at root. The root
// table's pairs are written directly after the header and the root
// body length; the root itself is tracked as reference id 1, so
// cycles through the root marshal like any other.
func (e *Encoder) Marshal(root *Table) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root table", ErrUnsupportedValue)
	}

	s := &encoderState{
		hooks:    e.Hooks,
		svc:      e.Bytecode,
		refs:     newRefAssigner(),
		maxDepth: e.MaxDepth,
	}
	if s.maxDepth <= 0 {
		s.maxDepth = DefaultMaxDepth
	}

	buf := NewBuffer()
	if err := buf.writeByte(magicByte); err != nil {
		return nil, err
	}
	if err := buf.writeByte(hostEndianMarker()); err != nil {
		return nil, err
	}

	s.refs.assign(root)
	body := NewBuffer()
	if err := s.packPairs(body, root, 1); err != nil {
		return nil, err
	}
	if err := buf.writeBlob(body.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encoderState is the per-call packing context: one reference table,
// one id counter, shared by every nested body.
type encoderState struct {
	hooks    *Hooks
	svc      BytecodeService
	refs     *refAssigner
	maxDepth int
}

// pack emits one tagged record for v into buf.
func (s *encoderState) pack(buf *Buffer, v Value, depth int) error {
	if depth > s.maxDepth {
		return ErrTooDeep
	}
	if v == nil {
		v = Nil
	}

	switch v := v.(type) {
	case nilValue:
		return buf.writeByte(tagNil)

	case Bool:
		if err := buf.writeByte(tagBool); err != nil {
			return err
		}
		if v {
			return buf.writeByte(1)
		}
		return buf.writeByte(0)

	case Number:
		if err := buf.writeByte(tagNumber); err != nil {
			return err
		}
		return buf.writeUint64(math.Float64bits(float64(v)))

	case String:
		if err := buf.writeByte(tagString); err != nil {
			return err
		}
		return buf.writeBlob([]byte(v))

	case *Table:
		return s.packTable(buf, v, depth)
	}

	switch v.Kind() {
	case KindFunction:
		fn, ok := v.(Callable)
		if !ok {
			return fmt.Errorf("%w: function value does not implement Callable", ErrUnsupportedValue)
		}
		return s.packFunction(buf, fn, depth)

	case KindUserdata:
		u, ok := v.(Userdata)
		if !ok {
			return fmt.Errorf("%w: userdata value does not implement Userdata", ErrUnsupportedValue)
		}
		return s.packUserdata(buf, u, depth)

	case KindThread:
		// coroutine-like values are dropped: tag only, decodes as Nil
		return buf.writeByte(tagThread)
	}

	return fmt.Errorf("%w: kind %s", ErrUnsupportedValue, v.Kind())
}

// packPairs writes the interleaved key/value records of t, in t's
// iteration order. The pair count is implicit in the body length.
func (s *encoderState) packPairs(buf *Buffer, t *Table, depth int) error {
	var err error
	t.Pairs(func(k, v Value) bool {
		if err = s.pack(buf, k, depth); err != nil {
			return false
		}
		err = s.pack(buf, v, depth)
		return err == nil
	})
	return err
}

func (s *encoderState) packTable(buf *Buffer, t *Table, depth int) error {
	if err := buf.writeByte(tagTable); err != nil {
		return err
	}
	if id, ok := s.refs.lookup(t); ok {
		if err := buf.writeByte(subRef); err != nil {
			return err
		}
		return buf.writeUint32(id)
	}

	s.refs.assign(t)
	body := NewBuffer()
	if err := s.packPairs(body, t, depth+1); err != nil {
		return err
	}
	if err := buf.writeByte(subVal); err != nil {
		return err
	}
	return buf.writeBlob(body.Bytes())
}

func (s *encoderState) packFunction(buf *Buffer, fn Callable, depth int) error {
	if err := buf.writeByte(tagFunction); err != nil {
		return err
	}
	if id, ok := s.refs.lookup(fn); ok {
		if err := buf.writeByte(subRef); err != nil {
			return err
		}
		return buf.writeUint32(id)
	}
	if s.svc == nil {
		return fmt.Errorf("%w: no bytecode service configured", ErrUnsupportedValue)
	}

	s.refs.assign(fn)

	code := NewBuffer()
	if err := s.svc.Dump(fn, code); err != nil {
		return err
	}
	if err := buf.writeByte(subVal); err != nil {
		return err
	}
	if err := buf.writeBlob(code.Bytes()); err != nil {
		return err
	}

	// captured environment: slot index -> upvalue
	env := NewTable()
	for i := 1; i <= fn.UpvalueCount(); i++ {
		env.Set(Number(i), fn.Upvalue(i))
	}
	body := NewBuffer()
	if err := s.packPairs(body, env, depth+1); err != nil {
		return err
	}
	return buf.writeBlob(body.Bytes())
}

func (s *encoderState) packUserdata(buf *Buffer, u Userdata, depth int) error {
	if err := buf.writeByte(tagUserdata); err != nil {
		return err
	}
	if id, ok := s.refs.lookup(u); ok {
		if err := buf.writeByte(subRef); err != nil {
			return err
		}
		return buf.writeUint32(id)
	}

	fn := s.hooks.lookup(u.TypeName())
	if fn == nil {
		// no persist hook: body-less record, decodes as Nil, untracked
		return buf.writeByte(subVal)
	}

	s.refs.assign(u)

	reviver, state, err := fn(u)
	if err != nil {
		return fmt.Errorf("marshal: persist %q: %w", u.TypeName(), err)
	}
	rev, ok := reviver.(Callable)
	if !ok || rev == nil {
		return fmt.Errorf("%w: persist %q returned %T", ErrInvalidPersistHook, u.TypeName(), reviver)
	}
	if state == nil {
		state = NewTable()
	}

	// one-element wrapper record holding the reviver; shares the ref
	// table but is itself untracked
	wrapper := NewTable()
	wrapper.Set(Number(1), rev)
	body := NewBuffer()
	if err := s.packPairs(body, wrapper, depth+1); err != nil {
		return err
	}
	if err := buf.writeByte(subUsr); err != nil {
		return err
	}
	if err := buf.writeBlob(body.Bytes()); err != nil {
		return err
	}
	return s.pack(buf, state, depth+1)
}
