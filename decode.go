package marshal

import (
	"encoding/binary"
	"fmt"
	"math"
)

// A Decoder unmarshals streams produced by an Encoder. The zero value
// decodes graphs of scalars and tables; decoding closures requires a
// BytecodeService.
type Decoder struct {
	// Bytecode loads closure bytecode. When nil, any function record
	// in the stream fails with ErrUnsupportedValue.
	Bytecode BytecodeService

	// MaxDepth bounds recursive descent; 0 means DefaultMaxDepth.
	MaxDepth int
}

// NewDecoder returns a Decoder with default settings.
func NewDecoder() *Decoder { return &Decoder{} }

// Unmarshal parses b and returns the reconstructed root table. Every
// length field is validated against the remaining range before use;
// the decoder never reads past b, and corruption anywhere fails the
// whole call with no partial result.
func (d *Decoder) Unmarshal(b []byte) (*Table, error) {
	if len(b) < headerSize {
		return nil, ErrBadHeader
	}
	if b[0] != magicByte {
		return nil, ErrBadMagic
	}
	order, err := byteOrderFor(b[1])
	if err != nil {
		return nil, err
	}

	s := &decoderState{
		svc:      d.Bytecode,
		data:     b,
		pos:      headerSize,
		order:    order,
		refs:     newRefResolver(),
		maxDepth: d.MaxDepth,
	}
	if s.maxDepth <= 0 {
		s.maxDepth = DefaultMaxDepth
	}

	n, err := s.readLen(len(b))
	if err != nil {
		return nil, err
	}
	if s.pos+n != len(b) {
		return nil, corrupt(errTrailingBytes)
	}

	root := NewTable()
	s.refs.register(root)
	if err := s.unpackPairs(root, len(b), 1); err != nil {
		return nil, err
	}
	return root, nil
}

// byteOrderFor maps the endianness marker to the byte order every
// multi-byte field of the payload was written in. Numbers, lengths,
// and reference ids are decoded per field in the writer's order; the
// payload is never rewritten.
func byteOrderFor(marker byte) (binary.ByteOrder, error) {
	switch marker {
	case markerLittleEndian:
		return binary.LittleEndian, nil
	case markerBigEndian:
		return binary.BigEndian, nil
	}
	return nil, corrupt(errBadMarker)
}

// decoderState is the per-call unpacking context: an explicit cursor
// with a monotonically advancing offset, bound-checked against the
// enclosing body before every read.
type decoderState struct {
	svc      BytecodeService
	data     []byte
	pos      int
	order    binary.ByteOrder
	refs     *refResolver
	maxDepth int
}

func (s *decoderState) readByte(end int) (byte, error) {
	if s.pos+1 > end {
		return 0, corrupt(errTruncated)
	}
	c := s.data[s.pos]
	s.pos++
	return c, nil
}

func (s *decoderState) readUint32(end int) (uint32, error) {
	if s.pos+4 > end {
		return 0, corrupt(errTruncated)
	}
	v := s.order.Uint32(s.data[s.pos:])
	s.pos += 4
	return v, nil
}

func (s *decoderState) readUint64(end int) (uint64, error) {
	if s.pos+8 > end {
		return 0, corrupt(errTruncated)
	}
	v := s.order.Uint64(s.data[s.pos:])
	s.pos += 8
	return v, nil
}

// readLen reads a 4-byte length field and validates that many bytes
// remain before end.
func (s *decoderState) readLen(end int) (int, error) {
	v, err := s.readUint32(end)
	if err != nil {
		return 0, err
	}
	n := int(v)
	if n < 0 || s.pos+n > end || s.pos+n < s.pos {
		return 0, corrupt(errBadBodyLength)
	}
	return n, nil
}

func (s *decoderState) readBytes(n, end int) ([]byte, error) {
	if s.pos+n > end {
		return nil, corrupt(errTruncated)
	}
	b := s.data[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

// unpackValue consumes exactly one tagged record.
func (s *decoderState) unpackValue(end, depth int) (Value, error) {
	if depth > s.maxDepth {
		return nil, ErrTooDeep
	}

	tag, err := s.readByte(end)
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagNil:
		return Nil, nil

	case tagBool:
		c, err := s.readByte(end)
		if err != nil {
			return nil, err
		}
		return Bool(c != 0), nil

	case tagNumber:
		u, err := s.readUint64(end)
		if err != nil {
			return nil, err
		}
		return Number(math.Float64frombits(u)), nil

	case tagString:
		n, err := s.readLen(end)
		if err != nil {
			return nil, err
		}
		b, err := s.readBytes(n, end)
		if err != nil {
			return nil, err
		}
		return String(b), nil

	case tagTable:
		return s.unpackTable(end, depth)

	case tagFunction:
		return s.unpackFunction(end, depth)

	case tagUserdata:
		return s.unpackUserdata(end, depth)

	case tagThread:
		// coroutine-like values were dropped at pack time
		return Nil, nil
	}

	return nil, corrupt(errBadTag)
}

// unpackPairs decodes interleaved key/value records into t until the
// cursor reaches end. A key with no following value is corruption.
func (s *decoderState) unpackPairs(t *Table, end, depth int) error {
	for s.pos < end {
		k, err := s.unpackValue(end, depth)
		if err != nil {
			return err
		}
		if s.pos >= end {
			return corrupt(errOddPair)
		}
		v, err := s.unpackValue(end, depth)
		if err != nil {
			return err
		}
		t.Set(k, v)
	}
	return nil
}

func (s *decoderState) unpackTable(end, depth int) (Value, error) {
	sub, err := s.readByte(end)
	if err != nil {
		return nil, err
	}
	switch sub {
	case subRef:
		id, err := s.readUint32(end)
		if err != nil {
			return nil, err
		}
		return s.refs.resolve(id)

	case subVal:
		n, err := s.readLen(end)
		if err != nil {
			return nil, err
		}
		// register before decoding the body so self-references and
		// forward cycles resolve to this table
		t := NewTable()
		s.refs.register(t)
		if err := s.unpackPairs(t, s.pos+n, depth+1); err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, corrupt(errBadSubTag)
}

func (s *decoderState) unpackFunction(end, depth int) (Value, error) {
	sub, err := s.readByte(end)
	if err != nil {
		return nil, err
	}
	switch sub {
	case subRef:
		id, err := s.readUint32(end)
		if err != nil {
			return nil, err
		}
		return s.refs.resolve(id)

	case subVal:
		n, err := s.readLen(end)
		if err != nil {
			return nil, err
		}
		blob, err := s.readBytes(n, end)
		if err != nil {
			return nil, err
		}
		if s.svc == nil {
			return nil, fmt.Errorf("%w: no bytecode service configured", ErrUnsupportedValue)
		}
		fn, err := s.svc.Load(NewReadBuffer(blob))
		if err != nil {
			return nil, fmt.Errorf("marshal: load bytecode: %w", err)
		}

		s.refs.register(fn)

		en, err := s.readLen(end)
		if err != nil {
			return nil, err
		}
		env := NewTable()
		if err := s.unpackPairs(env, s.pos+en, depth+1); err != nil {
			return nil, err
		}
		// slot indices come off the wire; reject anything the 1-based
		// upvalue contract cannot hold before touching the host
		var bindErr error
		env.Pairs(func(k, v Value) bool {
			slot, ok := k.(Number)
			if !ok || slot < 1 || slot > maxUpvalues || slot != Number(math.Trunc(float64(slot))) {
				bindErr = corrupt(errBadUpvalueSlot)
				return false
			}
			fn.SetUpvalue(int(slot), v)
			return true
		})
		if bindErr != nil {
			return nil, bindErr
		}
		return fn, nil
	}
	return nil, corrupt(errBadSubTag)
}

func (s *decoderState) unpackUserdata(end, depth int) (Value, error) {
	sub, err := s.readByte(end)
	if err != nil {
		return nil, err
	}
	switch sub {
	case subRef:
		id, err := s.readUint32(end)
		if err != nil {
			return nil, err
		}
		return s.refs.resolve(id)

	case subVal:
		// packed without a persist hook
		return Nil, nil

	case subUsr:
		// the id belongs to the reviver's result, which does not exist
		// until the wrapper and state have been decoded
		id := s.refs.reserve()

		n, err := s.readLen(end)
		if err != nil {
			return nil, err
		}
		wrapper := NewTable()
		if err := s.unpackPairs(wrapper, s.pos+n, depth+1); err != nil {
			return nil, err
		}
		rev, ok := wrapper.Get(Number(1)).(Callable)
		if !ok {
			return nil, corrupt(errNoReviver)
		}

		sv, err := s.unpackValue(end, depth+1)
		if err != nil {
			return nil, err
		}
		state, ok := sv.(*Table)
		if !ok {
			return nil, corrupt(errBadReviverState)
		}

		out, err := rev.Call(state)
		if err != nil {
			return nil, fmt.Errorf("marshal: revive: %w", err)
		}
		if out == nil {
			out = Nil
		}
		s.refs.fill(id, out)
		return out, nil
	}
	return nil, corrupt(errBadSubTag)
}
