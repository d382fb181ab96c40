package marshal

import "encoding/binary"

// Marshal encodes the graph rooted at root with a zero-value Encoder:
// no persist hooks and no bytecode service, so the graph may contain
// only scalars and tables.
func Marshal(root *Table) ([]byte, error) {
	return NewEncoder().Marshal(root)
}

// Unmarshal decodes b with a zero-value Decoder.
func Unmarshal(b []byte) (*Table, error) {
	return NewDecoder().Unmarshal(b)
}

// Clone deep-copies the graph rooted at root by marshaling and
// unmarshaling in memory. Aliasing and cycles survive the trip;
// values the codec cannot carry (hookless userdata, threads) come
// back as Nil.
func Clone(root *Table, e *Encoder, d *Decoder) (*Table, error) {
	if e == nil {
		e = NewEncoder()
	}
	if d == nil {
		d = NewDecoder()
	}
	b, err := e.Marshal(root)
	if err != nil {
		return nil, err
	}
	return d.Unmarshal(b)
}

// hostEndianMarker returns the endianness byte written after the
// magic: the low-order byte of the native encoding of uint16(1).
func hostEndianMarker() byte {
	var p [2]byte
	binary.NativeEndian.PutUint16(p[:], 1)
	return p[0]
}
