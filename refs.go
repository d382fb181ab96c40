package marshal

// Reference tracking. Only Table, Function, and Userdata values are
// tracked; scalars are always copied by value. Both sides assign ids
// in first-sighting order from a single shared counter, so the Nth
// distinct tracked value seen while decoding carries id N. The root
// table always holds id 1. Tables are scoped to one marshal or
// unmarshal call and never shared across calls.

// refAssigner is the pack side: identity -> id.
type refAssigner struct {
	ids  map[Value]uint32
	next uint32
}

func newRefAssigner() *refAssigner {
	return &refAssigner{ids: make(map[Value]uint32), next: 1}
}

func (r *refAssigner) lookup(v Value) (uint32, bool) {
	id, ok := r.ids[v]
	return id, ok
}

// assign registers v under the next id. Called exactly once per
// distinct tracked value, before its body is packed.
func (r *refAssigner) assign(v Value) uint32 {
	id := r.next
	r.ids[v] = id
	r.next++
	return id
}

// refResolver is the unpack side: id -> value, dense.
type refResolver struct {
	vals []Value
}

func newRefResolver() *refResolver { return &refResolver{} }

// register records v under the next id and returns it.
func (r *refResolver) register(v Value) uint32 {
	r.vals = append(r.vals, v)
	return uint32(len(r.vals))
}

// reserve claims the next id for a value that cannot be constructed
// until its body has been decoded (a persisted userdata before its
// reviver runs). fill supplies the value afterwards.
func (r *refResolver) reserve() uint32 {
	return r.register(nil)
}

func (r *refResolver) fill(id uint32, v Value) {
	r.vals[id-1] = v
}

// resolve returns the value registered under id. A reference to a
// reserved-but-unfilled slot means the stream points back into a
// value whose revival is still in flight; that shape is not
// representable and is treated as corruption.
func (r *refResolver) resolve(id uint32) (Value, error) {
	if id == 0 || uint64(id) > uint64(len(r.vals)) {
		return nil, corrupt(errBadRefID)
	}
	v := r.vals[id-1]
	if v == nil {
		return nil, corrupt(errUnrevivedRef)
	}
	return v, nil
}
