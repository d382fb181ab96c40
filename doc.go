/*
Package marshal serializes rooted graphs of dynamic-language runtime
values into a compact tagged binary stream and reconstructs equivalent
graphs from it, preserving aliasing and cycles by identity.

It is a Go implementation of the lua-marshal format: a value graph is
rooted at a Table mapping values to values, whose entries may be
scalars, nested tables, closures, or opaque host values. Deep-cloning
a graph is marshaling composed with unmarshaling:

	dup, err := marshal.Clone(t, nil, nil)

Closure bytecode is delegated to the host through the BytecodeService
interface, and opaque host values participate through per-type persist
hooks registered on a Hooks registry. Coroutine-like values are not
serializable and decode as Nil.
*/
package marshal
