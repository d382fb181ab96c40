package marshal

// Every stream starts with a one-byte magic constant followed by a
// one-byte endianness marker: the low byte of the writer's native
// uint16(1), so 1 on little-endian hosts and 0 on big-endian ones.
const (
	magicByte = 0x8e

	markerLittleEndian = 1
	markerBigEndian    = 0
)

// headerSize covers magic and endianness marker. The 4-byte root body
// length that follows is part of the payload framing.
const headerSize = 2

type typeTag = byte

// Type tags, one per value kind. The numeric values are the Lua type
// codes used by the original C implementation.
const (
	tagNil      typeTag = 0
	tagBool     typeTag = 1
	tagNumber   typeTag = 3
	tagString   typeTag = 4
	tagTable    typeTag = 5
	tagFunction typeTag = 6
	tagUserdata typeTag = 7
	tagThread   typeTag = 8
)

// Sub-tags follow the type tag of reference-tracked kinds
// (Table/Function/Userdata).
const (
	subRef byte = 1 // back-reference: u32 id follows
	subVal byte = 2 // inline value: length-prefixed body follows
	subUsr byte = 3 // persist-hook body: wrapper record plus state
)

// maxLen is the largest length a 4-byte unsigned length field can
// carry; longer strings, blobs, and bodies fail with ErrTooLarge.
const maxLen = 1<<32 - 1

// DefaultMaxDepth bounds recursive descent on both pack and unpack
// when Encoder/Decoder MaxDepth is left zero.
const DefaultMaxDepth = 10000

// maxUpvalues caps the upvalue slot indices a decoded
// captured-environment record may bind. Lua bytecode stores the
// upvalue count in a single byte, so no dumpable closure exceeds it.
const maxUpvalues = 255
