package marshal

import "errors"

// Errors
var (
	ErrBadHeader = errors.New("marshal: bad header: stream shorter than magic and endianness marker")
	ErrBadMagic  = errors.New("marshal: bad magic byte")

	ErrOutOfMemory = errors.New("marshal: buffer growth exceeds addressable memory")
	ErrTooLarge    = errors.New("marshal: value too large for 32-bit length field")
	ErrTooDeep     = errors.New("marshal: maximum graph depth exceeded")

	ErrUnsupportedValue   = errors.New("marshal: value has no serializable form")
	ErrInvalidPersistHook = errors.New("marshal: persist hook must return a callable reviver")
)

// ErrCorrupt is returned if the stream cannot be decoded
type ErrCorrupt struct{ Err string }

// internal constants used for corrupt
var (
	errBadTag          = "bad type tag"
	errBadSubTag       = "bad sub-tag"
	errBadMarker       = "bad endianness marker"
	errTruncated       = "truncated record"
	errBadBodyLength   = "body length exceeds remaining stream"
	errTrailingBytes   = "trailing bytes after root body"
	errOddPair         = "record key without a value"
	errBadRefID        = "unknown reference id"
	errBadUpvalueSlot  = "bad upvalue slot index"
	errUnrevivedRef    = "reference into a value still being revived"
	errNoReviver       = "persisted record carries no reviver"
	errBadReviverState = "reviver state is not a record"
)

func (c ErrCorrupt) Error() string { return "marshal: corrupt stream: " + c.Err }

func corrupt(reason string) error { return ErrCorrupt{reason} }
