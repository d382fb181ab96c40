package marshal

import (
	"encoding/binary"
	"io"
	"math"
)

// initialBufferCap is the capacity a fresh write buffer starts with.
const initialBufferCap = 128

// Buffer is an append-only byte buffer with geometric growth. It
// doubles as a read cursor over the written region: Read drains the
// bytes exactly once, which is how encoded bytecode blobs are handed
// to a BytecodeService.
type Buffer struct {
	data []byte
	seek int
}

// NewBuffer returns an empty write buffer.
func NewBuffer() *Buffer {
	return &Buffer{data: make([]byte, 0, initialBufferCap)}
}

// NewReadBuffer returns a buffer positioned to drain b. The slice is
// not copied.
func NewReadBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// grow ensures room for n more bytes by repeated doubling.
func (b *Buffer) grow(n int) error {
	need := len(b.data) + n
	if need < len(b.data) {
		return ErrOutOfMemory
	}
	if need <= cap(b.data) {
		return nil
	}
	newCap := cap(b.data)
	if newCap < initialBufferCap {
		newCap = initialBufferCap
	}
	for newCap < need {
		if newCap > math.MaxInt/2 {
			return ErrOutOfMemory
		}
		newCap <<= 1
	}
	d := make([]byte, len(b.data), newCap)
	copy(d, b.data)
	b.data = d
	return nil
}

// Write appends p, growing as needed. It implements io.Writer so a
// BytecodeService can dump straight into the buffer.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.grow(len(p)); err != nil {
		return 0, err
	}
	b.data = append(b.data, p...)
	return len(p), nil
}

// Read implements io.Reader over the written region. Once the region
// is consumed, Read reports io.EOF; the buffer is not rewindable.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.seek >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.seek:])
	b.seek += n
	return n, nil
}

// Bytes returns the written region. The slice is only valid until the
// next Write, which may relocate storage.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return len(b.data) }

func (b *Buffer) writeByte(c byte) error {
	if err := b.grow(1); err != nil {
		return err
	}
	b.data = append(b.data, c)
	return nil
}

func (b *Buffer) writeUint32(v uint32) error {
	var p [4]byte
	binary.NativeEndian.PutUint32(p[:], v)
	_, err := b.Write(p[:])
	return err
}

func (b *Buffer) writeUint64(v uint64) error {
	var p [8]byte
	binary.NativeEndian.PutUint64(p[:], v)
	_, err := b.Write(p[:])
	return err
}

// writeBlob writes a 4-byte length prefix followed by p.
func (b *Buffer) writeBlob(p []byte) error {
	if uint64(len(p)) > maxLen {
		return ErrTooLarge
	}
	if err := b.writeUint32(uint32(len(p))); err != nil {
		return err
	}
	_, err := b.Write(p)
	return err
}
