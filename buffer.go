package x86enc

import (
	"encoding/binary"
)

// buffer accumulates encoded bytes. Writes are appended to b, which may be a caller-supplied slice.
type buffer struct {
	b []byte
}

func newBuffer(b []byte) *buffer {
	return &buffer{b}
}

func (b *buffer) Len() int       { return len(b.b) }
func (b *buffer) Get() []byte    { return b.b }
func (b *buffer) Reset()         { b.b = b.b[:0] }
func (b *buffer) Byte(v byte)    { b.b = append(b.b, v) }
func (b *buffer) Bytes(v []byte) { b.b = append(b.b, v...) }
func (b *buffer) Int8(v int8)    { b.b = append(b.b, byte(v)) }

func (b *buffer) Int16(v int16) {
	b.b = binary.LittleEndian.AppendUint16(b.b, uint16(v))
}

func (b *buffer) Int32(v int32) {
	b.b = binary.LittleEndian.AppendUint32(b.b, uint32(v))
}

func (b *buffer) Int64(v int64) {
	b.b = binary.LittleEndian.AppendUint64(b.b, uint64(v))
}

// Write the low size bytes of v.
func (b *buffer) Sized(v int64, size Size) {
	switch size {
	case Size8:
		b.Int8(int8(v))
	case Size16:
		b.Int16(int16(v))
	case Size32:
		b.Int32(int32(v))
	case Size64:
		b.Int64(v)
	}
}

// Write length bytes of no-op instructions, using the fewest instructions possible. Multi-byte
// no-ops depend on 32/64-bit addressing, so real mode is padded with single-byte no-ops.
func (b *buffer) Nop(length int, mode Mode) {
	if mode == Real {
		for ; length > 0; length-- {
			b.Byte(0x90)
		}
		return
	}
	maxNop := len(nops)
	for length > 0 {
		if length > maxNop {
			b.Bytes(nops[maxNop-1])
			length -= maxNop
		} else {
			b.Bytes(nops[length-1])
			break
		}
	}
}

// Recommended multi-byte no-op sequences, indexed by length-1.
var nops = [...][]byte{
	{0x90},
	{0x66, 0x90},
	{0x0f, 0x1f, 0x00},
	{0x0f, 0x1f, 0x40, 0x00},
	{0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x0f, 0x1f, 0x80, 0x00, 0x00, 0x00, 0x00},
	{0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
}
