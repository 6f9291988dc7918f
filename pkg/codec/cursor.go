package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BoundsError reports an access that would run past the end of the buffer.
type BoundsError struct {
	Op     string // "read" or "write"
	Offset int    // cursor position at the time of the access
	Need   int    // bytes requested
	Len    int    // total buffer length
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s of %d bytes at offset 0x%X exceeds buffer length 0x%X", e.Op, e.Need, e.Offset, e.Len)
}

// Vec3 is a 3-component float vector (x, y, z).
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 is a 4-component float vector, typically a rotation quaternion.
type Vec4 struct {
	X, Y, Z, W float32
}

// Cursor reads and writes little-endian primitives over a byte buffer.
// All accesses are bounds-checked and return *BoundsError instead of panicking.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor creates a cursor positioned at the start of buf
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// NewCursorAt creates a cursor positioned at pos
func NewCursorAt(buf []byte, pos int) *Cursor {
	return &Cursor{buf: buf, pos: pos}
}

// Pos returns the current offset
func (c *Cursor) Pos() int { return c.pos }

// Len returns the length of the underlying buffer
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of bytes between the cursor and the end of the buffer
func (c *Cursor) Remaining() int {
	if c.pos >= len(c.buf) {
		return 0
	}
	return len(c.buf) - c.pos
}

// Seek moves the cursor to an absolute offset
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return &BoundsError{Op: "seek", Offset: pos, Need: 0, Len: len(c.buf)}
	}
	c.pos = pos
	return nil
}

// Skip advances the cursor by n bytes
func (c *Cursor) Skip(n int) error {
	if _, err := c.span("read", n); err != nil {
		return err
	}
	return nil
}

func (c *Cursor) span(op string, n int) ([]byte, error) {
	if n < 0 || c.pos < 0 || c.pos+n > len(c.buf) {
		return nil, &BoundsError{Op: op, Offset: c.pos, Need: n, Len: len(c.buf)}
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Bytes returns the next n bytes without copying. The slice aliases the buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	return c.span("read", n)
}

// U8 reads an unsigned byte
func (c *Cursor) U8() (uint8, error) {
	b, err := c.span("read", 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a little-endian uint16
func (c *Cursor) U16() (uint16, error) {
	b, err := c.span("read", 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 reads a little-endian uint32
func (c *Cursor) U32() (uint32, error) {
	b, err := c.span("read", 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// I32 reads a little-endian int32
func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// U64 reads a little-endian uint64
func (c *Cursor) U64() (uint64, error) {
	b, err := c.span("read", 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// F32 reads a little-endian IEEE-754 float32
func (c *Cursor) F32() (float32, error) {
	v, err := c.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Vec3 reads three consecutive float32 values
func (c *Cursor) Vec3() (Vec3, error) {
	b, err := c.span("read", 12)
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}, nil
}

// Vec4 reads four consecutive float32 values
func (c *Cursor) Vec4() (Vec4, error) {
	b, err := c.span("read", 16)
	if err != nil {
		return Vec4{}, err
	}
	return Vec4{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
		W: math.Float32frombits(binary.LittleEndian.Uint32(b[12:])),
	}, nil
}

// PutBytes copies p into the buffer at the cursor
func (c *Cursor) PutBytes(p []byte) error {
	b, err := c.span("write", len(p))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

// PutU8 writes an unsigned byte
func (c *Cursor) PutU8(v uint8) error {
	b, err := c.span("write", 1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

// PutU16 writes a little-endian uint16
func (c *Cursor) PutU16(v uint16) error {
	b, err := c.span("write", 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, v)
	return nil
}

// PutU32 writes a little-endian uint32
func (c *Cursor) PutU32(v uint32) error {
	b, err := c.span("write", 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// PutI32 writes a little-endian int32
func (c *Cursor) PutI32(v int32) error {
	return c.PutU32(uint32(v))
}

// PutU64 writes a little-endian uint64
func (c *Cursor) PutU64(v uint64) error {
	b, err := c.span("write", 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, v)
	return nil
}

// PutF32 writes a little-endian float32
func (c *Cursor) PutF32(v float32) error {
	return c.PutU32(math.Float32bits(v))
}

// PutVec3 writes three float32 values
func (c *Cursor) PutVec3(v Vec3) error {
	b, err := c.span("write", 12)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
	return nil
}

// PutVec4 writes four float32 values
func (c *Cursor) PutVec4(v Vec4) error {
	b, err := c.span("write", 16)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
	binary.LittleEndian.PutUint32(b[12:], math.Float32bits(v.W))
	return nil
}
