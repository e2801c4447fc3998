package readat

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
)

var (
	ErrUnexpectedEOF = errors.New("unexpected end of buffer")
	ErrOutOfBounds   = errors.New("offset out of bounds")
	ErrInvalidString = errors.New("invalid string encoding")
)

// Cursor is a positioned big-endian reader over an in-memory file.
// Reads never return partial data: either the whole value is available or
// ErrUnexpectedEOF is returned and the position is left untouched.
type Cursor struct {
	buf     []byte
	pos     int
	decoder *encoding.Decoder
}

func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// SetDecoder sets decoder used by ReadCString. nil means strict utf-8.
func (c *Cursor) SetDecoder(d *encoding.Decoder) {
	c.decoder = d
}

func (c *Cursor) Len() int { return len(c.buf) }

func (c *Cursor) Tell() int { return c.pos }

func (c *Cursor) Seek(offset int) error {
	if offset < 0 || offset > len(c.buf) {
		return errors.Wrapf(ErrOutOfBounds, "seek 0x%x (size 0x%x)", offset, len(c.buf))
	}
	c.pos = offset
	return nil
}

func (c *Cursor) Skip(amount int) error {
	return c.Seek(c.pos + amount)
}

// Fits checks that count records of size bytes starting at offset lie
// inside the buffer. Used before allocating by counts read from the file.
func (c *Cursor) Fits(offset int, count int64, size int) error {
	if offset < 0 || offset > len(c.buf) || count < 0 || size < 0 ||
		uint64(count)*uint64(size) > uint64(len(c.buf)-offset) {
		return errors.Wrapf(ErrOutOfBounds, "%d records of %d bytes at 0x%x (size 0x%x)", count, size, offset, len(c.buf))
	}
	return nil
}

// At runs fn with the cursor positioned at offset and restores
// the previous position afterwards, even if fn fails.
func (c *Cursor) At(offset int, fn func() error) error {
	saved := c.pos
	defer func() { c.pos = saved }()
	if err := c.Seek(offset); err != nil {
		return err
	}
	return fn()
}

func (c *Cursor) ReadBytes(amount int) ([]byte, error) {
	if amount < 0 || c.pos+amount > len(c.buf) {
		return nil, errors.Wrapf(ErrUnexpectedEOF, "read %d bytes at 0x%x (size 0x%x)", amount, c.pos, len(c.buf))
	}
	b := c.buf[c.pos : c.pos+amount]
	c.pos += amount
	return b, nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
func (c *Cursor) ReadI8() (int8, error) {
	v, err := c.ReadU8()
	return int8(v), err
}

func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}
func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}
func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	return math.Float32frombits(v), err
}

// ReadInt reads unsigned or sign-extended integer of width 1, 2 or 4 bytes.
func (c *Cursor) ReadInt(width int, signed bool) (int64, error) {
	switch width {
	case 1:
		v, err := c.ReadU8()
		if signed {
			return int64(int8(v)), err
		}
		return int64(v), err
	case 2:
		v, err := c.ReadU16()
		if signed {
			return int64(int16(v)), err
		}
		return int64(v), err
	case 4:
		v, err := c.ReadU32()
		if signed {
			return int64(int32(v)), err
		}
		return int64(v), err
	}
	return 0, errors.Errorf("unsupported integer width %d", width)
}

// ReadIndex reads optional reference of given width.
// All-ones pattern is absent reference and returned as -1,
// any other value is returned as unsigned number.
func (c *Cursor) ReadIndex(width int) (int, error) {
	v, err := c.ReadInt(width, false)
	if err != nil {
		return 0, err
	}
	if uint64(v) == (uint64(1)<<(uint(width)*8))-1 {
		return -1, nil
	}
	return int(v), nil
}

func (c *Cursor) ReadVec2() (v [2]float32, err error) {
	for i := range v {
		if v[i], err = c.ReadF32(); err != nil {
			return
		}
	}
	return
}

func (c *Cursor) ReadVec3() (v [3]float32, err error) {
	for i := range v {
		if v[i], err = c.ReadF32(); err != nil {
			return
		}
	}
	return
}

// ReadCString reads bytes up to NUL terminator and consumes the terminator.
func (c *Cursor) ReadCString() (string, error) {
	n := bytes.IndexByte(c.buf[c.pos:], 0)
	if n < 0 {
		return "", errors.Wrapf(ErrUnexpectedEOF, "unterminated string at 0x%x", c.pos)
	}
	raw := c.buf[c.pos : c.pos+n]

	var s string
	if c.decoder != nil {
		decoded, err := c.decoder.Bytes(raw)
		if err != nil {
			return "", errors.Wrapf(ErrInvalidString, "string at 0x%x: %v", c.pos, err)
		}
		s = string(decoded)
	} else {
		if !utf8.Valid(raw) {
			return "", errors.Wrapf(ErrInvalidString, "string at 0x%x is not utf-8", c.pos)
		}
		s = string(raw)
	}
	c.pos += n + 1
	return s, nil
}
