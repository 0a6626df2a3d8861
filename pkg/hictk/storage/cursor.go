package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Cursor reads primitive integers and NUL-terminated strings out of a
// sequential byte stream in a fixed endianness. It is used by the BBM
// reader to walk the header, footers, and block index (spec §4.2/§4.4).
type Cursor struct {
	r     *bufio.Reader
	order binary.ByteOrder
	pos   int64
	err   error
}

// NewCursor wraps r with the given byte order. BBM files are always
// little-endian (spec §6).
func NewCursor(r io.Reader, order binary.ByteOrder) *Cursor {
	return &Cursor{r: bufio.NewReaderSize(r, 64*1024), order: order}
}

// Pos returns the number of bytes consumed so far.
func (c *Cursor) Pos() int64 { return c.pos }

// Err returns the first error encountered by any read.
func (c *Cursor) Err() error { return c.err }

func (c *Cursor) read(n int) []byte {
	if c.err != nil {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		c.err = fmt.Errorf("short read at offset %d: %w", c.pos, err)
		return nil
	}
	c.pos += int64(n)
	return buf
}

// Skip discards n bytes.
func (c *Cursor) Skip(n int64) {
	if c.err != nil {
		return
	}
	if _, err := io.CopyN(io.Discard, c.r, n); err != nil {
		c.err = fmt.Errorf("short skip at offset %d: %w", c.pos, err)
		return
	}
	c.pos += n
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() uint8 {
	b := c.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Bool reads one byte as a boolean (nonzero is true).
func (c *Cursor) Bool() bool { return c.Uint8() != 0 }

// Int16 reads a signed 16-bit integer.
func (c *Cursor) Int16() int16 { return int16(c.Uint16()) }

// Uint16 reads an unsigned 16-bit integer.
func (c *Cursor) Uint16() uint16 {
	b := c.read(2)
	if b == nil {
		return 0
	}
	return c.order.Uint16(b)
}

// Int32 reads a signed 32-bit integer.
func (c *Cursor) Int32() int32 { return int32(c.Uint32()) }

// Uint32 reads an unsigned 32-bit integer.
func (c *Cursor) Uint32() uint32 {
	b := c.read(4)
	if b == nil {
		return 0
	}
	return c.order.Uint32(b)
}

// Int64 reads a signed 64-bit integer.
func (c *Cursor) Int64() int64 { return int64(c.Uint64()) }

// Uint64 reads an unsigned 64-bit integer.
func (c *Cursor) Uint64() uint64 {
	b := c.read(8)
	if b == nil {
		return 0
	}
	return c.order.Uint64(b)
}

// Float32 reads an IEEE-754 single-precision float.
func (c *Cursor) Float32() float32 {
	bits := c.Uint32()
	return math.Float32frombits(bits)
}

// Float64 reads an IEEE-754 double-precision float.
func (c *Cursor) Float64() float64 {
	bits := c.Uint64()
	return math.Float64frombits(bits)
}

// CString reads a NUL-terminated string.
func (c *Cursor) CString() string {
	if c.err != nil {
		return ""
	}
	s, err := c.r.ReadString(0)
	if err != nil {
		c.err = fmt.Errorf("unterminated string at offset %d: %w", c.pos, err)
		return ""
	}
	c.pos += int64(len(s))
	return s[:len(s)-1]
}
