// Package tagstream decodes the tag/length/value container format shared by
// the Presto profile files (cookies4.dat, vlink4.dat, opcert6.dat and
// friends).
//
// A stream starts with a small header declaring how wide tags and length
// fields are. Every later read goes through a Cursor whose failure state is
// one-way: after the first structural error every read returns a zero value
// together with the stored error, so a corrupt container can never be
// resynchronised half-way through a record.
package tagstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Order selects how multi-byte integers are laid out in the source.
type Order int

const (
	// BigEndian is the byte order of every file written by Presto.
	BigEndian Order = iota
	// LittleEndian is accepted for completeness.
	LittleEndian
)

var (
	// ErrShortRead means the source ran out in the middle of a field.
	ErrShortRead = errors.New("tagstream: unexpected end of stream")
	// ErrTooLarge means a declared size does not fit in the remaining input.
	ErrTooLarge = errors.New("tagstream: declared size exceeds remaining input")
)

// chunk bounds the up-front allocation for a single field whose size comes
// from untrusted input when the total input size is unknown.
const chunk = 64 << 10

type state int

const (
	active state = iota
	failed
)

// Cursor is a forward-only, endianness-aware reader over a byte source.
// It is not safe for concurrent use.
type Cursor struct {
	src   *bufio.Reader
	order Order
	pos   int64
	size  int64 // -1 when the source does not report its length
	st    state
	err   error
}

type lener interface {
	Len() int
}

// NewCursor wraps src. When src reports its length (bytes.Reader,
// bytes.Buffer, strings.Reader) declared sizes are checked against the
// remaining input before anything is allocated.
func NewCursor(src io.Reader, order Order) *Cursor {
	c := &Cursor{
		src:   bufio.NewReader(src),
		order: order,
		size:  -1,
	}
	if l, ok := src.(lener); ok {
		c.size = int64(l.Len())
	}
	return c
}

// Order returns the byte order the cursor was created with.
func (c *Cursor) Order() Order {
	return c.order
}

// Pos returns the number of bytes consumed so far.
func (c *Cursor) Pos() int64 {
	return c.pos
}

// Remaining returns the number of unread bytes, or -1 if unknown.
func (c *Cursor) Remaining() int64 {
	if c.size < 0 {
		return -1
	}
	return c.size - c.pos
}

// AtEOF reports whether no further byte is available. It is not sticky.
func (c *Cursor) AtEOF() bool {
	if c.size >= 0 {
		return c.pos >= c.size
	}
	_, err := c.src.Peek(1)
	return err != nil
}

// Failed reports whether the cursor has hit a structural error.
func (c *Cursor) Failed() bool {
	return c.st == failed
}

// Err returns the error that moved the cursor into the failed state.
func (c *Cursor) Err() error {
	return c.err
}

// Fail moves the cursor into the failed state. Only the first error is kept.
// The stored error is returned so callers can write `return c.Fail(err)`.
func (c *Cursor) Fail(err error) error {
	if c.st == failed {
		return c.err
	}
	c.st = failed
	c.err = err
	return err
}

// Fits reports whether n more bytes can be read. Unknown-size sources always
// fit; the read itself will report the shortfall.
func (c *Cursor) Fits(n int64) bool {
	if n < 0 {
		return false
	}
	rem := c.Remaining()
	return rem < 0 || n <= rem
}

func (c *Cursor) fill(buf []byte) error {
	if c.st == failed {
		return c.err
	}
	n, err := io.ReadFull(c.src, buf)
	c.pos += int64(n)
	if err != nil {
		return c.Fail(fmt.Errorf("%w at offset %d", ErrShortRead, c.pos))
	}
	return nil
}

// ReadUint reads an unsigned integer of width bytes (1..8). The raw bytes are
// reversed for little-endian sources and then assembled most significant
// byte first.
func (c *Cursor) ReadUint(width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, c.Fail(fmt.Errorf("tagstream: invalid integer width %d", width))
	}
	var raw [8]byte
	buf := raw[:width]
	if err := c.fill(buf); err != nil {
		return 0, err
	}
	if c.order == LittleEndian {
		for i, j := 0, width-1; i < j; i, j = i+1, j-1 {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// ReadU8 reads one byte.
func (c *Cursor) ReadU8() (uint8, error) {
	v, err := c.ReadUint(1)
	return uint8(v), err
}

// ReadU16 reads a 16-bit integer.
func (c *Cursor) ReadU16() (uint16, error) {
	v, err := c.ReadUint(2)
	return uint16(v), err
}

// ReadU32 reads a 32-bit integer.
func (c *Cursor) ReadU32() (uint32, error) {
	v, err := c.ReadUint(4)
	return uint32(v), err
}

// ReadU64 reads a 64-bit integer.
func (c *Cursor) ReadU64() (uint64, error) {
	return c.ReadUint(8)
}

// ReadBytes reads exactly n bytes.
func (c *Cursor) ReadBytes(n int64) ([]byte, error) {
	if c.st == failed {
		return nil, c.err
	}
	if !c.Fits(n) {
		return nil, c.Fail(fmt.Errorf("%w: %d bytes at offset %d", ErrTooLarge, n, c.pos))
	}
	if n == 0 {
		return []byte{}, nil
	}
	if n <= chunk || c.size >= 0 {
		buf := make([]byte, n)
		if err := c.fill(buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	// Unknown source length: grow as data actually arrives.
	buf := make([]byte, 0, chunk)
	for int64(len(buf)) < n {
		step := n - int64(len(buf))
		if step > chunk {
			step = chunk
		}
		part := make([]byte, step)
		if err := c.fill(part); err != nil {
			return nil, err
		}
		buf = append(buf, part...)
	}
	return buf, nil
}

// Skip discards n bytes.
func (c *Cursor) Skip(n int64) error {
	if c.st == failed {
		return c.err
	}
	if !c.Fits(n) {
		return c.Fail(fmt.Errorf("%w: skip of %d bytes at offset %d", ErrTooLarge, n, c.pos))
	}
	d, err := c.src.Discard(int(n))
	c.pos += int64(d)
	if err != nil {
		return c.Fail(fmt.Errorf("%w at offset %d", ErrShortRead, c.pos))
	}
	return nil
}
