package tagstream

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrBadHeader means the stream header declared an unsupported width.
	ErrBadHeader = errors.New("tagstream: invalid stream header")
	// ErrFieldSize means a fixed-size field was stored with the wrong length.
	ErrFieldSize = errors.New("tagstream: field size mismatch")
	// ErrUnknownTag means a bounded record contained a tag its owner does
	// not understand.
	ErrUnknownTag = errors.New("tagstream: unknown tag")
	// ErrOverrun means a record's content ran past its declared end.
	ErrOverrun = errors.New("tagstream: record overruns its length")
)

// Header is the fixed prologue of every tag stream.
type Header struct {
	FileVersion uint32
	AppVersion  uint32
	TagWidth    uint16
	LengthWidth uint16
}

// HeaderSize is the encoded size of a Header.
const HeaderSize = 12

func validWidth(w uint16) bool {
	return w == 1 || w == 2 || w == 4
}

// Valid reports whether both widths are 1, 2 or 4.
func (h Header) Valid() bool {
	return validWidth(h.TagWidth) && validWidth(h.LengthWidth)
}

// Reader decodes a tag stream. It reads the header on construction; an
// invalid header leaves the reader failed for good.
type Reader struct {
	*Cursor
	hdr Header
}

// NewReader wraps src and reads the stream header from it.
func NewReader(src io.Reader, order Order) *Reader {
	r := &Reader{Cursor: NewCursor(src, order)}
	r.readHeader()
	return r
}

func (r *Reader) readHeader() {
	fv, _ := r.ReadU32()
	av, _ := r.ReadU32()
	tw, _ := r.ReadU16()
	lw, err := r.ReadU16()
	if err != nil {
		return
	}
	r.hdr = Header{FileVersion: fv, AppVersion: av, TagWidth: tw, LengthWidth: lw}
	if !r.hdr.Valid() {
		r.Fail(fmt.Errorf("%w: tag width %d, length width %d", ErrBadHeader, tw, lw))
	}
}

// Header returns the header read from the stream.
func (r *Reader) Header() Header {
	return r.hdr
}

// FlagBit returns the bit that marks payload-less flag tags for this stream.
func (r *Reader) FlagBit() uint32 {
	if !validWidth(r.hdr.TagWidth) {
		return 0
	}
	return 1 << (8*uint32(r.hdr.TagWidth) - 1)
}

// IsFlag reports whether tag is a flag tag, i.e. carries no length or payload.
func (r *Reader) IsFlag(tag uint32) bool {
	return tag&r.FlagBit() != 0
}

// ReadTag reads one tag of the declared tag width.
func (r *Reader) ReadTag() (uint32, error) {
	if r.Failed() {
		return 0, r.Err()
	}
	v, err := r.ReadUint(int(r.hdr.TagWidth))
	return uint32(v), err
}

// ReadSize reads one length field of the declared length width.
func (r *Reader) ReadSize() (uint32, error) {
	if r.Failed() {
		return 0, r.Err()
	}
	v, err := r.ReadUint(int(r.hdr.LengthWidth))
	return uint32(v), err
}

// ReadSizedBytes reads a length field followed by that many bytes.
func (r *Reader) ReadSizedBytes() ([]byte, error) {
	n, err := r.ReadSize()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int64(n))
}

// ReadString is ReadSizedBytes interpreted as text.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadSizedBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadSizedUint reads a length field that must equal width, then the
// integer itself.
func (r *Reader) ReadSizedUint(width int) (uint64, error) {
	n, err := r.ReadSize()
	if err != nil {
		return 0, err
	}
	if int(n) != width {
		return 0, r.Fail(fmt.Errorf("%w: got %d bytes, want %d at offset %d", ErrFieldSize, n, width, r.Pos()))
	}
	return r.ReadUint(width)
}

// ReadSizedU8 reads a length-prefixed one byte value.
func (r *Reader) ReadSizedU8() (uint8, error) {
	v, err := r.ReadSizedUint(1)
	return uint8(v), err
}

// ReadSizedU16 reads a length-prefixed 16-bit value.
func (r *Reader) ReadSizedU16() (uint16, error) {
	v, err := r.ReadSizedUint(2)
	return uint16(v), err
}

// ReadSizedU32 reads a length-prefixed 32-bit value.
func (r *Reader) ReadSizedU32() (uint32, error) {
	v, err := r.ReadSizedUint(4)
	return uint32(v), err
}

// ReadSizedU64 reads a length-prefixed 64-bit value.
func (r *Reader) ReadSizedU64() (uint64, error) {
	return r.ReadSizedUint(8)
}

// SkipRecord reads a length field and discards that many bytes.
func (r *Reader) SkipRecord() error {
	n, err := r.ReadSize()
	if err != nil {
		return err
	}
	return r.Skip(int64(n))
}

// Discard is a handler body for known tags whose value is not kept.
// Flag tags have nothing to discard.
func (r *Reader) Discard(tag uint32) error {
	if r.IsFlag(tag) {
		return nil
	}
	return r.SkipRecord()
}

// Unknown fails the reader for a tag that has no handler.
func (r *Reader) Unknown(tag uint32) error {
	return r.Fail(fmt.Errorf("%w 0x%x at offset %d", ErrUnknownTag, tag, r.Pos()))
}
