// Package tagstreamtest builds tag streams for tests.
package tagstreamtest

import "github.com/warpdl/prestoimport/pkg/tagstream"

// Builder assembles a tag stream in memory.
type Builder struct {
	order       tagstream.Order
	tagWidth    int
	lengthWidth int
	buf         []byte
}

// New starts a stream with the given header values.
func New(order tagstream.Order, fileVersion, appVersion uint32, tagWidth, lengthWidth uint16) *Builder {
	b := &Builder{order: order, tagWidth: int(tagWidth), lengthWidth: int(lengthWidth)}
	b.Uint(4, uint64(fileVersion))
	b.Uint(4, uint64(appVersion))
	b.Uint(2, uint64(tagWidth))
	b.Uint(2, uint64(lengthWidth))
	return b
}

// NewPresto starts a big-endian stream with one-byte tags and two-byte lengths.
func NewPresto() *Builder {
	return New(tagstream.BigEndian, 0x1000, 0x2000, 1, 2)
}

// Fragment returns a Builder without a header, for nested record bodies.
func (b *Builder) Fragment() *Builder {
	return &Builder{order: b.order, tagWidth: b.tagWidth, lengthWidth: b.lengthWidth}
}

// Uint appends an integer of the given width in the stream's byte order.
func (b *Builder) Uint(width int, v uint64) *Builder {
	raw := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		raw[i] = byte(v)
		v >>= 8
	}
	if b.order == tagstream.LittleEndian {
		for i, j := 0, width-1; i < j; i, j = i+1, j-1 {
			raw[i], raw[j] = raw[j], raw[i]
		}
	}
	b.buf = append(b.buf, raw...)
	return b
}

// Raw appends bytes verbatim.
func (b *Builder) Raw(p []byte) *Builder {
	b.buf = append(b.buf, p...)
	return b
}

// Flag returns the flag bit for the stream's tag width.
func (b *Builder) Flag() uint32 {
	return 1 << (8*uint32(b.tagWidth) - 1)
}

// Tag appends a bare tag, e.g. a flag tag.
func (b *Builder) Tag(tag uint32) *Builder {
	return b.Uint(b.tagWidth, uint64(tag))
}

// Size appends a length field.
func (b *Builder) Size(n int) *Builder {
	return b.Uint(b.lengthWidth, uint64(n))
}

// Bytes appends tag, length and payload.
func (b *Builder) Bytes(tag uint32, p []byte) *Builder {
	return b.Tag(tag).Size(len(p)).Raw(p)
}

// String appends a text record.
func (b *Builder) String(tag uint32, s string) *Builder {
	return b.Bytes(tag, []byte(s))
}

// Int appends a fixed-width integer record.
func (b *Builder) Int(tag uint32, width int, v uint64) *Builder {
	return b.Tag(tag).Size(width).Uint(width, v)
}

// Record appends tag, length and the body of a nested fragment.
func (b *Builder) Record(tag uint32, body *Builder) *Builder {
	return b.Bytes(tag, body.buf)
}

// Build returns the encoded stream.
func (b *Builder) Build() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}
