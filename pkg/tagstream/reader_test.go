package tagstream_test

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/warpdl/prestoimport/pkg/tagstream"
	"github.com/warpdl/prestoimport/pkg/tagstream/tagstreamtest"
)

func TestReader_RoundTripAllWidths(t *testing.T) {
	widths := []uint16{1, 2, 4}
	orders := []tagstream.Order{tagstream.BigEndian, tagstream.LittleEndian}
	for _, order := range orders {
		for _, tw := range widths {
			for _, lw := range widths {
				b := tagstreamtest.New(order, 7, 9, tw, lw)
				b.String(0x11, "hello")
				b.Int(0x12, 4, 0xdeadbeef)
				b.Int(0x13, 8, 1<<40+5)
				b.Bytes(0x14, nil)
				b.Tag(b.Flag() | 0x01)

				r := tagstream.NewReader(bytes.NewReader(b.Build()), order)
				if r.Failed() {
					t.Fatalf("tw=%d lw=%d: reader failed: %v", tw, lw, r.Err())
				}
				h := r.Header()
				if h.FileVersion != 7 || h.AppVersion != 9 || h.TagWidth != tw || h.LengthWidth != lw {
					t.Fatalf("unexpected header %+v", h)
				}

				if tag, _ := r.ReadTag(); tag != 0x11 {
					t.Fatalf("expected tag 0x11, got 0x%x", tag)
				}
				if s, err := r.ReadString(); err != nil || s != "hello" {
					t.Fatalf("expected 'hello', got %q (%v)", s, err)
				}
				if tag, _ := r.ReadTag(); tag != 0x12 {
					t.Fatalf("expected tag 0x12, got 0x%x", tag)
				}
				if v, err := r.ReadSizedU32(); err != nil || v != 0xdeadbeef {
					t.Fatalf("expected 0xdeadbeef, got 0x%x (%v)", v, err)
				}
				if tag, _ := r.ReadTag(); tag != 0x13 {
					t.Fatalf("expected tag 0x13, got 0x%x", tag)
				}
				if v, err := r.ReadSizedU64(); err != nil || v != 1<<40+5 {
					t.Fatalf("unexpected u64 %d (%v)", v, err)
				}
				if tag, _ := r.ReadTag(); tag != 0x14 {
					t.Fatalf("expected tag 0x14, got 0x%x", tag)
				}
				if p, err := r.ReadSizedBytes(); err != nil || len(p) != 0 {
					t.Fatalf("expected empty payload, got %v (%v)", p, err)
				}
				tag, _ := r.ReadTag()
				if !r.IsFlag(tag) {
					t.Fatalf("expected flag tag, got 0x%x", tag)
				}
				if !r.AtEOF() || r.Failed() {
					t.Fatalf("expected clean end of stream, failed=%v", r.Failed())
				}
			}
		}
	}
}

func TestReader_InvalidHeaderIsSticky(t *testing.T) {
	cases := []struct{ tw, lw uint16 }{{0, 2}, {1, 0}, {3, 2}, {1, 8}, {16, 16}}
	for _, c := range cases {
		b := tagstreamtest.New(tagstream.BigEndian, 1, 1, 1, 2)
		data := b.Build()
		// Patch the widths so the builder itself stays well-formed.
		data[8], data[9] = byte(c.tw>>8), byte(c.tw)
		data[10], data[11] = byte(c.lw>>8), byte(c.lw)
		data = append(data, 0x01, 0x00, 0x01, 'x')

		r := tagstream.NewReader(bytes.NewReader(data), tagstream.BigEndian)
		if !r.Failed() {
			t.Fatalf("tw=%d lw=%d: expected failed reader", c.tw, c.lw)
		}
		if !errors.Is(r.Err(), tagstream.ErrBadHeader) {
			t.Errorf("expected ErrBadHeader, got %v", r.Err())
		}
		if tag, err := r.ReadTag(); tag != 0 || err == nil {
			t.Errorf("expected zero tag with error, got 0x%x (%v)", tag, err)
		}
		if s, err := r.ReadString(); s != "" || err == nil {
			t.Errorf("expected empty string with error, got %q", s)
		}
		if v, _ := r.ReadU32(); v != 0 {
			t.Errorf("expected zero value, got %d", v)
		}
		if !r.Failed() {
			t.Error("failure must be sticky")
		}
	}
}

func TestReader_SizeMismatchFails(t *testing.T) {
	b := tagstreamtest.NewPresto()
	b.Tag(0x12).Size(4).Uint(4, 1)
	b.String(0x10, "after")
	r := tagstream.NewReader(bytes.NewReader(b.Build()), tagstream.BigEndian)

	r.ReadTag()
	if _, err := r.ReadSizedU64(); !errors.Is(err, tagstream.ErrFieldSize) {
		t.Fatalf("expected ErrFieldSize, got %v", err)
	}
	if tag, _ := r.ReadTag(); tag != 0 {
		t.Errorf("expected zero tag after failure, got 0x%x", tag)
	}
	if !r.Failed() {
		t.Error("expected reader to stay failed")
	}
}

func TestReader_TruncatedField(t *testing.T) {
	b := tagstreamtest.NewPresto()
	data := b.String(0x10, "truncated").Build()
	data = data[:len(data)-3]

	// Unknown-length source: the shortfall is found while reading.
	r := tagstream.NewReader(iotest.OneByteReader(bytes.NewReader(data)), tagstream.BigEndian)
	r.ReadTag()
	if _, err := r.ReadString(); !errors.Is(err, tagstream.ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}

	// Known-length source: the size is rejected before allocation.
	r = tagstream.NewReader(bytes.NewReader(data), tagstream.BigEndian)
	r.ReadTag()
	if _, err := r.ReadString(); !errors.Is(err, tagstream.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if !r.Failed() {
		t.Error("expected failed reader")
	}
}

func TestReader_SkipRecordAndEOF(t *testing.T) {
	b := tagstreamtest.NewPresto()
	b.String(0x30, "skip me")
	b.String(0x10, "keep")
	r := tagstream.NewReader(bytes.NewReader(b.Build()), tagstream.BigEndian)

	if r.AtEOF() {
		t.Fatal("unexpected EOF before first record")
	}
	r.ReadTag()
	if err := r.SkipRecord(); err != nil {
		t.Fatalf("SkipRecord: %v", err)
	}
	r.ReadTag()
	if s, _ := r.ReadString(); s != "keep" {
		t.Fatalf("expected 'keep', got %q", s)
	}
	if !r.AtEOF() {
		t.Fatal("expected EOF")
	}
	if r.Failed() {
		t.Fatal("EOF must not fail the reader")
	}
}

func TestDecodeRecord_UnknownTag(t *testing.T) {
	body := tagstreamtest.NewPresto().Fragment().String(0x10, "a").String(0x55, "b")
	b := tagstreamtest.NewPresto().Record(0x01, body)
	r := tagstream.NewReader(bytes.NewReader(b.Build()), tagstream.BigEndian)
	r.ReadTag()

	var seen []uint32
	err := r.DecodeRecord(func(tag uint32) (bool, error) {
		seen = append(seen, tag)
		if tag == 0x10 {
			return false, r.Discard(tag)
		}
		return false, r.Unknown(tag)
	})
	if !errors.Is(err, tagstream.ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("expected 2 dispatched tags, got %d", len(seen))
	}
}

func TestDecodeRecord_Overrun(t *testing.T) {
	// Record claims 3 bytes but its only field is 1+2+5 bytes long.
	b := tagstreamtest.NewPresto()
	b.Tag(0x01).Size(3).Tag(0x10).Size(5).Raw([]byte("abcde"))
	r := tagstream.NewReader(bytes.NewReader(b.Build()), tagstream.BigEndian)
	r.ReadTag()
	err := r.DecodeRecord(func(tag uint32) (bool, error) {
		_, err := r.ReadString()
		return false, err
	})
	if !errors.Is(err, tagstream.ErrOverrun) {
		t.Fatalf("expected ErrOverrun, got %v", err)
	}
}

func TestDecodeRecord_EndTagSkipsRest(t *testing.T) {
	body := tagstreamtest.NewPresto().Fragment().Tag(0x84).String(0x10, "ignored")
	b := tagstreamtest.NewPresto().Record(0x01, body).String(0x10, "next")
	r := tagstream.NewReader(bytes.NewReader(b.Build()), tagstream.BigEndian)
	r.ReadTag()
	err := r.DecodeRecord(func(tag uint32) (bool, error) {
		return tag == 0x84, nil
	})
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	r.ReadTag()
	if s, _ := r.ReadString(); s != "next" {
		t.Fatalf("expected to resume at the next record, got %q", s)
	}
}

func TestDecodeUntil_MissingTerminator(t *testing.T) {
	b := tagstreamtest.NewPresto().String(0x10, "x")
	r := tagstream.NewReader(bytes.NewReader(b.Build()), tagstream.BigEndian)
	err := r.DecodeUntil(true, func(tag uint32) (bool, error) {
		return false, r.Discard(tag)
	})
	if !errors.Is(err, tagstream.ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}

	r = tagstream.NewReader(bytes.NewReader(b.Build()), tagstream.BigEndian)
	err = r.DecodeUntil(false, func(tag uint32) (bool, error) {
		return false, r.Discard(tag)
	})
	if err != nil {
		t.Fatalf("expected clean stop at EOF, got %v", err)
	}
}

func TestCheckDepth(t *testing.T) {
	r := tagstream.NewReader(bytes.NewReader(tagstreamtest.NewPresto().Build()), tagstream.BigEndian)
	if err := r.CheckDepth(tagstream.MaxDepth); err != nil {
		t.Fatalf("unexpected error at max depth: %v", err)
	}
	if err := r.CheckDepth(tagstream.MaxDepth + 1); !errors.Is(err, tagstream.ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
}

func FuzzReader(f *testing.F) {
	b := tagstreamtest.NewPresto()
	b.String(0x10, "seed").Int(0x12, 8, 42).Tag(0x99)
	f.Add(b.Build())
	f.Fuzz(func(t *testing.T, data []byte) {
		r := tagstream.NewReader(bytes.NewReader(data), tagstream.BigEndian)
		for i := 0; i < 1000 && !r.AtEOF() && !r.Failed(); i++ {
			tag, err := r.ReadTag()
			if err != nil {
				break
			}
			if r.Discard(tag) != nil {
				break
			}
		}
		if r.Failed() && r.Err() == nil {
			t.Fatal("failed reader without an error")
		}
	})
}
