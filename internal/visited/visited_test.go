package visited

import (
	"bytes"
	"errors"
	"testing"

	"github.com/warpdl/prestoimport/pkg/tagstream"
	"github.com/warpdl/prestoimport/pkg/tagstream/tagstreamtest"
)

func frag() *tagstreamtest.Builder {
	return tagstreamtest.NewPresto().Fragment()
}

func TestParse_OneLinkThenEOF(t *testing.T) {
	b := tagstreamtest.NewPresto()
	b.Record(TagFileEntry, frag().String(TagURL, "http://opera.com/").Int(TagLastVisited, 4, 1200000000))

	h, err := Parse(bytes.NewReader(b.Build()), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(h.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(h.Links))
	}
	if h.Links[0].URL != "http://opera.com/" || h.Links[0].LastVisited.Unix() != 1200000000 {
		t.Errorf("unexpected link %+v", h.Links[0])
	}
}

func TestParse_UnknownTagBeforeFirstEntry(t *testing.T) {
	b := tagstreamtest.NewPresto()
	b.String(0x07, "junk")
	b.Record(TagFileEntry, frag().String(TagURL, "http://opera.com/"))
	if _, err := Parse(bytes.NewReader(b.Build()), nil); !errors.Is(err, tagstream.ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
}

func TestParse_RelativeLinks(t *testing.T) {
	entry := frag().
		String(TagURL, "http://example.org/page").
		Int(TagLastVisited, 4, 100).
		Tag(TagFormQuery).
		Record(TagRelativeEntry, frag().String(TagRelativeURL, "#top").Int(TagRelativeVisited, 4, 150)).
		Record(TagRelativeEntry, frag().String(TagRelativeURL, "#no-time")).
		Record(TagRelativeEntry, frag().Int(TagRelativeVisited, 4, 160))

	b := tagstreamtest.NewPresto()
	b.Record(TagFileEntry, entry)
	b.Record(TagFileEntry, frag().String(TagURL, "http://example.org/other"))

	h, err := Parse(bytes.NewReader(b.Build()), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(h.Links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(h.Links))
	}
	first := h.Links[0]
	if !first.FormQuery {
		t.Error("expected form query flag")
	}
	if len(first.Relative) != 1 || first.Relative[0].Suffix != "#top" || first.Relative[0].LastVisited.Unix() != 150 {
		t.Fatalf("unexpected relative links %+v", first.Relative)
	}
	if h.Incomplete != 2 {
		t.Errorf("expected 2 incomplete relative links, got %d", h.Incomplete)
	}
	if !h.Links[1].LastVisited.IsZero() {
		t.Error("missing time should stay zero")
	}
}

func TestParse_EmptyFile(t *testing.T) {
	h, err := Parse(bytes.NewReader(tagstreamtest.NewPresto().Build()), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(h.Links) != 0 {
		t.Fatalf("expected no links, got %d", len(h.Links))
	}
}

func TestParse_TruncatedEntry(t *testing.T) {
	b := tagstreamtest.NewPresto()
	b.Record(TagFileEntry, frag().String(TagURL, "http://opera.com/"))
	data := b.Build()
	if _, err := Parse(bytes.NewReader(data[:len(data)-4]), nil); err == nil {
		t.Fatal("expected an error for a truncated entry")
	}
}

func FuzzParse(f *testing.F) {
	b := tagstreamtest.NewPresto()
	b.Record(TagFileEntry, frag().String(TagURL, "u").Record(TagRelativeEntry, frag().String(TagRelativeURL, "#a").Int(TagRelativeVisited, 4, 1)))
	f.Add(b.Build())
	f.Fuzz(func(t *testing.T, data []byte) {
		Parse(bytes.NewReader(data), nil)
	})
}
