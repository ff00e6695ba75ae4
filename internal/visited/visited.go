// Package visited decodes the Presto visited-link store (vlink4.dat), which
// records when each URL was last visited along with relative links (URL
// suffixes such as fragments) seen under it.
package visited

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/warpdl/prestoimport/pkg/logger"
	"github.com/warpdl/prestoimport/pkg/tagstream"
)

// Tags of vlink4.dat.
const (
	TagFileEntry       = 0x02
	TagURL             = 0x03
	TagLastVisited     = 0x04
	TagFormQuery       = 0x8b
	TagRelativeEntry   = 0x22
	TagRelativeURL     = 0x23
	TagRelativeVisited = 0x24
)

// errIncomplete marks a relative link missing its suffix or time.
var errIncomplete = errors.New("visited: incomplete relative link")

// RelativeLink is a suffix of the owning URL visited at LastVisited.
type RelativeLink struct {
	Suffix      string
	LastVisited time.Time
}

// Link is one visited URL.
type Link struct {
	URL         string
	LastVisited time.Time
	FormQuery   bool
	Relative    []RelativeLink
}

// History is a decoded vlink4.dat.
type History struct {
	Header tagstream.Header
	Links  []Link
	// Incomplete counts relative links dropped for missing a field.
	Incomplete int
}

// Parse decodes a vlink4.dat stream. The top level is a run of file entries
// ended only by end of input; anything else there is a structural error.
func Parse(src io.Reader, l logger.Logger) (*History, error) {
	log := logger.OrNop(l)
	r := tagstream.NewReader(src, tagstream.BigEndian)
	if r.Failed() {
		return nil, fmt.Errorf("visited: %w", r.Err())
	}
	h := &History{Header: r.Header()}
	err := r.DecodeUntil(false, func(tag uint32) (bool, error) {
		if tag != TagFileEntry {
			return false, r.Unknown(tag)
		}
		link, dropped, err := readLink(r)
		if err != nil {
			return false, err
		}
		h.Incomplete += dropped
		h.Links = append(h.Links, link)
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("visited: %w", err)
	}
	log.Debug("visited: decoded %d links, dropped %d relative links", len(h.Links), h.Incomplete)
	return h, nil
}

func readLink(r *tagstream.Reader) (Link, int, error) {
	var link Link
	dropped := 0
	err := r.DecodeRecord(func(tag uint32) (bool, error) {
		var err error
		switch tag {
		case TagURL:
			link.URL, err = r.ReadString()
		case TagLastVisited:
			var v uint32
			v, err = r.ReadSizedU32()
			link.LastVisited = unixTime(v)
		case TagFormQuery:
			link.FormQuery = true
		case TagRelativeEntry:
			var rel RelativeLink
			rel, err = readRelative(r)
			switch {
			case errors.Is(err, errIncomplete):
				dropped++
				err = nil
			case err == nil:
				link.Relative = append(link.Relative, rel)
			}
		default:
			err = r.Unknown(tag)
		}
		return false, err
	})
	return link, dropped, err
}

func readRelative(r *tagstream.Reader) (RelativeLink, error) {
	var rel RelativeLink
	var haveURL, haveTime bool
	err := r.DecodeRecord(func(tag uint32) (bool, error) {
		var err error
		switch tag {
		case TagRelativeURL:
			rel.Suffix, err = r.ReadString()
			haveURL = true
		case TagRelativeVisited:
			var v uint32
			v, err = r.ReadSizedU32()
			rel.LastVisited = unixTime(v)
			haveTime = true
		default:
			err = r.Unknown(tag)
		}
		return false, err
	})
	if err != nil {
		return rel, err
	}
	if !haveURL || !haveTime {
		return rel, errIncomplete
	}
	return rel, nil
}

func unixTime(v uint32) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(int64(v), 0).UTC()
}
