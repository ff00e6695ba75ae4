package cookies

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/warpdl/prestoimport/pkg/logger"
	"github.com/warpdl/prestoimport/pkg/tagstream"
)

// ErrInvalidCookie means a cookie record decoded but has no name. The stream
// is still healthy; the owning node drops the cookie and carries on.
var ErrInvalidCookie = errors.New("cookies: cookie has no name")

type decoder struct {
	r       *tagstream.Reader
	log     logger.Logger
	dropped int
	skipped int
}

// Parse decodes a cookies4.dat stream. Any structural error abandons the
// whole file and returns a nil Jar.
func Parse(src io.Reader, l logger.Logger) (*Jar, error) {
	r := tagstream.NewReader(src, tagstream.BigEndian)
	if r.Failed() {
		return nil, fmt.Errorf("cookies: %w", r.Err())
	}
	d := &decoder{r: r, log: logger.OrNop(l)}
	jar := &Jar{Header: r.Header()}
	if err := d.root(&jar.Root); err != nil {
		return nil, fmt.Errorf("cookies: %w", err)
	}
	jar.Dropped = d.dropped
	jar.Skipped = d.skipped
	d.log.Debug("cookies: decoded %d cookies, dropped %d, skipped %d records",
		jar.Root.Count(), d.dropped, d.skipped)
	return jar, nil
}

// root decodes the top level, which is the implicit root domain's contents.
// It is the only place unknown records are tolerated, up to a fixed budget.
func (d *decoder) root(dom *Domain) error {
	return d.r.DecodeUntil(false, func(tag uint32) (bool, error) {
		switch tag {
		case TagEndDomain:
			return true, nil
		case TagDomain, TagPath, TagCookie:
			return false, d.member(dom, tag, 1)
		}
		d.skipped++
		if d.skipped > MaxUnknownTopLevel {
			return false, d.r.Fail(fmt.Errorf("%w 0x%x: more than %d unknown top-level records",
				tagstream.ErrUnknownTag, tag, MaxUnknownTopLevel))
		}
		d.log.Debug("cookies: skipping unknown top-level tag 0x%x at offset %d", tag, d.r.Pos())
		return false, d.r.Discard(tag)
	})
}

// member decodes one entry owned by dom.
func (d *decoder) member(dom *Domain, tag uint32, depth int) error {
	switch tag {
	case TagCookie:
		return d.addCookie(&dom.Cookies)
	case TagPath:
		p, err := d.path(depth)
		if err != nil {
			return err
		}
		dom.Paths = append(dom.Paths, p)
	case TagDomain:
		sub, err := d.domain(depth)
		if err != nil {
			return err
		}
		dom.Domains = append(dom.Domains, sub)
	}
	return nil
}

// domain decodes a domain entry: its own bounded record, then its cookies,
// paths and subdomains up to the end-of-domain flag.
func (d *decoder) domain(depth int) (Domain, error) {
	var dom Domain
	if err := d.r.CheckDepth(depth); err != nil {
		return dom, err
	}
	err := d.r.DecodeRecord(func(tag uint32) (bool, error) {
		var err error
		switch tag {
		case TagDomainName:
			dom.Name, err = d.r.ReadString()
		case TagDomainFilter:
			dom.CookieFilter, err = d.r.ReadSizedU8()
		case TagPathHandling:
			dom.PathHandling, err = d.r.ReadSizedU8()
		case TagThirdPartyFilter:
			dom.ThirdPartyFilter, err = d.r.ReadSizedU8()
		default:
			err = d.r.Unknown(tag)
		}
		return false, err
	})
	if err != nil {
		return dom, err
	}
	err = d.r.DecodeUntil(true, func(tag uint32) (bool, error) {
		switch tag {
		case TagEndDomain:
			return true, nil
		case TagDomain, TagPath, TagCookie:
			return false, d.member(&dom, tag, depth+1)
		}
		return false, d.r.Unknown(tag)
	})
	return dom, err
}

// path decodes a path entry: its name record, then its cookies and sub-paths
// up to the end-of-path flag.
func (d *decoder) path(depth int) (Path, error) {
	var p Path
	if err := d.r.CheckDepth(depth); err != nil {
		return p, err
	}
	err := d.r.DecodeRecord(func(tag uint32) (bool, error) {
		if tag != TagPathName {
			return false, d.r.Unknown(tag)
		}
		var err error
		p.Name, err = d.r.ReadString()
		return false, err
	})
	if err != nil {
		return p, err
	}
	err = d.r.DecodeUntil(true, func(tag uint32) (bool, error) {
		switch tag {
		case TagEndPath:
			return true, nil
		case TagCookie:
			return false, d.addCookie(&p.Cookies)
		case TagPath:
			sub, err := d.path(depth + 1)
			if err != nil {
				return false, err
			}
			p.Paths = append(p.Paths, sub)
			return false, nil
		}
		return false, d.r.Unknown(tag)
	})
	return p, err
}

func (d *decoder) addCookie(list *[]Cookie) error {
	at := d.r.Pos()
	c, err := ReadCookie(d.r)
	if errors.Is(err, ErrInvalidCookie) {
		d.dropped++
		d.log.Debug("cookies: dropped nameless cookie at offset %d", at)
		return nil
	}
	if err != nil {
		return err
	}
	*list = append(*list, c)
	return nil
}

func unixTime(v uint64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(int64(v), 0).UTC()
}

// ReadCookie decodes one cookie record; r must be positioned just after the
// cookie tag. A record without a name returns ErrInvalidCookie and leaves r
// healthy, positioned after the record.
func ReadCookie(r *tagstream.Reader) (Cookie, error) {
	var c Cookie
	err := r.DecodeRecord(func(tag uint32) (bool, error) {
		var err error
		var v uint64
		switch tag {
		case TagCookieName:
			c.Name, err = r.ReadString()
		case TagCookieValue:
			c.Value, err = r.ReadString()
		case TagCookieExpires:
			v, err = r.ReadSizedU64()
			c.Expires = unixTime(v)
		case TagCookieLastUsed:
			v, err = r.ReadSizedU64()
			c.LastUsed = unixTime(v)
		case TagCookieComment, TagCookieCommentURL:
			err = r.Discard(tag)
		case TagCookieDomain:
			c.Domain, err = r.ReadString()
		case TagCookiePath:
			c.Path, err = r.ReadString()
		case TagCookiePort:
			c.Port, err = r.ReadString()
		case TagCookieVersion:
			c.Version, err = r.ReadSizedU8()
		case TagSecure:
			c.Secure = true
		case TagHTTPOnly:
			c.HTTPOnly = true
		case TagServerOnly:
			c.ServerOnly = true
		case TagDeleteProtected:
			c.DeleteProtected = true
		case TagNotForPrefix:
			c.NotForPrefix = true
		case TagPassword:
			c.Password = true
		case TagAuthenticated:
			c.Authenticated = true
		case TagThirdParty:
			c.ThirdParty = true
		default:
			err = r.Unknown(tag)
		}
		return false, err
	})
	if err != nil {
		return Cookie{}, err
	}
	if c.Name == "" {
		return Cookie{}, ErrInvalidCookie
	}
	return c, nil
}
