package cookies

import (
	"time"

	"github.com/warpdl/prestoimport/pkg/tagstream"
)

// Record and flag tags of cookies4.dat. They are part of the file format.
const (
	TagDomain    = 0x01
	TagPath      = 0x02
	TagCookie    = 0x03
	TagEndDomain = 0x84
	TagEndPath   = 0x85

	TagDomainName       = 0x1e
	TagDomainFilter     = 0x1f
	TagPathHandling     = 0x21
	TagThirdPartyFilter = 0x25
	TagPathName         = 0x1d

	TagCookieName       = 0x10
	TagCookieValue      = 0x11
	TagCookieExpires    = 0x12
	TagCookieLastUsed   = 0x13
	TagCookieComment    = 0x14
	TagCookieCommentURL = 0x15
	TagCookieDomain     = 0x16
	TagCookiePath       = 0x17
	TagCookiePort       = 0x18
	TagCookieVersion    = 0x1a

	TagSecure          = 0x99
	TagServerOnly      = 0x9b
	TagDeleteProtected = 0x9c
	TagNotForPrefix    = 0xa0
	TagPassword        = 0xa2
	TagAuthenticated   = 0xa3
	TagThirdParty      = 0xa4
	TagHTTPOnly        = 0xa8
)

// MaxUnknownTopLevel is how many unrecognized top-level records are skipped
// before the file is treated as corrupt.
const MaxUnknownTopLevel = 8

// Cookie is a single stored cookie.
// Value is SENSITIVE: never log it or put it in an error.
type Cookie struct {
	Name  string
	Value string
	// Expires is zero for session cookies.
	Expires  time.Time
	LastUsed time.Time

	// Version 1 (RFC 2965) overrides of the scope implied by the tree.
	Domain string
	Path   string
	Port   string

	Version uint8

	Secure          bool
	HTTPOnly        bool
	ServerOnly      bool
	DeleteProtected bool
	NotForPrefix    bool
	Password        bool
	Authenticated   bool
	ThirdParty      bool
}

// Path is a path node. Its Name is one path segment; the full path is the
// chain of names from the domain down.
type Path struct {
	Name    string
	Cookies []Cookie
	Paths   []Path
}

// Domain is a domain node. Name is a single DNS label; the root's is empty.
type Domain struct {
	Name string

	CookieFilter     uint8
	PathHandling     uint8
	ThirdPartyFilter uint8

	Cookies []Cookie
	Paths   []Path
	Domains []Domain
}

// Jar is a decoded cookies4.dat.
type Jar struct {
	Header tagstream.Header
	Root   Domain
	// Dropped counts cookie records that decoded cleanly but were invalid.
	Dropped int
	// Skipped counts unknown top-level records passed over.
	Skipped int
}

// Count returns the number of cookies in the tree rooted at d.
func (d *Domain) Count() int {
	n := len(d.Cookies)
	for i := range d.Paths {
		n += d.Paths[i].count()
	}
	for i := range d.Domains {
		n += d.Domains[i].Count()
	}
	return n
}

func (p *Path) count() int {
	n := len(p.Cookies)
	for i := range p.Paths {
		n += p.Paths[i].count()
	}
	return n
}
