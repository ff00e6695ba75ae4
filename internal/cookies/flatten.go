package cookies

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// FlatCookie is a cookie with the host and path its position in the tree
// implies, after any version 1 overrides.
type FlatCookie struct {
	Host string
	// HostOnly is false when a domain override widened the scope to
	// subdomains.
	HostOnly bool
	Path     string
	Cookie
}

// Flatten walks the tree and returns one row per cookie. Cookies scoped to a
// public suffix ("com", "co.uk") cannot be set by any site and are dropped;
// their number is returned as well.
func Flatten(root *Domain) (out []FlatCookie, dropped int) {
	var walk func(d *Domain, labels []string)
	walk = func(d *Domain, labels []string) {
		if d.Name != "" {
			labels = append([]string{d.Name}, labels...)
		}
		host := strings.Join(labels, ".")
		for _, c := range d.Cookies {
			if fc, ok := flat(host, "/", c); ok {
				out = append(out, fc)
			} else {
				dropped++
			}
		}
		for i := range d.Paths {
			flattenPath(&d.Paths[i], host, "", &out, &dropped)
		}
		for i := range d.Domains {
			walk(&d.Domains[i], labels)
		}
	}
	walk(root, nil)
	return out, dropped
}

func flattenPath(p *Path, host, parent string, out *[]FlatCookie, dropped *int) {
	path := parent + "/" + p.Name
	for _, c := range p.Cookies {
		if fc, ok := flat(host, path, c); ok {
			*out = append(*out, fc)
		} else {
			*dropped++
		}
	}
	for i := range p.Paths {
		flattenPath(&p.Paths[i], host, path, out, dropped)
	}
}

func flat(host, path string, c Cookie) (FlatCookie, bool) {
	fc := FlatCookie{Host: host, HostOnly: true, Path: path, Cookie: c}
	if c.Domain != "" {
		fc.Host = strings.TrimPrefix(c.Domain, ".")
		fc.HostOnly = false
	}
	if c.Path != "" {
		fc.Path = c.Path
	}
	fc.Host = strings.ToLower(fc.Host)
	if fc.Host == "" || IsPublicSuffix(fc.Host) {
		return fc, false
	}
	return fc, true
}

// IsPublicSuffix reports whether host is itself a public suffix. Single
// label hosts outside the ICANN list, such as "localhost", are not.
func IsPublicSuffix(host string) bool {
	ps, icann := publicsuffix.PublicSuffix(host)
	if ps != host {
		return false
	}
	return icann || strings.Contains(host, ".")
}
