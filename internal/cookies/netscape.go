package cookies

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// netscapeHeader is the first line curl and wget expect in a cookie jar.
const netscapeHeader = "# Netscape HTTP Cookie File"

// WriteNetscape writes cookies as a Netscape cookie jar: seven tab-separated
// fields per line, http-only cookies prefixed with #HttpOnly_ and session
// cookies with an expiry of 0.
func WriteNetscape(w io.Writer, cookies []FlatCookie) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, netscapeHeader)
	fmt.Fprintln(bw, "# Converted from a Presto cookies4.dat file.")
	fmt.Fprintln(bw)
	for _, c := range cookies {
		domain := c.Host
		sub := "FALSE"
		if !c.HostOnly {
			domain = "." + domain
			sub = "TRUE"
		}
		if c.HTTPOnly {
			domain = "#HttpOnly_" + domain
		}
		var expires int64
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain, sub, c.Path, boolField(c.Secure), expires,
			sanitize(c.Name), sanitize(c.Value))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("error: failed to write cookie jar: %w", err)
	}
	return nil
}

func boolField(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// sanitize keeps a field on its line; tabs and newlines would shift columns.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		}
		return r
	}, s)
}
