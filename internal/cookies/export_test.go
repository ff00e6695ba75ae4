package cookies

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func sampleTree() *Domain {
	return &Domain{Domains: []Domain{{
		Name:    "com",
		Cookies: []Cookie{{Name: "tld", Value: "nope"}},
		Domains: []Domain{{
			Name: "opera",
			Domains: []Domain{{
				Name:    "www",
				Cookies: []Cookie{{Name: "sid", Value: "abc", Secure: true, HTTPOnly: true}},
				Paths: []Path{{
					Name:    "docs",
					Cookies: []Cookie{{Name: "p", Value: "1"}},
					Paths:   []Path{{Name: "v2", Cookies: []Cookie{{Name: "q", Value: "2"}}}},
				}},
			}},
			Cookies: []Cookie{{Name: "wide", Value: "w", Domain: ".opera.com", Path: "/x"}},
		}},
	}, {
		Name:    "localhost",
		Cookies: []Cookie{{Name: "dev", Value: "1"}},
	}}}
}

func TestFlatten_RebuildsHostsAndPaths(t *testing.T) {
	flat, dropped := Flatten(sampleTree())
	if dropped != 1 {
		t.Errorf("expected the cookie on 'com' to be dropped, dropped=%d", dropped)
	}
	got := map[string]FlatCookie{}
	for _, c := range flat {
		got[c.Name] = c
	}
	cases := []struct {
		name, host, path string
		hostOnly         bool
	}{
		{"sid", "www.opera.com", "/", true},
		{"p", "www.opera.com", "/docs", true},
		{"q", "www.opera.com", "/docs/v2", true},
		{"wide", "opera.com", "/x", false},
		{"dev", "localhost", "/", true},
	}
	for _, c := range cases {
		fc, ok := got[c.name]
		if !ok {
			t.Errorf("cookie %q missing", c.name)
			continue
		}
		if fc.Host != c.host || fc.Path != c.path || fc.HostOnly != c.hostOnly {
			t.Errorf("%s: got host=%q path=%q hostOnly=%v", c.name, fc.Host, fc.Path, fc.HostOnly)
		}
	}
	if _, ok := got["tld"]; ok {
		t.Error("cookie on a public suffix must be dropped")
	}
}

func TestIsPublicSuffix(t *testing.T) {
	cases := map[string]bool{
		"com":           true,
		"co.uk":         true,
		"github.io":     true,
		"opera.com":     false,
		"localhost":     false,
		"www.opera.com": false,
	}
	for host, want := range cases {
		if got := IsPublicSuffix(host); got != want {
			t.Errorf("IsPublicSuffix(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestWriteNetscape(t *testing.T) {
	exp := time.Date(2031, 5, 6, 0, 0, 0, 0, time.UTC)
	cookies := []FlatCookie{
		{Host: "www.opera.com", HostOnly: true, Path: "/", Cookie: Cookie{Name: "sid", Value: "abc", Secure: true, HTTPOnly: true, Expires: exp}},
		{Host: "opera.com", Path: "/x", Cookie: Cookie{Name: "wide", Value: "a\tb"}},
	}
	var buf bytes.Buffer
	if err := WriteNetscape(&buf, cookies); err != nil {
		t.Fatalf("WriteNetscape: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != netscapeHeader {
		t.Fatalf("expected header line, got %q", lines[0])
	}
	body := lines[len(lines)-2:]
	want0 := "#HttpOnly_www.opera.com\tFALSE\t/\tTRUE\t" + "1935792000" + "\tsid\tabc"
	if body[0] != want0 {
		t.Errorf("expected %q, got %q", want0, body[0])
	}
	if fields := strings.Split(body[1], "\t"); len(fields) != 7 || fields[0] != ".opera.com" || fields[1] != "TRUE" || fields[4] != "0" || fields[6] != "a b" {
		t.Errorf("unexpected line %q", body[1])
	}
}
