package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/warpdl/prestoimport/internal/cookies"
	"github.com/warpdl/prestoimport/internal/importer"
	"github.com/warpdl/prestoimport/internal/visited"
	"github.com/warpdl/prestoimport/pkg/credman/types"
)

// printSink writes decoded records to w instead of a database. It backs
// the single-file commands.
type printSink struct {
	w             io.Writer
	showPasswords bool
}

var _ importer.Sink = (*printSink)(nil)

func (s *printSink) Seen(importer.Source) (bool, error) { return false, nil }
func (s *printSink) Done(importer.Source) error         { return nil }

func (s *printSink) Cookies(_ importer.Source, list []cookies.FlatCookie) error {
	return cookies.WriteNetscape(s.w, list)
}

func (s *printSink) Credentials(_ importer.Source, list []types.Credential) error {
	tw := tabwriter.NewWriter(s.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tURL\tUSERNAME\tPASSWORD")
	for _, c := range list {
		pw := c.Password
		if !s.showPasswords && c.HasPassword() {
			pw = "********"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Kind, c.URL, c.Username, pw)
	}
	return tw.Flush()
}

func (s *printSink) Visited(_ importer.Source, links []visited.Link) error {
	for _, l := range links {
		if _, err := fmt.Fprintf(s.w, "%s\t%s\n", stamp(l.LastVisited), l.URL); err != nil {
			return err
		}
		for _, r := range l.Relative {
			if _, err := fmt.Fprintf(s.w, "%s\t  %s\n", stamp(r.LastVisited), r.Suffix); err != nil {
				return err
			}
		}
	}
	return nil
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
