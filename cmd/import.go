package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	cmdcommon "github.com/warpdl/prestoimport/cmd/common"
	"github.com/warpdl/prestoimport/common"
	"github.com/warpdl/prestoimport/internal/importer"
	"github.com/warpdl/prestoimport/internal/profile"
	"github.com/warpdl/prestoimport/internal/store"
	"github.com/warpdl/prestoimport/pkg/credman"
)

var (
	dbPath             string
	forceImport        bool
	importPasswordFile string
	rememberPassword   bool

	importFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "db",
			Usage:       "staging database path (default: staging.db in the config directory)",
			Destination: &dbPath,
		},
		cli.BoolFlag{
			Name:        "force, f",
			Usage:       "import sources that were imported before (default: false)",
			Destination: &forceImport,
		},
		cli.StringFlag{
			Name:        "password-file",
			Usage:       "read the master password from the first line of this file",
			Destination: &importPasswordFile,
		},
		cli.BoolFlag{
			Name:        "remember, r",
			Usage:       "store a typed master password in the keyring once it works (default: false)",
			Destination: &rememberPassword,
		},
	}
)

func importAction(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	l, err := newLogger()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "import", "logger", err)
		return nil
	}
	defer l.Close()

	dir := ctx.Args().First()
	if dir == "" {
		dir = os.Getenv(common.ProfileEnv)
	}
	if dir == "" {
		loc, _, err := profile.Discover(osFs)
		if err != nil {
			cmdcommon.PrintRuntimeErr(ctx, "import", "discover", err)
			return nil
		}
		l.Info("using %s profile at %s", loc.Name, loc.Dir)
		dir = loc.Dir
	}

	key, err := credman.SealKey(secretStore(common.SealKeyUser))
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "import", "seal_key", err)
		return nil
	}
	path := dbPath
	if path == "" {
		path = common.DefaultDBPath()
		if err := osFs.MkdirAll(filepath.Dir(path), 0700); err != nil {
			cmdcommon.PrintRuntimeErr(ctx, "import", "config_dir", err)
			return nil
		}
	}
	st, err := store.Open(path, key, l)
	clear(key)
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "import", "open_db", err)
		return nil
	}
	defer st.Close()

	pm, err := newPasswordManager(l, importPasswordFile, rememberPassword)
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "import", "password", err)
		return nil
	}
	im := importer.New(osFs, st, l)
	im.Password = pm
	im.Force = forceImport

	p := mpb.New(mpb.WithOutput(stderr))
	var bar *mpb.Bar
	im.Progress = func(done, total int) {
		if bar == nil {
			bar = cmdcommon.InitImportBar(p, "", total)
		}
		bar.SetCurrent(int64(done))
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, err := im.ImportProfile(sigCtx, dir)
	if bar != nil && !bar.Completed() {
		bar.Abort(false)
	}
	p.Wait()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "import", "import_profile", err)
		return nil
	}

	failed := printResults(results)
	if counts, err := st.Counts(); err == nil {
		fmt.Fprintf(stdout, "\n%s: %d cookies, %d logins, %d visited links from %d sources\n",
			path, counts["cookies"], counts["logins"], counts["visited"], counts["sources"])
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d containers failed to import", failed, len(results))
	}
	return nil
}

func printResults(results []importer.Result) (failed int) {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tRECORDS\tDROPPED\tSTATUS\tPATH")
	for _, r := range results {
		status := "ok"
		switch {
		case r.Err != nil:
			status = "error: " + r.Err.Error()
			failed++
		case r.Skipped:
			status = "skipped"
		case r.Source.Kind == profile.KindCheckFile:
			status = "loaded"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", cmdcommon.Beaut(r.Source.Kind.String(), 9), r.Records, r.Dropped, status, r.Source.Path)
	}
	tw.Flush()
	return failed
}
