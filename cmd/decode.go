package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	cmdcommon "github.com/warpdl/prestoimport/cmd/common"
	"github.com/warpdl/prestoimport/internal/importer"
	"github.com/warpdl/prestoimport/internal/profile"
)

var (
	cookiesOut string

	cookieFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "output, o",
			Usage:       "write the Netscape cookie file here (default: stdout)",
			Destination: &cookiesOut,
		},
	}

	wandCheckFile    string
	wandPasswordFile string
	showPasswords    bool

	wandFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "check-file",
			Usage:       "master password check file (default: opcert6.dat next to wand.dat)",
			Destination: &wandCheckFile,
		},
		cli.StringFlag{
			Name:        "password-file",
			Usage:       "read the master password from the first line of this file",
			Destination: &wandPasswordFile,
		},
		cli.BoolFlag{
			Name:        "show-passwords",
			Usage:       "print recovered passwords instead of hiding them (default: false)",
			Destination: &showPasswords,
		},
	}
)

// decodeFile runs one container through the importer with a printing sink.
// prep may configure the importer first.
func decodeFile(ctx *cli.Context, name, p string, kind profile.Kind, out string, prep func(*importer.Importer) error) error {
	l, err := newLogger()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, name, "logger", err)
		return nil
	}
	defer l.Close()

	w, closeOut, err := createOutput(out)
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, name, "create_output", err)
		return nil
	}
	defer closeOut()

	im := importer.New(osFs, &printSink{w: w, showPasswords: showPasswords}, l)
	im.Force = true
	defer im.Close()
	if prep != nil {
		if err := prep(im); err != nil {
			cmdcommon.PrintRuntimeErr(ctx, name, "prepare", err)
			return nil
		}
	}
	if _, err := im.ImportFile(context.Background(), p, kind); err != nil {
		cmdcommon.PrintRuntimeErr(ctx, name, "decode", err)
	}
	return nil
}

func cookiesAction(ctx *cli.Context) error {
	p, ok := requireArg(ctx, "cookies4.dat")
	if !ok {
		return nil
	}
	return decodeFile(ctx, "cookies", p, profile.KindCookies, cookiesOut, nil)
}

func visitedAction(ctx *cli.Context) error {
	p, ok := requireArg(ctx, "vlink4.dat")
	if !ok {
		return nil
	}
	return decodeFile(ctx, "visited", p, profile.KindVisited, "", nil)
}

func wandAction(ctx *cli.Context) error {
	p, ok := requireArg(ctx, "wand.dat")
	if !ok {
		return nil
	}
	return decodeFile(ctx, "wand", p, profile.KindWand, "", func(im *importer.Importer) error {
		check := wandCheckFile
		if check == "" {
			check = filepath.Join(filepath.Dir(p), "opcert6.dat")
			if ok, _ := afero.Exists(osFs, check); !ok {
				check = ""
			}
		}
		if check != "" {
			if _, err := im.ImportFile(context.Background(), check, profile.KindCheckFile); err != nil {
				return err
			}
		}
		pm, err := newPasswordManager(im.Log, wandPasswordFile, false)
		if err != nil {
			return err
		}
		im.Password = pm
		return nil
	})
}
