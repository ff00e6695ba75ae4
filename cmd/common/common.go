// Package common holds the pieces every prestoimport command shares: help
// and version output, error reporting, the import progress bar and the
// master password prompt.
package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/crypto/ssh/terminal"
)

// VersionCmdStr is printed by the version command. Execute fills it in.
var VersionCmdStr string

// Stdout receives help and version text. Stderr receives errors and
// prompts, so decoded output on stdout can be piped into other tools.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

var (
	showAppHelpAndExit   = cli.ShowAppHelpAndExit
	showCommandHelp      = cli.ShowCommandHelp
	readTerminalPassword = terminal.ReadPassword
	stdinFd              = func() int { return int(os.Stdin.Fd()) }
)

// InitImportBar adds a bar counting imported containers to p.
func InitImportBar(p *mpb.Progress, prefix string, total int) *mpb.Bar {
	style := mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟")
	name := prefix + "Importing"
	return p.New(int64(total),
		style,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.OnComplete(decor.CountersNoUnit("%d / %d", decor.WC{W: 8}), "Complete"),
		),
		mpb.AppendDecorators(decor.Percentage(decor.WC{W: 5})),
	)
}

// ReadPassword shows prompt on Stderr and reads one line from the terminal
// without echo.
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(Stderr, prompt)
	pw, err := readTerminalPassword(stdinFd())
	fmt.Fprintln(Stderr)
	if err != nil {
		return nil, fmt.Errorf("cannot read password: %w", err)
	}
	return pw, nil
}

// Help shows the help of the command named by the first argument, or the
// application help when there is none.
func Help(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" || arg == "help" {
		fmt.Fprintf(Stdout, "%s %s\n", ctx.App.Name, ctx.App.Version)
		showAppHelpAndExit(ctx, 0)
		return nil
	}
	if err := showCommandHelp(ctx, arg); err != nil {
		return err
	}
	return nil
}

func GetVersion(ctx *cli.Context) error {
	fmt.Fprintln(Stdout, VersionCmdStr)
	return nil
}

// PrintRuntimeErr reports a failed step of a command as
// "<app>: <cmd>[<action>]: <err>". ctx may be nil.
func PrintRuntimeErr(ctx *cli.Context, cmd, action string, err error) {
	if err == nil {
		return
	}
	name := os.Args[0]
	if ctx != nil && ctx.App != nil {
		name = ctx.App.HelpName
	}
	fmt.Fprintf(Stderr, "%s: %s[%s]: %s\n", name, cmd, action, err)
}

// PrintErrWithCmdHelp prints err and the current command's help.
func PrintErrWithCmdHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(ctx, err, func() {
		if err := showCommandHelp(ctx, ctx.Command.Name); err != nil {
			fmt.Fprintln(Stderr, err)
		}
	})
}

// PrintErrWithHelp prints err and the application help, then exits with
// status 1.
func PrintErrWithHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(ctx, err, func() {
		showAppHelpAndExit(ctx, 1)
	})
}

func printErrWithCallback(ctx *cli.Context, err error, callback func()) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case msg == "flag: help requested":
		return Help(ctx)
	case strings.Contains(msg, "-version"), strings.HasSuffix(msg, " -v"):
		return GetVersion(ctx)
	}
	fmt.Fprintf(Stderr, "%s: %s\n\n", ctx.App.HelpName, err)
	callback()
	return nil
}

// UsageErrorCallback is the OnUsageError hook of the app and its commands.
func UsageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	if ctx.Command.Name != "" {
		return PrintErrWithCmdHelp(ctx, err)
	}
	return PrintErrWithHelp(ctx, err)
}

// Beaut centers s in a field n wide. The odd space goes to the right;
// strings wider than n are returned unchanged.
func Beaut(s string, n int) string {
	pad := n - len(s)
	if pad <= 0 {
		return s
	}
	left := strings.Repeat(" ", pad/2)
	return left + s + left + strings.Repeat(" ", pad%2)
}
