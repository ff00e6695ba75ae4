package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	cmdcommon "github.com/warpdl/prestoimport/cmd/common"
	"github.com/warpdl/prestoimport/common"
	"github.com/warpdl/prestoimport/pkg/credman"
	"github.com/warpdl/prestoimport/pkg/credman/keyring"
	"github.com/warpdl/prestoimport/pkg/logger"
)

var (
	debugLog       bool
	logFile        string
	keyringService string

	globalFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "debug",
			Usage:       "print [DEBUG] diagnostics (default: false)",
			EnvVar:      common.DebugEnv,
			Destination: &debugLog,
		},
		cli.StringFlag{
			Name:        "log-file",
			Usage:       "also append log output to this file",
			Destination: &logFile,
		},
		cli.StringFlag{
			Name:        "keyring-service",
			Usage:       "keyring service name for stored secrets",
			EnvVar:      common.KeyringServiceEnv,
			Value:       common.AppName,
			Destination: &keyringService,
		},
	}
)

var (
	osFs   afero.Fs  = afero.NewOsFs()
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	readPassword = cmdcommon.ReadPassword
)

func newLogger() (logger.Logger, error) {
	console := logger.NewStandardLogger(log.New(stderr, "", 0)).SetDebug(debugLog)
	if logFile == "" {
		return console, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file: %w", err)
	}
	file := logger.NewFileLogger(log.New(f, "", log.LstdFlags), f.Close).SetDebug(debugLog)
	return logger.NewMultiLogger(console, file), nil
}

// secretStore is the keyring entry user, falling back to a file of the
// same name in the config directory.
func secretStore(user string) keyring.Store {
	return keyring.WithFallback(
		keyring.NewKeyring(keyringService, user),
		keyring.NewFileStore(common.ConfigDir(), user),
	)
}

// newPasswordManager builds the master password candidates: the
// --password-file, then the keyring, then up to three prompts.
func newPasswordManager(l logger.Logger, passwordFile string, remember bool) (*credman.Manager, error) {
	var stores []keyring.Store
	if passwordFile != "" {
		pw, err := keyring.ReadPasswordFile(passwordFile)
		if err != nil {
			return nil, fmt.Errorf("cannot read password file: %w", err)
		}
		stores = append(stores, credman.Static(pw))
	}
	master := secretStore(common.MasterPasswordUser)
	stores = append(stores, master)

	m := credman.NewManager(l, stores...)
	m.Prompt = func(attempt int) ([]byte, error) {
		return readPassword(fmt.Sprintf("Master password (attempt %d of %d): ", attempt, m.MaxPrompts))
	}
	if remember {
		m.Remember = master
	}
	return m, nil
}

func requireArg(ctx *cli.Context, what string) (string, bool) {
	p := ctx.Args().First()
	if p == "" || p == "help" {
		if p == "" {
			cmdcommon.PrintErrWithCmdHelp(ctx, fmt.Errorf("missing %s argument", what))
		} else {
			cli.ShowCommandHelp(ctx, ctx.Command.Name)
		}
		return "", false
	}
	return p, true
}

// createOutput opens path for writing with 0600, or returns stdout for ""
// and "-".
func createOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := osFs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
