package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/urfave/cli"
	cmdcommon "github.com/warpdl/prestoimport/cmd/common"
	"github.com/warpdl/prestoimport/common"
	"github.com/warpdl/prestoimport/pkg/credman/keyring"
	"github.com/warpdl/prestoimport/pkg/legacycrypt"
)

var (
	keyringCheckFile    string
	keyringPasswordFile string

	keyringFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "check-file",
			Usage:       "verify the password against this opcert6.dat before storing it",
			Destination: &keyringCheckFile,
		},
		cli.StringFlag{
			Name:        "password-file",
			Usage:       "read the master password from the first line of this file",
			Destination: &keyringPasswordFile,
		},
	}
)

var errMismatch = errors.New("passwords do not match")

func readNewPassword() ([]byte, error) {
	if keyringPasswordFile != "" {
		return keyring.ReadPasswordFile(keyringPasswordFile)
	}
	pw, err := readPassword("Master password: ")
	if err != nil {
		return nil, err
	}
	again, err := readPassword("Repeat master password: ")
	if err != nil {
		return nil, err
	}
	defer legacycrypt.Wipe(again)
	if !bytes.Equal(pw, again) {
		legacycrypt.Wipe(pw)
		return nil, errMismatch
	}
	return pw, nil
}

func keyringSet(ctx *cli.Context) error {
	pw, err := readNewPassword()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "keyring", "read_password", err)
		return nil
	}
	defer legacycrypt.Wipe(pw)

	if keyringCheckFile != "" {
		f, err := osFs.Open(keyringCheckFile)
		if err != nil {
			cmdcommon.PrintRuntimeErr(ctx, "keyring", "open_check_file", err)
			return nil
		}
		code, err := legacycrypt.LoadCheckCode(f)
		f.Close()
		if err != nil {
			cmdcommon.PrintRuntimeErr(ctx, "keyring", "load_check_code", err)
			return nil
		}
		if !legacycrypt.NewMasterPassword(code).CheckUserPassword(pw) {
			cmdcommon.PrintRuntimeErr(ctx, "keyring", "verify", legacycrypt.ErrWrongPassword)
			return nil
		}
	}
	if err := secretStore(common.MasterPasswordUser).SetPassword(pw); err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "keyring", "store", err)
		return nil
	}
	fmt.Fprintln(stdout, "master password stored")
	return nil
}

func keyringDelete(ctx *cli.Context) error {
	err := secretStore(common.MasterPasswordUser).DeletePassword()
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		fmt.Fprintln(stdout, "no stored master password")
	case err != nil:
		cmdcommon.PrintRuntimeErr(ctx, "keyring", "delete", err)
	default:
		fmt.Fprintln(stdout, "master password removed")
	}
	return nil
}

