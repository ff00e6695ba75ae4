package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
	"github.com/warpdl/prestoimport/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

func Execute(args []string, bArgs BuildArgs) error {
	app := cli.App{
		Name:                  "prestoimport",
		HelpName:              "prestoimport",
		Usage:                 "Import legacy Presto-era Opera profile data.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "prestoimport <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			{
				Name:               "cookies",
				Aliases:            []string{"c"},
				Usage:              "decode a cookies4.dat file",
				Action:             cookiesAction,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        CookiesDescription,
				Flags:              cookieFlags,
			},
			{
				Name:               "wand",
				Aliases:            []string{"w"},
				Usage:              "decode saved passwords from a wand.dat file",
				Action:             wandAction,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        WandDescription,
				Flags:              wandFlags,
			},
			{
				Name:               "visited",
				Usage:              "decode a vlink4.dat visited links file",
				Action:             visitedAction,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        VisitedDescription,
			},
			{
				Name:               "detect",
				Usage:              "identify container files or list those in a profile",
				Action:             detectAction,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        DetectDescription,
			},
			{
				Name:                   "import",
				Aliases:                []string{"i"},
				Usage:                  "import a whole profile into the staging database",
				Action:                 importAction,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            ImportDescription,
				Flags:                  importFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:        "keyring",
				Usage:       "store or forget the master password in the system keyring",
				Description: KeyringDescription,
				Subcommands: []cli.Command{
					{
						Name:   "set",
						Usage:  "prompt for the master password and store it",
						Action: keyringSet,
						Flags:  keyringFlags,
					},
					{
						Name:   "delete",
						Usage:  "remove the stored master password",
						Action: keyringDelete,
						Flags:  keyringFlags,
					},
				},
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of prestoimport",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		HideHelp:    true,
		HideVersion: true,
		Writer:      stdout,
		ErrWriter:   stderr,
	}
	common.Stdout, common.Stderr = stdout, stderr
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
