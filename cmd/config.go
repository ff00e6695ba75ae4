package cmd

const DESCRIPTION = `
prestoimport reads the profile files of Presto-era Opera (12.x and
older) and migrates cookies, saved passwords and visited links out of
them. Files are only ever read; the profile is left untouched.
`

const (
	CookiesDescription = `The cookies command decodes a cookies4.dat file and writes
the cookies in Netscape cookie-jar format, which curl, wget
and most browsers can import.

Example:
        prestoimport cookies ~/.opera/cookies4.dat > cookies.txt
        prestoimport cookies -o cookies.txt ~/.opera/cookies4.dat

`
	WandDescription = `The wand command decodes the password manager file wand.dat
and lists the saved logins. When the profile is protected by
a master password, the check file (opcert6.dat) next to it is
used to verify the password before anything is decrypted.

Passwords are hidden unless --show-passwords is given.

Example:
        prestoimport wand ~/.opera/wand.dat
        prestoimport wand --password-file pw.txt --show-passwords wand.dat

`
	VisitedDescription = `The visited command decodes a vlink4.dat file and prints
every visited URL with the time it was last visited.

Example:
        prestoimport visited ~/.opera/vlink4.dat

`
	DetectDescription = `The detect command identifies container files by name and
content. Given a directory, it lists every container below it.

Example:
        prestoimport detect ~/.opera
        prestoimport detect backup.bin

`
	ImportDescription = `The import command copies every container out of a profile,
decodes it and stores the result in the staging database.
Sources already imported are skipped unless --force is given.

Without a directory argument the profile is taken from
PRESTOIMPORT_PROFILE, then from the default locations.

Example:
        prestoimport import
        prestoimport import --db out.db ~/.opera

`
	KeyringDescription = `The keyring command stores the Presto master password in the
system keyring so that imports can run unattended. Without a
keyring, a 0600 file in the config directory is used instead.

Example:
        prestoimport keyring set
        prestoimport keyring delete

`
)

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`
