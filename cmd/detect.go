package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	cmdcommon "github.com/warpdl/prestoimport/cmd/common"
	"github.com/warpdl/prestoimport/internal/profile"
)

func detectAction(ctx *cli.Context) error {
	if _, ok := requireArg(ctx, "file or directory"); !ok {
		return nil
	}
	for _, p := range ctx.Args() {
		if dir, _ := afero.IsDir(osFs, p); dir {
			found, err := profile.Scan(osFs, p)
			if err != nil {
				cmdcommon.PrintRuntimeErr(ctx, "detect", "scan", err)
				continue
			}
			for _, c := range found {
				fmt.Fprintf(stdout, "%-10s%s\n", c.Kind, c.Path)
			}
			continue
		}
		kind, err := profile.Detect(osFs, p)
		if err != nil {
			cmdcommon.PrintRuntimeErr(ctx, "detect", "detect", err)
			continue
		}
		fmt.Fprintf(stdout, "%-10s%s\n", kind, p)
	}
	return nil
}
