package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/stackctl/cmd/stackctl/commands"
	"git.home.luguber.info/inful/stackctl/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("stackctl"),
		kong.Description("Manage the modules and tools of a local stack installation."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
