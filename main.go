package main

import (
	"os"

	"github.com/rbinspect/rbinspect/cli"
)

// Version information, set by goreleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	c := cli.New()
	c.SetVersion(version, commit, date)
	if err := c.Run(os.Args); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
