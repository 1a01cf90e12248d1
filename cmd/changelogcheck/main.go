package main

import (
	"changelogcheck/internal/cli"
	_ "changelogcheck/internal/fetcher/providers"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
