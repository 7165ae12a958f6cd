package main

import "github.com/abdul-hamid-achik/apictl/apps/cli/cmd"

// Overridden at build time through -ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cmd.Execute(version, buildTime)
}
