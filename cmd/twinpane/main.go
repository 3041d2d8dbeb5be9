// twinpane - queued, cancelable file operations and ZIP archive management.
package main

import (
	"os"

	"github.com/twinpane/twinpane/internal/cli"
)

// Version information, overridden at release time via
// -ldflags "-X main.Version=... -X main.BuildTime=...".
var (
	Version   = "v0.1.0-dev"
	BuildTime = "unknown"
)

func main() {
	cli.Version = Version
	cli.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
