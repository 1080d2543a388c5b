// Command eclipsemon validates the header chain served by an Ethereum node
// and raises the alarm when the node looks eclipsed.
//
// Usage:
//
//	eclipsemon run --config eclipsemon.toml
//	eclipsemon run --rpc-url http://localhost:8545 --start-block 18000000
//	eclipsemon secstate decode 0xf844...
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "eclipsemon",
		Usage:   "Detect eclipse attacks by validating the host node's header chain",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the monitor against a host node",
				Flags:  runFlags,
				Action: run,
			},
			{
				Name:  "secstate",
				Usage: "Inspect an encoded security state",
				Subcommands: []*cli.Command{
					{
						Name:      "decode",
						Usage:     "Decode a hex-encoded security state",
						ArgsUsage: "<hex>",
						Action:    decodeSecState,
					},
				},
			},
			{
				Name:  "config",
				Usage: "Print the effective configuration as TOML",
				Flags: runFlags,
				Action: func(c *cli.Context) error {
					cfg, err := buildConfig(c)
					if err != nil {
						return err
					}
					return writeConfig(c.App.Writer, cfg)
				},
			},
		},
	}
}
