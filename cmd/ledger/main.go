// Command ledger previews expense allocations and party balances from JSON
// documents, or queries a running ledger server.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/HorusGoul/trizum-sub001/pkg/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ledger",
		Usage: "Inspect shared expense ledgers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logging.SetupWithLevel(logging.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			SharesCommand(),
			BalancesCommand(),
		},
	}
}
