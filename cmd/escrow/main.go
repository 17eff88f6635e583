package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slog"
)

func main() {
	var version = getVersion()

	cliApp := &cli.App{
		Name:    "escrow",
		Usage:   "Create and settle peer-to-peer escrows on the SecureSwap contract.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "The directory where configuration will be stored (default: $HOME/.secureswap)",
			},
		},
		Commands: []*cli.Command{
			newCreateCommand(),
			newDepositCommand(),
			newCancelCommand(),
			newCompleteCommand(),
			newLookupCommand(),
			newListCommand(),
			newEventsCommand(),
			newWatchCommand(),
			newStatsCommand(),
			newNetworkCommand(),
			newWalletCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
