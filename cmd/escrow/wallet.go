package main

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/secureswap/escrow-cli/pkg/wallet"
	"github.com/urfave/cli/v2"
)

func newWalletCommand() *cli.Command {
	var pkString string

	return &cli.Command{
		Name:      "account",
		Usage:     "Account management for an Ethereum-style wallet",
		UsageText: "escrow account <subcommand> [arguments...]",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Creates a new account",
				UsageText: "escrow account create <file_path>",
				Description: "Create an Ethereum-style wallet (secp256k1 key pair) at a \n" +
					"provided file path.\n\n" +
					"EXAMPLE:\n\nescrow account create /path/to/file",
				Action: func(cCtx *cli.Context) error {
					filename := cCtx.Args().Get(0)
					if filename == "" {
						return errors.New("filename is empty")
					}

					address, err := wallet.CreateKeyFile(filename)
					if err != nil {
						return err
					}

					fmt.Printf("Wallet address %s created\n", address)
					fmt.Printf("Private key saved in %s\n", filename)
					return nil
				},
			},
			{
				Name:      "address",
				Usage:     "Print the public key for an account's private key",
				UsageText: "escrow account address [command options] <value>",
				Description: "The result of the `escrow account create` command will write a private key to a file, and \n" +
					"this lets you retrieve the public key value for the file, or a private key hex string.\n" +
					"If no `--string` flag is provided, then the presumption is the argument is a filepath.\n\n" +
					"EXAMPLES:\n\nescrow account address /path/to/file\nescrow account address --string abcd1234",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "string",
						Category:    "OPTIONAL:",
						Usage:       "Specify if the argument is a hex string",
						Destination: &pkString,
					},
				},
				Action: func(cCtx *cli.Context) error {
					pkFile := cCtx.Args().Get(0)
					if pkFile == "" && pkString == "" {
						return errors.New("no argument provided")
					}

					var privateKey *ecdsa.PrivateKey
					var err error
					if pkString == "" {
						privateKey, err = wallet.LoadKeyFile(pkFile)
					} else {
						privateKey, err = wallet.ParseKey(pkString)
					}
					if err != nil {
						return fmt.Errorf("loading key: %s", err)
					}

					fmt.Println(wallet.AddressOf(privateKey))
					return nil
				},
			},
		},
	}
}
