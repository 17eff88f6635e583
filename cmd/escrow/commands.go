package main

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/olekukonko/tablewriter"
	"github.com/secureswap/escrow-cli/internal/app"
	"github.com/secureswap/escrow-cli/pkg/escrowprovider"
	"github.com/secureswap/escrow-cli/pkg/wallet"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"
)

// networkFlags are shared by every command that talks to the chain. A named
// network from the config file supplies defaults; explicit flags win.
func networkFlags(name, rpcURL, contract *string, chainID *int64) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "network",
			Aliases:     []string{"n"},
			Category:    "OPTIONAL:",
			Usage:       "Named network from the config file",
			Destination: name,
		},
		&cli.StringFlag{
			Name:        "rpc-url",
			Category:    "OPTIONAL:",
			Usage:       "Ethereum JSON-RPC endpoint (e.g., https://rpc.sepolia.org)",
			Destination: rpcURL,
		},
		&cli.StringFlag{
			Name:        "contract",
			Category:    "OPTIONAL:",
			Usage:       "Escrow contract address",
			DefaultText: DefaultContractAddress,
			Destination: contract,
		},
		&cli.Int64Flag{
			Name:        "chain-id",
			Category:    "OPTIONAL:",
			Usage:       "Expected chain id; dialing a different chain fails",
			Destination: chainID,
		},
	}
}

func keyFlags(privateKey, keyFile *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "private-key",
			Aliases:     []string{"k"},
			Category:    "OPTIONAL:",
			Usage:       "Ethereum wallet private key as a hex string",
			Destination: privateKey,
		},
		&cli.StringFlag{
			Name:        "key-file",
			Category:    "OPTIONAL:",
			Usage:       "Path to a file holding the hex-encoded private key",
			Destination: keyFile,
		},
	}
}

// resolveNetwork merges the named config entry with explicit flag overrides.
func resolveNetwork(cCtx *cli.Context, name, rpcURL, contract string, chainID int64) (network, error) {
	var net network
	if name != "" {
		dir, err := defaultConfigLocation(cCtx.String("dir"))
		if err != nil {
			return network{}, fmt.Errorf("default config location: %s", err)
		}
		cfg, err := loadConfig(path.Join(dir, "config.yaml"))
		if err != nil {
			return network{}, fmt.Errorf("load config: %s", err)
		}
		entry, ok := cfg.Networks[name]
		if !ok {
			return network{}, fmt.Errorf("network %s not found; add it with `escrow network add`", name)
		}
		net = entry
	}

	if rpcURL != "" {
		net.RPCURL = rpcURL
	}
	if contract != "" {
		net.ContractAddress = contract
	}
	if chainID != 0 {
		net.ChainID = chainID
	}

	if net.RPCURL == "" {
		return network{}, errors.New("no RPC endpoint; pass --rpc-url or --network")
	}
	if net.ContractAddress == "" {
		net.ContractAddress = DefaultContractAddress
	}
	if !common.IsHexAddress(net.ContractAddress) {
		return network{}, fmt.Errorf("%s is not a valid contract address", net.ContractAddress)
	}
	return net, nil
}

func loadKey(privateKey, keyFile string) (*ecdsa.PrivateKey, error) {
	switch {
	case privateKey != "":
		return wallet.ParseKey(privateKey)
	case keyFile != "":
		return wallet.LoadKeyFile(keyFile)
	default:
		return nil, errors.New("no key provided; pass --private-key or --key-file")
	}
}

// openSession dials the configured network. key may be nil for read-only
// commands.
func openSession(cCtx *cli.Context, net network, key *ecdsa.PrivateKey) (*escrowprovider.Provider, error) {
	opts := []escrowprovider.Option{}
	if net.ChainID != 0 {
		opts = append(opts, escrowprovider.WithChainID(net.ChainID))
	}
	if key != nil {
		opts = append(opts, escrowprovider.WithPrivateKey(key))
	}
	return escrowprovider.New(cCtx.Context, net.RPCURL, common.HexToAddress(net.ContractAddress), opts...)
}

func parseEscrowID(cCtx *cli.Context) (uint64, error) {
	arg := cCtx.Args().Get(0)
	if arg == "" {
		return 0, errors.New("must provide an escrow id")
	}
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid escrow id", arg)
	}
	return id, nil
}

func newCreateCommand() *cli.Command {
	var name, rpcURL, contract, privateKey, keyFile string
	var counterparty, amountA, amountB string
	var chainID int64

	return &cli.Command{
		Name:      "create",
		Usage:     "Create a new escrow funded with your deposit",
		ArgsUsage: "<description>",
		Description: "Create an escrow between you (party A) and a counterparty (party B). \n" +
			"Your deposit is sent with the transaction; the counterparty has until \n" +
			"the deposit deadline to match with theirs.\n\nEXAMPLE:\n\n" +
			"escrow create --network sepolia --private-key abcd1234 \\\n" +
			"  --counterparty 0x1234abcd --amount 1.5 --counterparty-amount 2.0 \\\n" +
			"  \"laptop sale\"",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{
				Name:        "counterparty",
				Aliases:     []string{"c"},
				Category:    "REQUIRED:",
				Usage:       "Ethereum wallet address of party B",
				Destination: &counterparty,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "amount",
				Aliases:     []string{"a"},
				Category:    "REQUIRED:",
				Usage:       "Your deposit in ether (e.g., 1.5)",
				Destination: &amountA,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "counterparty-amount",
				Aliases:     []string{"b"},
				Category:    "REQUIRED:",
				Usage:       "The counterparty's required deposit in ether",
				Destination: &amountB,
				Required:    true,
			},
		}, networkFlags(&name, &rpcURL, &contract, &chainID)...), keyFlags(&privateKey, &keyFile)...),
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return errors.New("must provide a description")
			}
			description := cCtx.Args().First()

			partyB, err := app.NewAccount(counterparty)
			if err != nil {
				return fmt.Errorf("not a valid counterparty: %s", err)
			}
			weiA, err := parseEther(amountA)
			if err != nil {
				return err
			}
			weiB, err := parseEther(amountB)
			if err != nil {
				return err
			}

			net, err := resolveNetwork(cCtx, name, rpcURL, contract, chainID)
			if err != nil {
				return err
			}
			key, err := loadKey(privateKey, keyFile)
			if err != nil {
				return err
			}

			provider, err := openSession(cCtx, net, key)
			if err != nil {
				return err
			}
			defer provider.Close()

			dispatcher := app.NewDispatcher(provider, wallet.AddressOf(key))

			stop := spin("Creating escrow...")
			id, err := dispatcher.Create(cCtx.Context, partyB.Address(), weiA, weiB, description)
			stop()
			if err != nil {
				return fmt.Errorf("create: %s", err)
			}

			fmt.Printf("Escrow %d created\n", id)
			fmt.Printf("Deposited %s %s\n", formatEther(weiA), chainSymbol(provider.ChainID().Int64()))
			return nil
		},
	}
}

func newDepositCommand() *cli.Command {
	var name, rpcURL, contract, privateKey, keyFile string
	var chainID int64

	return &cli.Command{
		Name:      "deposit",
		Usage:     "Deposit your matching funds into an escrow as party B",
		ArgsUsage: "<escrow_id>",
		Description: "Deposit exactly the amount the escrow requires from party B. The \n" +
			"action is validated locally first, so a doomed transaction never \n" +
			"costs gas.\n\nEXAMPLE:\n\nescrow deposit --network sepolia --private-key abcd1234 7",
		Flags: append(networkFlags(&name, &rpcURL, &contract, &chainID), keyFlags(&privateKey, &keyFile)...),
		Action: func(cCtx *cli.Context) error {
			id, err := parseEscrowID(cCtx)
			if err != nil {
				return err
			}

			net, err := resolveNetwork(cCtx, name, rpcURL, contract, chainID)
			if err != nil {
				return err
			}
			key, err := loadKey(privateKey, keyFile)
			if err != nil {
				return err
			}

			provider, err := openSession(cCtx, net, key)
			if err != nil {
				return err
			}
			defer provider.Close()

			dispatcher := app.NewDispatcher(provider, wallet.AddressOf(key))

			stop := spin("Depositing funds...")
			err = dispatcher.Deposit(cCtx.Context, id)
			stop()
			if err != nil {
				return fmt.Errorf("deposit: %s", err)
			}

			fmt.Printf("Deposit for escrow %d confirmed\n", id)
			return nil
		},
	}
}

func newCancelCommand() *cli.Command {
	var name, rpcURL, contract, privateKey, keyFile string
	var chainID int64

	return &cli.Command{
		Name:      "cancel",
		Usage:     "Cancel an escrow and refund the deposits",
		ArgsUsage: "<escrow_id>",
		Description: "Cancel an escrow that has not completed. Deposited funds are \n" +
			"returned to their owners by the contract.\n\nEXAMPLE:\n\n" +
			"escrow cancel --network sepolia --private-key abcd1234 7",
		Flags: append(networkFlags(&name, &rpcURL, &contract, &chainID), keyFlags(&privateKey, &keyFile)...),
		Action: func(cCtx *cli.Context) error {
			id, err := parseEscrowID(cCtx)
			if err != nil {
				return err
			}

			net, err := resolveNetwork(cCtx, name, rpcURL, contract, chainID)
			if err != nil {
				return err
			}
			key, err := loadKey(privateKey, keyFile)
			if err != nil {
				return err
			}

			provider, err := openSession(cCtx, net, key)
			if err != nil {
				return err
			}
			defer provider.Close()

			dispatcher := app.NewDispatcher(provider, wallet.AddressOf(key))

			stop := spin("Cancelling escrow...")
			err = dispatcher.Cancel(cCtx.Context, id)
			stop()
			if err != nil {
				return fmt.Errorf("cancel: %s", err)
			}

			fmt.Printf("Escrow %d cancelled\n", id)
			return nil
		},
	}
}

func newCompleteCommand() *cli.Command {
	var name, rpcURL, contract, privateKey, keyFile string
	var chainID int64

	return &cli.Command{
		Name:      "complete",
		Usage:     "Complete a fully funded escrow and release the deposits",
		ArgsUsage: "<escrow_id>",
		Description: "Release a fully funded escrow so each party receives the other's \n" +
			"deposit. Requires both deposits to be in place.\n\nEXAMPLE:\n\n" +
			"escrow complete --network sepolia --private-key abcd1234 7",
		Flags: append(networkFlags(&name, &rpcURL, &contract, &chainID), keyFlags(&privateKey, &keyFile)...),
		Action: func(cCtx *cli.Context) error {
			id, err := parseEscrowID(cCtx)
			if err != nil {
				return err
			}

			net, err := resolveNetwork(cCtx, name, rpcURL, contract, chainID)
			if err != nil {
				return err
			}
			key, err := loadKey(privateKey, keyFile)
			if err != nil {
				return err
			}

			provider, err := openSession(cCtx, net, key)
			if err != nil {
				return err
			}
			defer provider.Close()

			dispatcher := app.NewDispatcher(provider, wallet.AddressOf(key))

			stop := spin("Completing escrow...")
			err = dispatcher.Complete(cCtx.Context, id)
			stop()
			if err != nil {
				return fmt.Errorf("complete: %s", err)
			}

			fmt.Printf("Escrow %d completed\n", id)
			return nil
		},
	}
}

// escrowView is the JSON projection of an escrow plus its derived state.
type escrowView struct {
	ID              uint64 `json:"id"`
	Status          string `json:"status"`
	PartyA          string `json:"party_a"`
	PartyB          string `json:"party_b"`
	AmountA         string `json:"amount_a"`
	AmountB         string `json:"amount_b"`
	Description     string `json:"description"`
	PartyADeposited bool   `json:"party_a_deposited"`
	PartyBDeposited bool   `json:"party_b_deposited"`
	CreationTime    string `json:"creation_time,omitempty"`
	DepositDeadline string `json:"deposit_deadline,omitempty"`
	CanDeposit      bool   `json:"can_deposit"`
	CanCancel       bool   `json:"can_cancel"`
	CanComplete     bool   `json:"can_complete"`
}

func newEscrowView(e app.Escrow, status app.Status, perms app.Permissions) escrowView {
	view := escrowView{
		ID:              e.ID,
		Status:          status.String(),
		PartyA:          e.PartyA.Hex(),
		PartyB:          e.PartyB.Hex(),
		AmountA:         formatEther(e.AmountA),
		AmountB:         formatEther(e.AmountB),
		Description:     e.Description,
		PartyADeposited: e.PartyADeposited,
		PartyBDeposited: e.PartyBDeposited,
		CanDeposit:      perms.CanDeposit,
		CanCancel:       perms.CanCancel,
		CanComplete:     perms.CanComplete,
	}
	if !e.CreationTime.IsZero() {
		view.CreationTime = e.CreationTime.Format(time.RFC3339)
	}
	if !e.DepositDeadline.IsZero() {
		view.DepositDeadline = e.DepositDeadline.Format(time.RFC3339)
	}
	return view
}

func newLookupCommand() *cli.Command {
	var name, rpcURL, contract, address, format string
	var chainID int64

	return &cli.Command{
		Name:      "lookup",
		Usage:     "Show an escrow's state and the actions open to an account",
		ArgsUsage: "<escrow_id>",
		Description: "Fetch an escrow and derive its status. With --account, also shows \n" +
			"which actions that account may take right now.\n\nEXAMPLE:\n\n" +
			"escrow lookup --network sepolia --account 0x1234abcd 7",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "account",
				Aliases:     []string{"a"},
				Category:    "OPTIONAL:",
				Usage:       "Ethereum wallet address to derive permissions for",
				Destination: &address,
			},
			&cli.StringFlag{
				Name:        "format",
				Category:    "OPTIONAL:",
				Usage:       "The output format (text or json)",
				DefaultText: "text",
				Destination: &format,
				Value:       "text",
			},
		}, networkFlags(&name, &rpcURL, &contract, &chainID)...),
		Action: func(cCtx *cli.Context) error {
			id, err := parseEscrowID(cCtx)
			if err != nil {
				return err
			}

			var viewer common.Address
			if address != "" {
				account, err := app.NewAccount(address)
				if err != nil {
					return fmt.Errorf("not a valid account: %s", err)
				}
				viewer = account.Address()
			}

			net, err := resolveNetwork(cCtx, name, rpcURL, contract, chainID)
			if err != nil {
				return err
			}
			provider, err := openSession(cCtx, net, nil)
			if err != nil {
				return err
			}
			defer provider.Close()

			e, err := provider.GetEscrow(cCtx.Context, id)
			if err != nil {
				return fmt.Errorf("get escrow: %s", err)
			}

			now := time.Now().UTC()
			status, perms := app.Reconcile(e, viewer, now)
			view := newEscrowView(e, status, perms)

			if format == "json" {
				jsonData, err := json.Marshal(view)
				if err != nil {
					return fmt.Errorf("error serializing escrow to JSON")
				}
				fmt.Println(string(jsonData))
				return nil
			}
			if format != "text" {
				return fmt.Errorf("invalid format: %s", format)
			}

			symbol := chainSymbol(provider.ChainID().Int64())
			fmt.Printf("Escrow %d: %s\n", e.ID, status)
			fmt.Printf("  Description: %s\n", e.Description)
			fmt.Printf("  Party A:     %s (deposited: %t)\n", e.PartyA.Hex(), e.PartyADeposited)
			fmt.Printf("  Party B:     %s (deposited: %t)\n", e.PartyB.Hex(), e.PartyBDeposited)
			fmt.Printf("  Amounts:     %s / %s %s\n", formatEther(e.AmountA), formatEther(e.AmountB), symbol)
			if !e.CreationTime.IsZero() {
				fmt.Printf("  Created:     %s\n", e.CreationTime.Format(time.RFC3339))
			}
			if remaining, ok := app.DepositCountdown(e, now); ok && status == app.StatusWaitingForPartyB {
				if remaining > 0 {
					fmt.Printf("  Deadline:    %s (%s left)\n", e.DepositDeadline.Format(time.RFC3339), remaining.Round(time.Second))
				} else {
					fmt.Printf("  Deadline:    %s (passed)\n", e.DepositDeadline.Format(time.RFC3339))
				}
			}
			if viewer != (common.Address{}) {
				fmt.Printf("  Allowed:     deposit=%t cancel=%t complete=%t\n", perms.CanDeposit, perms.CanCancel, perms.CanComplete)
			}
			return nil
		},
	}
}

func newListCommand() *cli.Command {
	var name, rpcURL, contract, address, format string
	var chainID int64

	return &cli.Command{
		Name:  "list",
		Usage: "List the escrows an account participates in",
		Description: "List every escrow where the account is party A or party B.\n\nEXAMPLE:\n\n" +
			"escrow list --network sepolia --account 0x1234abcd",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "account",
				Aliases:     []string{"a"},
				Category:    "REQUIRED:",
				Usage:       "Ethereum wallet address",
				Destination: &address,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "format",
				Category:    "OPTIONAL:",
				Usage:       "The output format (table or json)",
				DefaultText: "table",
				Destination: &format,
				Value:       "table",
			},
		}, networkFlags(&name, &rpcURL, &contract, &chainID)...),
		Action: func(cCtx *cli.Context) error {
			account, err := app.NewAccount(address)
			if err != nil {
				return fmt.Errorf("not a valid account: %s", err)
			}

			net, err := resolveNetwork(cCtx, name, rpcURL, contract, chainID)
			if err != nil {
				return err
			}
			provider, err := openSession(cCtx, net, nil)
			if err != nil {
				return err
			}
			defer provider.Close()

			ids, err := provider.GetUserEscrows(cCtx.Context, account)
			if err != nil {
				return fmt.Errorf("get user escrows: %s", err)
			}

			now := time.Now().UTC()
			views := make([]escrowView, 0, len(ids))
			for _, id := range ids {
				e, err := provider.GetEscrow(cCtx.Context, id)
				if err != nil {
					return fmt.Errorf("get escrow %d: %s", id, err)
				}
				status, perms := app.Reconcile(e, account.Address(), now)
				views = append(views, newEscrowView(e, status, perms))
			}

			if format == "table" {
				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"ID", "Status", "Party A", "Party B", "Amount A", "Amount B", "Deadline"})

				for _, view := range views {
					deadline := "(none)"
					if view.DepositDeadline != "" {
						deadline = view.DepositDeadline
					}
					table.Append([]string{
						strconv.FormatUint(view.ID, 10),
						view.Status,
						formatAddress(view.PartyA),
						formatAddress(view.PartyB),
						view.AmountA,
						view.AmountB,
						deadline,
					})
				}
				table.Render()
			} else if format == "json" {
				jsonData, err := json.Marshal(views)
				if err != nil {
					return fmt.Errorf("error serializing escrows to JSON")
				}
				fmt.Println(string(jsonData))
			} else {
				return fmt.Errorf("invalid format: %s", format)
			}
			return nil
		},
	}
}

func newEventsCommand() *cli.Command {
	var name, rpcURL, contract, format string
	var chainID, escrowID, fromBlock int64

	return &cli.Command{
		Name:  "events",
		Usage: "List lifecycle events emitted by the escrow contract",
		Description: "Fetch EscrowCreated, FundsDeposited, EscrowCompleted and \n" +
			"EscrowCancelled events, optionally filtered to one escrow.\n\nEXAMPLE:\n\n" +
			"escrow events --network sepolia --escrow-id 7",
		Flags: append([]cli.Flag{
			&cli.Int64Flag{
				Name:        "escrow-id",
				Category:    "OPTIONAL:",
				Usage:       "Only show events for this escrow",
				DefaultText: "all escrows",
				Destination: &escrowID,
				Value:       -1,
			},
			&cli.Int64Flag{
				Name:        "from-block",
				Category:    "OPTIONAL:",
				Usage:       "Start of the block range to scan",
				DefaultText: "genesis",
				Destination: &fromBlock,
			},
			&cli.StringFlag{
				Name:        "format",
				Category:    "OPTIONAL:",
				Usage:       "The output format (table or json)",
				DefaultText: "table",
				Destination: &format,
				Value:       "table",
			},
		}, networkFlags(&name, &rpcURL, &contract, &chainID)...),
		Action: func(cCtx *cli.Context) error {
			net, err := resolveNetwork(cCtx, name, rpcURL, contract, chainID)
			if err != nil {
				return err
			}
			provider, err := openSession(cCtx, net, nil)
			if err != nil {
				return err
			}
			defer provider.Close()

			var params app.EscrowEventsParams
			if escrowID >= 0 {
				id := uint64(escrowID)
				params.ID = &id
			}
			if fromBlock > 0 {
				params.FromBlock = big.NewInt(fromBlock)
			}

			events, err := provider.EscrowEvents(cCtx.Context, params)
			if err != nil {
				return fmt.Errorf("fetch events: %s", err)
			}

			if format == "table" {
				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"Event", "Escrow", "Block", "Tx"})

				for _, event := range events {
					table.Append([]string{
						event.Kind,
						strconv.FormatUint(event.ID, 10),
						strconv.FormatUint(event.BlockNumber, 10),
						formatAddress(event.TxHash),
					})
				}
				table.Render()
			} else if format == "json" {
				jsonData, err := json.Marshal(events)
				if err != nil {
					return fmt.Errorf("error serializing events to JSON")
				}
				fmt.Println(string(jsonData))
			} else {
				return fmt.Errorf("invalid format: %s", format)
			}
			return nil
		},
	}
}

func newStatsCommand() *cli.Command {
	var name, rpcURL, contract, format string
	var chainID int64

	return &cli.Command{
		Name:  "stats",
		Usage: "Show contract-wide counters and settings",
		Description: "Print total, active, completed and cancelled escrow counts, the \n" +
			"contract owner, the paused flag and the service fee.\n\nEXAMPLE:\n\n" +
			"escrow stats --network sepolia",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Category:    "OPTIONAL:",
				Usage:       "The output format (text or json)",
				DefaultText: "text",
				Destination: &format,
				Value:       "text",
			},
		}, networkFlags(&name, &rpcURL, &contract, &chainID)...),
		Action: func(cCtx *cli.Context) error {
			net, err := resolveNetwork(cCtx, name, rpcURL, contract, chainID)
			if err != nil {
				return err
			}
			provider, err := openSession(cCtx, net, nil)
			if err != nil {
				return err
			}
			defer provider.Close()

			stats, err := provider.ContractStats(cCtx.Context)
			if err != nil {
				return fmt.Errorf("contract stats: %s", err)
			}

			if format == "json" {
				jsonData, err := json.Marshal(map[string]interface{}{
					"total":               stats.Total,
					"active":              stats.Active,
					"completed":           stats.Completed,
					"cancelled":           stats.Cancelled,
					"next_escrow_id":      stats.NextEscrowID,
					"owner":               stats.Owner.Hex(),
					"paused":              stats.Paused,
					"service_fee_percent": stats.ServiceFeePercent,
				})
				if err != nil {
					return fmt.Errorf("error serializing stats to JSON")
				}
				fmt.Println(string(jsonData))
				return nil
			}
			if format != "text" {
				return fmt.Errorf("invalid format: %s", format)
			}

			chainID := provider.ChainID().Int64()
			fmt.Printf("Contract %s on %s\n", provider.Contract().Hex(), chainName(chainID))
			fmt.Printf("  Escrows:     %d total, %d active, %d completed, %d cancelled\n",
				stats.Total, stats.Active, stats.Completed, stats.Cancelled)
			fmt.Printf("  Next id:     %d\n", stats.NextEscrowID)
			fmt.Printf("  Owner:       %s\n", stats.Owner.Hex())
			fmt.Printf("  Paused:      %t\n", stats.Paused)
			fmt.Printf("  Service fee: %d%%\n", stats.ServiceFeePercent)
			return nil
		},
	}
}

func newWatchCommand() *cli.Command {
	var name, rpcURL, contract, address string
	var chainID int64

	return &cli.Command{
		Name:      "watch",
		Usage:     "Poll an escrow until it reaches a terminal state",
		ArgsUsage: "<escrow_id>",
		Description: "Re-fetch the escrow on a schedule that tightens as the deposit \n" +
			"deadline approaches, logging every status change. Stops once the \n" +
			"escrow completes or is cancelled.\n\nEXAMPLE:\n\n" +
			"escrow watch --network sepolia --account 0x1234abcd 7",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "account",
				Aliases:     []string{"a"},
				Category:    "OPTIONAL:",
				Usage:       "Ethereum wallet address to derive permissions for",
				Destination: &address,
			},
		}, networkFlags(&name, &rpcURL, &contract, &chainID)...),
		Action: func(cCtx *cli.Context) error {
			id, err := parseEscrowID(cCtx)
			if err != nil {
				return err
			}

			var viewer common.Address
			if address != "" {
				account, err := app.NewAccount(address)
				if err != nil {
					return fmt.Errorf("not a valid account: %s", err)
				}
				viewer = account.Address()
			}

			net, err := resolveNetwork(cCtx, name, rpcURL, contract, chainID)
			if err != nil {
				return err
			}
			provider, err := openSession(cCtx, net, nil)
			if err != nil {
				return err
			}
			defer provider.Close()

			var lastStatus app.Status = -1
			for {
				e, err := provider.GetEscrow(cCtx.Context, id)
				if err != nil {
					return fmt.Errorf("get escrow: %s", err)
				}

				now := time.Now().UTC()
				status, perms := app.Reconcile(e, viewer, now)
				if status != lastStatus {
					slog.Info("escrow status",
						"id", e.ID,
						"status", status.String(),
						"deposit", perms.CanDeposit,
						"cancel", perms.CanCancel,
						"complete", perms.CanComplete,
					)
					lastStatus = status
				}
				if status.Terminal() {
					return nil
				}

				interval := app.NextPoll(0)
				if remaining, ok := app.DepositCountdown(e, now); ok {
					interval = app.NextPoll(remaining)
				}

				select {
				case <-cCtx.Context.Done():
					return cCtx.Context.Err()
				case <-time.After(interval):
				}
			}
		},
	}
}

func newNetworkCommand() *cli.Command {
	var rpcURL, contract string
	var chainID int64

	return &cli.Command{
		Name:      "network",
		Usage:     "Manage named networks in the config file",
		UsageText: "escrow network <subcommand> [arguments...]",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add or update a named network",
				ArgsUsage: "<name>",
				Description: "Store an RPC endpoint, contract address and chain id under a name \n" +
					"so other commands can use --network instead of repeating them.\n\nEXAMPLE:\n\n" +
					"escrow network add --rpc-url https://rpc.sepolia.org --chain-id 11155111 sepolia",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "rpc-url",
						Category:    "REQUIRED:",
						Usage:       "Ethereum JSON-RPC endpoint",
						Destination: &rpcURL,
						Required:    true,
					},
					&cli.StringFlag{
						Name:        "contract",
						Category:    "OPTIONAL:",
						Usage:       "Escrow contract address",
						DefaultText: DefaultContractAddress,
						Destination: &contract,
						Value:       DefaultContractAddress,
					},
					&cli.Int64Flag{
						Name:        "chain-id",
						Category:    "OPTIONAL:",
						Usage:       "Expected chain id; dialing a different chain fails",
						Destination: &chainID,
					},
				},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return errors.New("must provide a network name")
					}
					networkName := cCtx.Args().First()

					if !common.IsHexAddress(contract) {
						return fmt.Errorf("%s is not a valid contract address", contract)
					}

					dir, err := defaultConfigLocation(cCtx.String("dir"))
					if err != nil {
						return fmt.Errorf("default config location: %s", err)
					}

					f, err := os.OpenFile(path.Join(dir, "config.yaml"), os.O_RDWR|os.O_CREATE, 0o666)
					if err != nil {
						return fmt.Errorf("os create: %s", err)
					}
					defer func() {
						_ = f.Close()
					}()

					cfg, err := loadConfig(path.Join(dir, "config.yaml"))
					if err != nil {
						return fmt.Errorf("load config: %s", err)
					}
					if cfg.Networks == nil {
						cfg.Networks = make(map[string]network)
					}
					cfg.Networks[networkName] = network{
						RPCURL:          rpcURL,
						ContractAddress: contract,
						ChainID:         chainID,
					}

					if err := f.Truncate(0); err != nil {
						return fmt.Errorf("truncate: %s", err)
					}
					if _, err := f.Seek(0, 0); err != nil {
						return fmt.Errorf("seek: %s", err)
					}
					if err := yaml.NewEncoder(f).Encode(cfg); err != nil {
						return fmt.Errorf("encode: %s", err)
					}

					fmt.Printf("Network %s saved\n", networkName)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List the configured networks",
				Action: func(cCtx *cli.Context) error {
					dir, err := defaultConfigLocation(cCtx.String("dir"))
					if err != nil {
						return fmt.Errorf("default config location: %s", err)
					}
					cfg, err := loadConfig(path.Join(dir, "config.yaml"))
					if err != nil {
						return fmt.Errorf("load config: %s", err)
					}

					table := tablewriter.NewWriter(os.Stdout)
					table.SetHeader([]string{"Name", "Chain", "RPC URL", "Contract"})
					for networkName, net := range cfg.Networks {
						table.Append([]string{
							networkName,
							chainName(net.ChainID),
							net.RPCURL,
							formatAddress(net.ContractAddress),
						})
					}
					table.Render()
					return nil
				},
			},
		},
	}
}
