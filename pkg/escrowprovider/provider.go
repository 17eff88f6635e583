package escrowprovider

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/secureswap/escrow-cli/internal/app"
)

// Timeouts mirror the deployed front-end configuration: reads are bounded
// so a stuck provider surfaces as a retryable failure instead of a hang,
// and confirmation waits are bounded so an unobserved receipt surfaces as
// indeterminate state.
const (
	DefaultReadTimeout    = 15 * time.Second
	DefaultConfirmTimeout = 60 * time.Second
)

// Per-action gas limits, matching the deployed front-end.
const (
	createGasLimit  = 250_000
	depositGasLimit = 120_000
	cancelGasLimit  = 90_000
	defaultGasLimit = 300_000
)

// Provider implements app.EscrowProvider against the SecureSwap contract
// over an Ethereum JSON-RPC endpoint. It is an explicit session: one
// connection, the chain id captured at dial time, and a refusal to submit
// transactions once the endpoint's chain no longer matches.
type Provider struct {
	client   *ethclient.Client
	abi      abi.ABI
	contract common.Address
	chainID  *big.Int
	key      *ecdsa.PrivateKey

	expectedChainID int64
	readTimeout     time.Duration
	confirmTimeout  time.Duration
}

var _ app.EscrowProvider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithPrivateKey enables transaction submission. Without it the session is
// read-only.
func WithPrivateKey(key *ecdsa.PrivateKey) Option {
	return func(p *Provider) { p.key = key }
}

// WithChainID pins the session to a chain; dialing an endpoint that serves
// a different chain fails instead of silently targeting the wrong network.
func WithChainID(id int64) Option {
	return func(p *Provider) { p.expectedChainID = id }
}

// WithReadTimeout overrides the bounded wait applied to every read call.
func WithReadTimeout(d time.Duration) Option {
	return func(p *Provider) { p.readTimeout = d }
}

// WithConfirmTimeout overrides the bounded wait for transaction receipts.
func WithConfirmTimeout(d time.Duration) Option {
	return func(p *Provider) { p.confirmTimeout = d }
}

// New opens a session against the contract at the given address. It fails
// early when the address has no code (ContractNotFound) or the code does
// not expose the escrow surface (InterfaceMismatch), since those need
// different remediation than a transient read failure.
func New(ctx context.Context, rpcURL string, contract common.Address, opts ...Option) (*Provider, error) {
	p := &Provider{
		contract:       contract,
		readTimeout:    DefaultReadTimeout,
		confirmTimeout: DefaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	parsed, err := abi.JSON(strings.NewReader(escrowABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %s", err)
	}
	p.abi = parsed

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %s", rpcURL, err)
	}
	p.client = client

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: chain id: %s", app.ErrReadFailed, err)
	}
	if p.expectedChainID != 0 && chainID.Int64() != p.expectedChainID {
		client.Close()
		return nil, fmt.Errorf("endpoint serves chain %d, configuration expects chain %d", chainID, p.expectedChainID)
	}
	p.chainID = chainID

	code, err := client.CodeAt(ctx, contract, nil)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: fetch code: %s", app.ErrReadFailed, err)
	}
	if len(code) == 0 {
		client.Close()
		return nil, fmt.Errorf("%w: %s on chain %d", app.ErrContractNotFound, contract.Hex(), chainID)
	}

	// The selector scan false-negatives on proxies, so a probe read gets
	// the final say before the session is rejected.
	if missing := missingSelectors(code); len(missing) > 0 {
		if _, err := p.call(ctx, "owner"); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: missing %s", app.ErrInterfaceMismatch, strings.Join(missing, ", "))
		}
	}

	return p, nil
}

// Close releases the underlying RPC connection.
func (p *Provider) Close() {
	p.client.Close()
}

// ChainID returns the chain the session was opened on.
func (p *Provider) ChainID() *big.Int {
	return new(big.Int).Set(p.chainID)
}

// Contract returns the configured contract address.
func (p *Provider) Contract() common.Address {
	return p.contract
}

// GetEscrow assembles the raw escrow tuple from the contract's split
// getters. Identifiers the contract never assigned come back as an all-zero
// tuple; those surface as ErrEscrowNotFound rather than a read error.
func (p *Provider) GetEscrow(ctx context.Context, id uint64) (app.Escrow, error) {
	bid := new(big.Int).SetUint64(id)

	out, err := p.call(ctx, "getEscrowParties", bid)
	if err != nil {
		return app.Escrow{}, err
	}
	partyA, okA := out[0].(common.Address)
	partyB, okB := out[1].(common.Address)
	if !okA || !okB {
		return app.Escrow{}, fmt.Errorf("%w: getEscrowParties returned unexpected types", app.ErrInterfaceMismatch)
	}

	e := app.Escrow{ID: id, PartyA: partyA, PartyB: partyB}
	if !e.Exists() {
		return app.Escrow{}, app.ErrEscrowNotFound
	}

	out, err = p.call(ctx, "getEscrowAmounts", bid)
	if err != nil {
		return app.Escrow{}, err
	}
	amountA, okA := out[0].(*big.Int)
	amountB, okB := out[1].(*big.Int)
	if !okA || !okB {
		return app.Escrow{}, fmt.Errorf("%w: getEscrowAmounts returned unexpected types", app.ErrInterfaceMismatch)
	}

	out, err = p.call(ctx, "getEscrowFlags", bid)
	if err != nil {
		return app.Escrow{}, err
	}
	flags, ok := out[0].([4]bool)
	if !ok {
		return app.Escrow{}, fmt.Errorf("%w: getEscrowFlags returned unexpected type", app.ErrInterfaceMismatch)
	}

	out, err = p.call(ctx, "getEscrowTimes", bid)
	if err != nil {
		return app.Escrow{}, err
	}
	times, ok := out[0].([2]*big.Int)
	if !ok {
		return app.Escrow{}, fmt.Errorf("%w: getEscrowTimes returned unexpected type", app.ErrInterfaceMismatch)
	}

	out, err = p.call(ctx, "getEscrowDescription", bid)
	if err != nil {
		return app.Escrow{}, err
	}
	description, ok := out[0].(string)
	if !ok {
		return app.Escrow{}, fmt.Errorf("%w: getEscrowDescription returned unexpected type", app.ErrInterfaceMismatch)
	}

	e.AmountA = amountA
	e.AmountB = amountB
	e.Description = description
	e.PartyADeposited = flags[0]
	e.PartyBDeposited = flags[1]
	e.Completed = flags[2]
	e.Cancelled = flags[3]
	if t := times[0].Int64(); t > 0 {
		e.CreationTime = time.Unix(t, 0).UTC()
	}
	// zero stays the zero time: "no deadline", not "already expired"
	if t := times[1].Int64(); t > 0 {
		e.DepositDeadline = time.Unix(t, 0).UTC()
	}
	return e, nil
}

// GetUserEscrows lists the identifiers of escrows the account participates in.
func (p *Provider) GetUserEscrows(ctx context.Context, account *app.Account) ([]uint64, error) {
	out, err := p.call(ctx, "getUserEscrows", account.Address())
	if err != nil {
		return nil, err
	}
	raw, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: getUserEscrows returned unexpected type", app.ErrInterfaceMismatch)
	}

	ids := make([]uint64, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, id.Uint64())
	}
	return ids, nil
}

// ContractStats reads the contract-wide counters and settings.
func (p *Provider) ContractStats(ctx context.Context) (app.ContractStats, error) {
	var stats app.ContractStats

	out, err := p.call(ctx, "getContractStats")
	if err != nil {
		return stats, err
	}
	counters, ok := out[0].([4]*big.Int)
	if !ok {
		return stats, fmt.Errorf("%w: getContractStats returned unexpected type", app.ErrInterfaceMismatch)
	}
	stats.Total = counters[0].Uint64()
	stats.Active = counters[1].Uint64()
	stats.Completed = counters[2].Uint64()
	stats.Cancelled = counters[3].Uint64()

	if out, err = p.call(ctx, "nextEscrowId"); err != nil {
		return stats, err
	}
	stats.NextEscrowID = out[0].(*big.Int).Uint64()

	if out, err = p.call(ctx, "owner"); err != nil {
		return stats, err
	}
	stats.Owner = out[0].(common.Address)

	if out, err = p.call(ctx, "paused"); err != nil {
		return stats, err
	}
	stats.Paused = out[0].(bool)

	if out, err = p.call(ctx, "serviceFeePercent"); err != nil {
		return stats, err
	}
	stats.ServiceFeePercent = out[0].(*big.Int).Uint64()

	return stats, nil
}

// EscrowEvents fetches the contract's lifecycle events, optionally filtered
// to a single escrow identifier.
func (p *Provider) EscrowEvents(ctx context.Context, params app.EscrowEventsParams) ([]app.EscrowEvent, error) {
	kinds := map[common.Hash]string{
		p.abi.Events["EscrowCreated"].ID:   "EscrowCreated",
		p.abi.Events["FundsDeposited"].ID:  "FundsDeposited",
		p.abi.Events["EscrowCompleted"].ID: "EscrowCompleted",
		p.abi.Events["EscrowCancelled"].ID: "EscrowCancelled",
	}

	topics := [][]common.Hash{nil}
	for id := range kinds {
		topics[0] = append(topics[0], id)
	}
	if params.ID != nil {
		topics = append(topics, []common.Hash{common.BigToHash(new(big.Int).SetUint64(*params.ID))})
	}

	cctx, cancel := context.WithTimeout(ctx, p.readTimeout)
	defer cancel()
	logs, err := p.client.FilterLogs(cctx, ethereum.FilterQuery{
		FromBlock: params.FromBlock,
		Addresses: []common.Address{p.contract},
		Topics:    topics,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: filter logs: %s", app.ErrReadFailed, err)
	}

	events := make([]app.EscrowEvent, 0, len(logs))
	for _, lg := range logs {
		if len(lg.Topics) < 2 {
			continue
		}
		events = append(events, app.EscrowEvent{
			Kind:        kinds[lg.Topics[0]],
			ID:          lg.Topics[1].Big().Uint64(),
			BlockNumber: lg.BlockNumber,
			TxHash:      lg.TxHash.Hex(),
		})
	}
	return events, nil
}

// CreateEscrow submits createEscrow funded with amountA and returns the
// identifier parsed from the EscrowCreated event in the receipt.
func (p *Provider) CreateEscrow(ctx context.Context, params app.CreateEscrowParams) (uint64, error) {
	receipt, err := p.transact(
		ctx, "createEscrow", params.AmountA, createGasLimit,
		params.PartyB, params.AmountB, params.Description,
	)
	if err != nil {
		return 0, err
	}

	topic := p.abi.Events["EscrowCreated"].ID
	for _, lg := range receipt.Logs {
		if lg.Address != p.contract || len(lg.Topics) < 2 || lg.Topics[0] != topic {
			continue
		}
		return lg.Topics[1].Big().Uint64(), nil
	}
	return 0, fmt.Errorf("transaction %s confirmed but no EscrowCreated event found", receipt.TxHash)
}

// DepositFunds submits depositFunds with exactly the required amount. The
// paused flag is checked first: a paused contract rejects every deposit, so
// there is no point paying for the attempt.
func (p *Provider) DepositFunds(ctx context.Context, params app.DepositFundsParams) error {
	out, err := p.call(ctx, "paused")
	if err != nil {
		return err
	}
	if paused, ok := out[0].(bool); ok && paused {
		return &app.ValidationError{Action: "deposit", Reason: "contract is paused"}
	}

	_, err = p.transact(ctx, "depositFunds", params.Amount, depositGasLimit, new(big.Int).SetUint64(params.ID))
	return err
}

// CancelEscrow submits cancelEscrow.
func (p *Provider) CancelEscrow(ctx context.Context, id uint64) error {
	_, err := p.transact(ctx, "cancelEscrow", nil, cancelGasLimit, new(big.Int).SetUint64(id))
	return err
}

// CompleteEscrow submits the administrative manualCompleteEscrow.
func (p *Provider) CompleteEscrow(ctx context.Context, id uint64) error {
	_, err := p.transact(ctx, "manualCompleteEscrow", nil, defaultGasLimit, new(big.Int).SetUint64(id))
	return err
}

// call issues one bounded read-only contract call. Reads are never cached;
// every call reflects the contract state at the queried block.
func (p *Provider) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := p.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %s", method, err)
	}

	cctx, cancel := context.WithTimeout(ctx, p.readTimeout)
	defer cancel()
	res, err := p.client.CallContract(cctx, ethereum.CallMsg{To: &p.contract, Data: data}, nil)
	if err != nil {
		// a reverting required read means the wrong contract, not a flaky network
		if reason, ok := revertReasonFromError(err); ok {
			return nil, fmt.Errorf("%w: %s reverted: %s", app.ErrInterfaceMismatch, method, reason)
		}
		return nil, fmt.Errorf("%w: %s: %s", app.ErrReadFailed, method, err)
	}

	out, err := p.abi.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %s", app.ErrInterfaceMismatch, method, err)
	}
	return out, nil
}

// transact signs and submits one state-changing call, then waits for its
// receipt. The pre-submission validation read has already happened by the
// time this runs; here the only local gate is that the endpoint still
// serves the chain the session was opened on.
func (p *Provider) transact(
	ctx context.Context, method string, value *big.Int, gasLimit uint64, args ...interface{},
) (*types.Receipt, error) {
	if p.key == nil {
		return nil, errors.New("session is read-only: no private key loaded")
	}

	chainID, err := p.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %s", app.ErrReadFailed, err)
	}
	if chainID.Cmp(p.chainID) != 0 {
		return nil, fmt.Errorf("%w: opened on %d, endpoint now serves %d", app.ErrNetworkChanged, p.chainID, chainID)
	}

	data, err := p.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %s", method, err)
	}

	from := crypto.PubkeyToAddress(p.key.PublicKey)
	nonce, err := p.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %s", app.ErrReadFailed, err)
	}
	gasPrice, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: gas price: %s", app.ErrReadFailed, err)
	}

	tx := types.NewTransaction(nonce, p.contract, value, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainID), p.key)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %s", method, err)
	}

	if err := p.client.SendTransaction(ctx, signed); err != nil {
		if reason, ok := revertReasonFromError(err); ok {
			return nil, app.ClassifyRevert(reason)
		}
		return nil, fmt.Errorf("send %s: %s", method, err)
	}

	wctx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(wctx, p.client, signed)
	if err != nil {
		return nil, fmt.Errorf("%w: tx %s: %s", app.ErrConfirmTimeout, signed.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, p.revertCause(ctx, signed, from, receipt.BlockNumber)
	}
	return receipt, nil
}

// revertCause replays a failed transaction as a call at its block to
// recover the revert reason. When the node gives nothing back the failure
// is still reported as a revert, just without a decoded reason.
func (p *Provider) revertCause(
	ctx context.Context, tx *types.Transaction, from common.Address, blockNumber *big.Int,
) error {
	msg := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}

	cctx, cancel := context.WithTimeout(ctx, p.readTimeout)
	defer cancel()
	res, err := p.client.CallContract(cctx, msg, blockNumber)
	if err != nil {
		if reason, ok := revertReasonFromError(err); ok {
			return app.ClassifyRevert(reason)
		}
		return app.ClassifyRevert("")
	}
	if reason, ok := decodeRevertReason(res); ok {
		return app.ClassifyRevert(reason)
	}
	return app.ClassifyRevert("")
}

// revertReasonFromError digs Error(string) revert data out of a JSON-RPC
// error, when the node attached any.
func revertReasonFromError(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}

	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return "", false
	}
	data, decodeErr := hexutil.Decode(hexData)
	if decodeErr != nil {
		return "", false
	}
	return decodeRevertReason(data)
}
