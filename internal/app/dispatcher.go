package app

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Dispatcher validates requested actions against the reconciled state before
// submitting them, so transactions guaranteed to revert never reach the
// network. Every action re-reads the escrow immediately before submission;
// the rendered view may be stale by the time the user acts on it.
type Dispatcher struct {
	provider EscrowProvider
	wallet   common.Address
	now      func() time.Time
}

// NewDispatcher creates a dispatcher acting as the given wallet.
func NewDispatcher(provider EscrowProvider, wallet common.Address) *Dispatcher {
	return &Dispatcher{provider: provider, wallet: wallet, now: time.Now}
}

// Create validates the creation parameters locally and submits createEscrow,
// funding it with amountA. It returns the identifier the contract assigned.
func (d *Dispatcher) Create(
	ctx context.Context, partyB common.Address, amountA, amountB *big.Int, description string,
) (uint64, error) {
	if partyB == (common.Address{}) {
		return 0, &ValidationError{Action: "create", Reason: "counterparty address is empty"}
	}
	if amountA == nil || amountA.Sign() <= 0 {
		return 0, &ValidationError{Action: "create", Reason: "your deposit amount must be positive"}
	}
	if amountB == nil || amountB.Sign() <= 0 {
		return 0, &ValidationError{Action: "create", Reason: "expected counterparty amount must be positive"}
	}
	if strings.TrimSpace(description) == "" {
		return 0, &ValidationError{Action: "create", Reason: "description is empty"}
	}

	id, err := d.provider.CreateEscrow(ctx, CreateEscrowParams{
		PartyB:      partyB,
		AmountA:     amountA,
		AmountB:     amountB,
		Description: description,
	})
	if err != nil {
		return 0, fmt.Errorf("create escrow: %w", err)
	}
	return id, nil
}

// Deposit re-reads the escrow, re-validates the deposit preconditions and
// submits depositFunds with exactly the escrow's amountB.
func (d *Dispatcher) Deposit(ctx context.Context, id uint64) error {
	e, err := d.provider.GetEscrow(ctx, id)
	if err != nil {
		return fmt.Errorf("read escrow %d: %w", id, err)
	}
	if err := CheckDeposit(e, d.wallet, d.now()); err != nil {
		return err
	}

	if err := d.provider.DepositFunds(ctx, DepositFundsParams{ID: id, Amount: e.AmountB}); err != nil {
		return fmt.Errorf("deposit funds: %w", err)
	}
	return nil
}

// Cancel re-reads the escrow, checks it is still cancellable and submits
// cancelEscrow.
func (d *Dispatcher) Cancel(ctx context.Context, id uint64) error {
	e, err := d.provider.GetEscrow(ctx, id)
	if err != nil {
		return fmt.Errorf("read escrow %d: %w", id, err)
	}
	if err := CheckCancel(e); err != nil {
		return err
	}

	if err := d.provider.CancelEscrow(ctx, id); err != nil {
		return fmt.Errorf("cancel escrow: %w", err)
	}
	return nil
}

// Complete submits the administrative manualCompleteEscrow after checking
// both deposits are in and the escrow is not terminal. Not part of the
// normal flow; settlement is otherwise automatic.
func (d *Dispatcher) Complete(ctx context.Context, id uint64) error {
	e, err := d.provider.GetEscrow(ctx, id)
	if err != nil {
		return fmt.Errorf("read escrow %d: %w", id, err)
	}
	if err := CheckComplete(e); err != nil {
		return err
	}

	if err := d.provider.CompleteEscrow(ctx, id); err != nil {
		return fmt.Errorf("complete escrow: %w", err)
	}
	return nil
}
