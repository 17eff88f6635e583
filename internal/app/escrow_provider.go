package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EscrowProvider defines the escrow contract surface the client consumes.
// Reads reflect the contract state as of the queried block and are never
// cached across calls.
type EscrowProvider interface {
	GetEscrow(context.Context, uint64) (Escrow, error)
	GetUserEscrows(context.Context, *Account) ([]uint64, error)
	ContractStats(context.Context) (ContractStats, error)
	EscrowEvents(context.Context, EscrowEventsParams) ([]EscrowEvent, error)
	CreateEscrow(context.Context, CreateEscrowParams) (uint64, error)
	DepositFunds(context.Context, DepositFundsParams) error
	CancelEscrow(context.Context, uint64) error
	CompleteEscrow(context.Context, uint64) error
}

// CreateEscrowParams ...
type CreateEscrowParams struct {
	PartyB      common.Address
	AmountA     *big.Int
	AmountB     *big.Int
	Description string
}

// DepositFundsParams ...
type DepositFundsParams struct {
	ID uint64

	// Amount must equal the escrow's amountB exactly; the contract rejects
	// anything else.
	Amount *big.Int
}

// EscrowEventsParams ...
type EscrowEventsParams struct {
	ID        *uint64
	FromBlock *big.Int
}
