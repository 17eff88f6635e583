package app

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Account represents a wallet account.
type Account struct {
	address common.Address
}

// NewAccount creates a new account from a hex-encoded address.
func NewAccount(address string) (*Account, error) {
	if !common.IsHexAddress(address) {
		return nil, errors.New("address not valid")
	}

	return &Account{address: common.HexToAddress(address)}, nil
}

// Hex returns the hex-encoded address.
func (a *Account) Hex() string {
	return a.address.Hex()
}

// Address returns the underlying address.
func (a *Account) Address() common.Address {
	return a.address
}

// Escrow is the client-side projection of one on-chain escrow record.
// The record is owned by the contract; the client only re-reads it and
// never mutates or deletes it.
type Escrow struct {
	ID              uint64         `json:"id"`
	PartyA          common.Address `json:"party_a"`
	PartyB          common.Address `json:"party_b"`
	AmountA         *big.Int       `json:"amount_a"`
	AmountB         *big.Int       `json:"amount_b"`
	Description     string         `json:"description"`
	PartyADeposited bool           `json:"party_a_deposited"`
	PartyBDeposited bool           `json:"party_b_deposited"`
	Completed       bool           `json:"completed"`
	Cancelled       bool           `json:"cancelled"`
	CreationTime    time.Time      `json:"creation_time"`

	// DepositDeadline is the latest time party B may still deposit. A zero
	// value means the contract reported no deadline; the ABI cannot
	// distinguish an unset slot from an explicit zero.
	DepositDeadline time.Time `json:"deposit_deadline"`
}

// Exists reports whether the record is set on-chain. The contract returns
// an all-zero tuple for unknown identifiers, so a zero party A means the
// escrow was never created.
func (e Escrow) Exists() bool {
	return e.PartyA != (common.Address{})
}

// ContractStats holds the contract-wide counters and settings.
type ContractStats struct {
	Total             uint64         `json:"total"`
	Active            uint64         `json:"active"`
	Completed         uint64         `json:"completed"`
	Cancelled         uint64         `json:"cancelled"`
	NextEscrowID      uint64         `json:"next_escrow_id"`
	Owner             common.Address `json:"owner"`
	Paused            bool           `json:"paused"`
	ServiceFeePercent uint64         `json:"service_fee_percent"`
}

// EscrowEvent is one lifecycle event emitted by the contract.
type EscrowEvent struct {
	Kind        string `json:"kind"`
	ID          uint64 `json:"id"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
}
