package app

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the derived lifecycle stage of an escrow. It is recomputed from
// raw on-chain facts on every read and never stored.
type Status int

// Escrow lifecycle stages.
const (
	StatusWaitingForPartyB Status = iota
	StatusActive
	StatusCompleted
	StatusCancelled
)

// String returns a human-readable status label.
func (s Status) String() string {
	switch s {
	case StatusWaitingForPartyB:
		return "Waiting for Party B"
	case StatusActive:
		return "Active (auto-executing)"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// Terminal reports whether no further state-changing action is valid.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DeriveStatus maps raw escrow flags to the single canonical status.
// The branches are evaluated in strict priority order: completed wins over
// everything, then cancelled, then both-deposited, then waiting.
func DeriveStatus(e Escrow) Status {
	switch {
	case e.Completed:
		return StatusCompleted
	case e.Cancelled:
		return StatusCancelled
	case e.PartyADeposited && e.PartyBDeposited:
		return StatusActive
	default:
		return StatusWaitingForPartyB
	}
}

// Permissions is the set of actions the given wallet may attempt on an
// escrow at a given time. The contract remains authoritative; these gates
// only avoid submitting transactions guaranteed to revert.
type Permissions struct {
	CanDeposit  bool `json:"can_deposit"`
	CanCancel   bool `json:"can_cancel"`
	CanComplete bool `json:"can_complete"`
}

// Reconcile derives the canonical status and allowed actions from raw facts,
// the wallet identity and the current time. It is a pure function: identical
// inputs always produce identical output, with no hidden clock reads.
//
// Address comparison is case-insensitive by construction, since
// common.Address equality ignores the checksum casing of the hex source.
func Reconcile(e Escrow, wallet common.Address, now time.Time) (Status, Permissions) {
	status := DeriveStatus(e)
	return status, Permissions{
		CanDeposit:  CheckDeposit(e, wallet, now) == nil,
		CanCancel:   CheckCancel(e) == nil,
		CanComplete: CheckComplete(e) == nil,
	}
}

// CheckDeposit returns nil when the wallet may deposit into the escrow, or
// a *ValidationError naming the first violated precondition.
func CheckDeposit(e Escrow, wallet common.Address, now time.Time) error {
	if wallet != e.PartyB {
		return &ValidationError{Action: "deposit", Reason: "only the invited party B may deposit"}
	}
	if err := checkNotTerminal("deposit", e); err != nil {
		return err
	}
	if e.PartyBDeposited {
		return &ValidationError{Action: "deposit", Reason: "party B already deposited"}
	}
	// A zero deadline means the contract reported none; it never expires.
	if !e.DepositDeadline.IsZero() && now.After(e.DepositDeadline) {
		return &ValidationError{Action: "deposit", Reason: "deposit deadline passed"}
	}
	return nil
}

// CheckCancel returns nil when the escrow may still be cancelled. Both
// parties may cancel while pending; the contract enforces who actually can,
// so the client does not additionally restrict by address.
func CheckCancel(e Escrow) error {
	return checkNotTerminal("cancel", e)
}

// CheckComplete returns nil when the escrow is eligible for the
// administrative manual completion: both deposits in, not yet settled.
func CheckComplete(e Escrow) error {
	if err := checkNotTerminal("complete", e); err != nil {
		return err
	}
	if !e.PartyADeposited || !e.PartyBDeposited {
		return &ValidationError{Action: "complete", Reason: "both parties must have deposited"}
	}
	return nil
}

func checkNotTerminal(action string, e Escrow) error {
	if e.Completed {
		return &ValidationError{Action: action, Reason: "escrow already completed"}
	}
	if e.Cancelled {
		return &ValidationError{Action: action, Reason: "escrow was cancelled"}
	}
	return nil
}
