package app

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure kinds a caller acts on differently:
// retry, fix the configured address, fix the ABI/network, or re-read state.
var (
	// ErrEscrowNotFound means the identifier maps to no created escrow.
	ErrEscrowNotFound = errors.New("escrow not found")

	// ErrContractNotFound means the configured address has no code on the
	// connected network.
	ErrContractNotFound = errors.New("no contract code at the configured address")

	// ErrInterfaceMismatch means a contract is present but does not expose
	// the expected escrow read/write surface.
	ErrInterfaceMismatch = errors.New("contract does not match the escrow interface")

	// ErrReadFailed is a transient provider or network failure; safe to retry.
	ErrReadFailed = errors.New("chain read failed")

	// ErrNetworkChanged means the endpoint's chain changed after the session
	// was opened; in-flight work must be discarded, not applied.
	ErrNetworkChanged = errors.New("network changed since the session was opened")

	// ErrConfirmTimeout means a transaction was submitted but its confirmation
	// was not observed. State is indeterminate: re-read before retrying, or
	// the same action may be submitted twice.
	ErrConfirmTimeout = errors.New("transaction submitted but not confirmed")
)

// ValidationError is a local pre-submission check failure. The action was
// never sent to the network.
type ValidationError struct {
	Action string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Action, e.Reason)
}

// RevertKind classifies a decodable on-chain revert reason.
type RevertKind int

// Known revert reasons emitted by the escrow contract.
const (
	RevertUnknown RevertKind = iota
	RevertDeadlinePassed
	RevertAlreadyDeposited
	RevertWrongAmount
	RevertWrongCaller
	RevertPaused
)

// RevertError is a submitted transaction that failed on-chain.
type RevertError struct {
	Kind   RevertKind
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "transaction reverted"
	}
	return fmt.Sprintf("transaction reverted: %s", e.Reason)
}

// ClassifyRevert maps a revert reason string to a RevertError. Reasons the
// contract is known to emit get a kind; anything else is carried verbatim
// as RevertUnknown rather than swallowed.
func ClassifyRevert(reason string) *RevertError {
	kind := RevertUnknown
	switch {
	case strings.Contains(reason, "Deadline passed"):
		kind = RevertDeadlinePassed
	case strings.Contains(reason, "Already deposited"):
		kind = RevertAlreadyDeposited
	case strings.Contains(reason, "Wrong amount"):
		kind = RevertWrongAmount
	case strings.Contains(reason, "Not party B"), strings.Contains(reason, "Not a party"):
		kind = RevertWrongCaller
	case strings.Contains(reason, "paused"):
		kind = RevertPaused
	}
	return &RevertError{Kind: kind, Reason: reason}
}
