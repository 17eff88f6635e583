package app

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	partyA = common.HexToAddress("0x742d35Cc6634C0532925a3b8D4C2C4e4C4C4C4C4")
	partyB = common.HexToAddress("0x8ba1f109551bD432803012645aC136c22C4C4C4C")
)

func pendingEscrow(deadline time.Time) Escrow {
	return Escrow{
		ID:              1,
		PartyA:          partyA,
		PartyB:          partyB,
		AmountA:         big.NewInt(1_500_000_000_000_000_000),
		AmountB:         big.NewInt(2_000_000_000_000_000_000),
		Description:     "test",
		PartyADeposited: true,
		CreationTime:    deadline.Add(-7 * 24 * time.Hour),
		DepositDeadline: deadline,
	}
}

func TestDeriveStatusPriority(t *testing.T) {
	now := time.Now()

	e := pendingEscrow(now.Add(time.Hour))
	require.Equal(t, StatusWaitingForPartyB, DeriveStatus(e))

	e.PartyBDeposited = true
	require.Equal(t, StatusActive, DeriveStatus(e))

	// completed wins regardless of any other flag
	e.Completed = true
	e.Cancelled = true
	require.Equal(t, StatusCompleted, DeriveStatus(e))

	e.Completed = false
	require.Equal(t, StatusCancelled, DeriveStatus(e))
}

func TestTerminalStatesPermitNoActions(t *testing.T) {
	now := time.Now()

	for _, terminal := range []func(*Escrow){
		func(e *Escrow) { e.Completed = true },
		func(e *Escrow) { e.Cancelled = true },
	} {
		e := pendingEscrow(now.Add(time.Hour))
		e.PartyBDeposited = true
		terminal(&e)

		status, perms := Reconcile(e, partyB, now)
		require.True(t, status.Terminal())
		require.False(t, perms.CanDeposit)
		require.False(t, perms.CanCancel)
		require.False(t, perms.CanComplete)
	}
}

func TestCanDepositRequiresPartyB(t *testing.T) {
	now := time.Now()
	e := pendingEscrow(now.Add(time.Hour))

	_, perms := Reconcile(e, partyB, now)
	require.True(t, perms.CanDeposit)

	_, perms = Reconcile(e, partyA, now)
	require.False(t, perms.CanDeposit)

	var verr *ValidationError
	require.ErrorAs(t, CheckDeposit(e, partyA, now), &verr)
	require.Equal(t, "only the invited party B may deposit", verr.Reason)
}

func TestCanDepositAddressCaseInsensitive(t *testing.T) {
	now := time.Now()
	e := pendingEscrow(now.Add(time.Hour))

	lower := common.HexToAddress("0x8ba1f109551bd432803012645ac136c22c4c4c4c")
	upper := common.HexToAddress("0x8BA1F109551BD432803012645AC136C22C4C4C4C")
	require.NoError(t, CheckDeposit(e, lower, now))
	require.NoError(t, CheckDeposit(e, upper, now))
}

func TestCanDepositNeverOfferedTwice(t *testing.T) {
	now := time.Now()
	e := pendingEscrow(now.Add(time.Hour))
	e.PartyBDeposited = true

	err := CheckDeposit(e, partyB, now)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "party B already deposited", verr.Reason)
}

func TestCanDepositDeadline(t *testing.T) {
	now := time.Now()

	e := pendingEscrow(now.Add(-time.Second))
	err := CheckDeposit(e, partyB, now)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "deposit deadline passed", verr.Reason)

	// a zero deadline means no deadline, never "already expired"
	e.DepositDeadline = time.Time{}
	require.NoError(t, CheckDeposit(e, partyB, now))
}

func TestActiveEscrowPermissions(t *testing.T) {
	now := time.Now()
	e := pendingEscrow(now.Add(time.Hour))
	e.PartyBDeposited = true

	status, perms := Reconcile(e, partyB, now)
	require.Equal(t, StatusActive, status)
	require.True(t, perms.CanCancel)
	require.True(t, perms.CanComplete)
	require.False(t, perms.CanDeposit)
}

func TestReconcileDeterministic(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	e := pendingEscrow(now.Add(time.Hour))

	s1, p1 := Reconcile(e, partyB, now)
	s2, p2 := Reconcile(e, partyB, now)
	require.Equal(t, s1, s2)
	require.Equal(t, p1, p2)
}
