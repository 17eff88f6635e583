package app

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// escrowProviderMock records submissions so tests can assert that invalid
// actions never reach the network.
type escrowProviderMock struct {
	escrows map[uint64]Escrow
	nextID  uint64

	deposits  []DepositFundsParams
	cancels   []uint64
	completes []uint64
}

var _ EscrowProvider = (*escrowProviderMock)(nil)

func newEscrowProviderMock() *escrowProviderMock {
	return &escrowProviderMock{escrows: map[uint64]Escrow{}, nextID: 1}
}

func (m *escrowProviderMock) GetEscrow(_ context.Context, id uint64) (Escrow, error) {
	e, ok := m.escrows[id]
	if !ok {
		return Escrow{}, ErrEscrowNotFound
	}
	return e, nil
}

func (m *escrowProviderMock) GetUserEscrows(_ context.Context, account *Account) ([]uint64, error) {
	var ids []uint64
	for id, e := range m.escrows {
		if e.PartyA == account.Address() || e.PartyB == account.Address() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *escrowProviderMock) ContractStats(context.Context) (ContractStats, error) {
	return ContractStats{Total: uint64(len(m.escrows)), NextEscrowID: m.nextID}, nil
}

func (m *escrowProviderMock) EscrowEvents(context.Context, EscrowEventsParams) ([]EscrowEvent, error) {
	return nil, nil
}

func (m *escrowProviderMock) CreateEscrow(_ context.Context, params CreateEscrowParams) (uint64, error) {
	id := m.nextID
	m.nextID++
	m.escrows[id] = Escrow{
		ID:              id,
		PartyA:          partyA,
		PartyB:          params.PartyB,
		AmountA:         params.AmountA,
		AmountB:         params.AmountB,
		Description:     params.Description,
		PartyADeposited: true,
		CreationTime:    time.Unix(1_700_000_000, 0),
		DepositDeadline: time.Unix(1_700_000_000, 0).Add(7 * 24 * time.Hour),
	}
	return id, nil
}

func (m *escrowProviderMock) DepositFunds(_ context.Context, params DepositFundsParams) error {
	m.deposits = append(m.deposits, params)
	e := m.escrows[params.ID]
	e.PartyBDeposited = true
	m.escrows[params.ID] = e
	return nil
}

func (m *escrowProviderMock) CancelEscrow(_ context.Context, id uint64) error {
	m.cancels = append(m.cancels, id)
	e := m.escrows[id]
	e.Cancelled = true
	m.escrows[id] = e
	return nil
}

func (m *escrowProviderMock) CompleteEscrow(_ context.Context, id uint64) error {
	m.completes = append(m.completes, id)
	e := m.escrows[id]
	e.Completed = true
	m.escrows[id] = e
	return nil
}

func TestCreateRoundTrip(t *testing.T) {
	mock := newEscrowProviderMock()
	d := NewDispatcher(mock, partyA)

	amountA := big.NewInt(1_500_000_000_000_000_000)
	amountB := big.NewInt(2_000_000_000_000_000_000)
	id, err := d.Create(context.Background(), partyB, amountA, amountB, "test")
	require.NoError(t, err)

	e, err := mock.GetEscrow(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, partyB, e.PartyB)
	require.Equal(t, amountA, e.AmountA)
	require.Equal(t, amountB, e.AmountB)
	require.Equal(t, "test", e.Description)
	require.True(t, e.PartyADeposited)
	require.False(t, e.PartyBDeposited)
	require.False(t, e.Completed)
	require.False(t, e.Cancelled)
}

func TestCreateValidation(t *testing.T) {
	mock := newEscrowProviderMock()
	d := NewDispatcher(mock, partyA)
	ctx := context.Background()
	one := big.NewInt(1)

	var verr *ValidationError

	_, err := d.Create(ctx, common.Address{}, one, one, "x")
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "counterparty address is empty", verr.Reason)

	_, err = d.Create(ctx, partyB, big.NewInt(0), one, "x")
	require.ErrorAs(t, err, &verr)

	_, err = d.Create(ctx, partyB, one, nil, "x")
	require.ErrorAs(t, err, &verr)

	_, err = d.Create(ctx, partyB, one, one, "  ")
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "description is empty", verr.Reason)

	require.Empty(t, mock.escrows)
}

func TestDepositSubmitsExactAmount(t *testing.T) {
	mock := newEscrowProviderMock()
	id, err := NewDispatcher(mock, partyA).Create(
		context.Background(), partyB, big.NewInt(10), big.NewInt(33), "exact amount")
	require.NoError(t, err)

	d := NewDispatcher(mock, partyB)
	d.now = func() time.Time { return time.Unix(1_700_000_100, 0) }
	require.NoError(t, d.Deposit(context.Background(), id))

	require.Len(t, mock.deposits, 1)
	require.Equal(t, id, mock.deposits[0].ID)
	require.Equal(t, big.NewInt(33), mock.deposits[0].Amount)
}

func TestDepositDeadlinePassedFailsLocally(t *testing.T) {
	mock := newEscrowProviderMock()
	id, err := NewDispatcher(mock, partyA).Create(
		context.Background(), partyB, big.NewInt(10), big.NewInt(33), "late")
	require.NoError(t, err)

	d := NewDispatcher(mock, partyB)
	d.now = func() time.Time {
		return mock.escrows[id].DepositDeadline.Add(time.Second)
	}

	err = d.Deposit(context.Background(), id)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "deposit deadline passed", verr.Reason)

	// never submitted
	require.Empty(t, mock.deposits)
}

func TestDepositNotFound(t *testing.T) {
	mock := newEscrowProviderMock()
	d := NewDispatcher(mock, partyB)

	err := d.Deposit(context.Background(), 42)
	require.ErrorIs(t, err, ErrEscrowNotFound)
	require.Empty(t, mock.deposits)
}

func TestCancelTerminalFailsLocally(t *testing.T) {
	mock := newEscrowProviderMock()
	ctx := context.Background()
	id, err := NewDispatcher(mock, partyA).Create(ctx, partyB, big.NewInt(1), big.NewInt(1), "x")
	require.NoError(t, err)

	d := NewDispatcher(mock, partyA)
	require.NoError(t, d.Cancel(ctx, id))
	require.Len(t, mock.cancels, 1)

	// second cancel is rejected before submission
	err = d.Cancel(ctx, id)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "escrow was cancelled", verr.Reason)
	require.Len(t, mock.cancels, 1)
}

func TestCompleteRequiresBothDeposits(t *testing.T) {
	mock := newEscrowProviderMock()
	ctx := context.Background()
	id, err := NewDispatcher(mock, partyA).Create(ctx, partyB, big.NewInt(1), big.NewInt(1), "x")
	require.NoError(t, err)

	d := NewDispatcher(mock, partyA)
	err = d.Complete(ctx, id)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "both parties must have deposited", verr.Reason)
	require.Empty(t, mock.completes)

	db := NewDispatcher(mock, partyB)
	db.now = func() time.Time { return time.Unix(1_700_000_100, 0) }
	require.NoError(t, db.Deposit(ctx, id))

	require.NoError(t, d.Complete(ctx, id))
	require.Equal(t, []uint64{id}, mock.completes)
}
