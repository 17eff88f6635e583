package app

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	account, err := NewAccount("0x8ba1f109551bD432803012645aC136c22C4C4C4C")
	require.NoError(t, err)
	require.Equal(t, partyB, account.Address())
	require.Equal(t, partyB.Hex(), account.Hex())

	_, err = NewAccount("not-an-address")
	require.Error(t, err)
}

func TestEscrowExists(t *testing.T) {
	require.True(t, pendingEscrow(time.Now()).Exists())

	// the contract returns an all-zero tuple for unknown identifiers
	require.False(t, Escrow{ID: 999}.Exists())

	// party B alone does not prove the record was created
	require.False(t, Escrow{PartyB: common.HexToAddress("0x1")}.Exists())
}
