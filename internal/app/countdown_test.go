package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDepositCountdown(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	e := pendingEscrow(now.Add(90 * time.Minute))
	remaining, ok := DepositCountdown(e, now)
	require.True(t, ok)
	require.Equal(t, 90*time.Minute, remaining)

	remaining, ok = DepositCountdown(e, now.Add(2*time.Hour))
	require.True(t, ok)
	require.Equal(t, time.Duration(0), remaining)

	e.DepositDeadline = time.Time{}
	_, ok = DepositCountdown(e, now)
	require.False(t, ok)
}

func TestNextPoll(t *testing.T) {
	require.Equal(t, time.Minute, NextPoll(3*time.Hour))
	require.Equal(t, 15*time.Second, NextPoll(5*time.Minute))
	require.Equal(t, 5*time.Second, NextPoll(30*time.Second))
	require.Equal(t, 5*time.Second, NextPoll(0))
}
