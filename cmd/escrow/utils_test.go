package main

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	wei, err := parseEther("1.5")
	require.NoError(t, err)
	require.Equal(t, "1500000000000000000", wei.String())

	wei, err = parseEther("0.000000000000000001")
	require.NoError(t, err)
	require.Equal(t, "1", wei.String())

	wei, err = parseEther("2")
	require.NoError(t, err)
	require.Equal(t, "2000000000000000000", wei.String())

	wei, err = parseEther(".5")
	require.NoError(t, err)
	require.Equal(t, "500000000000000000", wei.String())

	_, err = parseEther("1.1234567890123456789")
	require.Error(t, err)

	_, err = parseEther("abc")
	require.Error(t, err)

	_, err = parseEther("")
	require.Error(t, err)
}

func TestFormatEther(t *testing.T) {
	require.Equal(t, "1.5", formatEther(big.NewInt(1_500_000_000_000_000_000)))
	require.Equal(t, "2", formatEther(big.NewInt(2_000_000_000_000_000_000)))
	require.Equal(t, "0.000000000000000001", formatEther(big.NewInt(1)))
	require.Equal(t, "0", formatEther(nil))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"1.5", "0.25", "1000", "0.000000000000000123"} {
		wei, err := parseEther(s)
		require.NoError(t, err)
		require.Equal(t, s, formatEther(wei))
	}
}

func TestFormatAddress(t *testing.T) {
	require.Equal(
		t,
		"0xc9c9...2B14",
		formatAddress("0xc9c9549F34AB22C2932393E5366f77C559e72B14"),
	)
	require.Equal(t, "0x1234", formatAddress("0x1234"))
}
