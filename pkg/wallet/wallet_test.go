package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateAndLoadKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")

	address, err := CreateKeyFile(path)
	require.NoError(t, err)

	privateKey, err := LoadKeyFile(path)
	require.NoError(t, err)
	require.Equal(t, address, AddressOf(privateKey))

	// file holds a bare hex string, no 0x prefix
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 64)
}

func TestParseKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	address, err := CreateKeyFile(path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	bare, err := ParseKey(string(raw))
	require.NoError(t, err)
	require.Equal(t, address, AddressOf(bare))

	prefixed, err := ParseKey("0x" + string(raw))
	require.NoError(t, err)
	require.Equal(t, address, AddressOf(prefixed))

	_, err = ParseKey("not-a-key")
	require.Error(t, err)
}
