package escrowprovider

import (
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"
)

func TestMethodSelector(t *testing.T) {
	// well-known selectors, checkable against any Solidity reference
	require.Equal(t, []byte{0x8d, 0xa5, 0xcb, 0x5b}, methodSelector("owner()"))
	require.Equal(t, []byte{0x5c, 0x97, 0x5a, 0xbb}, methodSelector("paused()"))
	require.Equal(t, []byte{0x08, 0xc3, 0x79, 0xa0}, methodSelector("Error(string)"))
}

func TestMissingSelectors(t *testing.T) {
	var code []byte
	for _, sig := range requiredMethods {
		code = append(code, 0x63) // PUSH4
		code = append(code, methodSelector(sig)...)
	}
	require.Empty(t, missingSelectors(code))

	partial := code[:len(code)-5]
	missing := missingSelectors(partial)
	require.Equal(t, []string{"manualCompleteEscrow(uint256)"}, missing)
}

func TestDecodeRevertReason(t *testing.T) {
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)

	encoded, err := abi.Arguments{{Type: stringType}}.Pack("Deadline passed")
	require.NoError(t, err)

	reason, ok := decodeRevertReason(append(revertSelector, encoded...))
	require.True(t, ok)
	require.Equal(t, "Deadline passed", reason)

	_, ok = decodeRevertReason([]byte{0x01, 0x02, 0x03})
	require.False(t, ok)

	// plain return data without the Error(string) prefix
	_, ok = decodeRevertReason(encoded)
	require.False(t, ok)
}

func TestDecodeRevertReasonMalformed(t *testing.T) {
	word := func(v uint64) []byte {
		w := make([]byte, 32)
		binary.BigEndian.PutUint64(w[24:], v)
		return w
	}

	// offset word chosen so that naive offset+32 arithmetic would wrap
	data := append([]byte{}, revertSelector...)
	data = append(data, word(^uint64(0)-15)...)
	data = append(data, word(0)...)
	_, ok := decodeRevertReason(data)
	require.False(t, ok)

	// offset that points past the payload
	data = append([]byte{}, revertSelector...)
	data = append(data, word(1024)...)
	data = append(data, word(0)...)
	_, ok = decodeRevertReason(data)
	require.False(t, ok)

	// valid offset, length word that would wrap
	data = append([]byte{}, revertSelector...)
	data = append(data, word(32)...)
	data = append(data, word(^uint64(0)-15)...)
	_, ok = decodeRevertReason(data)
	require.False(t, ok)

	// valid offset, length past the payload
	data = append([]byte{}, revertSelector...)
	data = append(data, word(32)...)
	data = append(data, word(64)...)
	_, ok = decodeRevertReason(data)
	require.False(t, ok)

	// offset wider than 64 bits
	data = append([]byte{}, revertSelector...)
	wide := make([]byte, 32)
	wide[0] = 0x01
	data = append(data, wide...)
	data = append(data, word(0)...)
	_, ok = decodeRevertReason(data)
	require.False(t, ok)
}
