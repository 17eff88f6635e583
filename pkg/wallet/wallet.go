// Package wallet handles local secp256k1 key material for signing escrow
// transactions.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// LoadKeyFile reads a hex-encoded private key from a file.
func LoadKeyFile(path string) (*ecdsa.PrivateKey, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading key from %s: %s", path, err)
	}
	return privateKey, nil
}

// ParseKey decodes a hex private key string, with or without a 0x prefix.
func ParseKey(hexkey string) (*ecdsa.PrivateKey, error) {
	if len(hexkey) > 1 && hexkey[0] == '0' && (hexkey[1] == 'x' || hexkey[1] == 'X') {
		hexkey = hexkey[2:]
	}
	privateKey, err := crypto.HexToECDSA(hexkey)
	if err != nil {
		return nil, fmt.Errorf("parsing key: %s", err)
	}
	return privateKey, nil
}

// AddressOf derives the Ethereum address of a private key.
func AddressOf(privateKey *ecdsa.PrivateKey) common.Address {
	pubk, _ := privateKey.Public().(*ecdsa.PublicKey)
	return crypto.PubkeyToAddress(*pubk)
}

// CreateKeyFile generates a fresh key pair and writes the private key to a
// file as a bare hex string. Returns the derived address.
func CreateKeyFile(path string) (common.Address, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return common.Address{}, fmt.Errorf("generate key: %s", err)
	}
	privateKeyBytes := crypto.FromECDSA(privateKey)

	if err := os.WriteFile(path, []byte(hexutil.Encode(privateKeyBytes)[2:]), 0o644); err != nil {
		return common.Address{}, fmt.Errorf("writing to file %s: %s", path, err)
	}
	return AddressOf(privateKey), nil
}
