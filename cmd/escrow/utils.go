package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

type version struct {
	Version string `json:"version"`
}

func getVersion() string {
	var v version
	data, err := os.ReadFile("version.json")
	if err != nil {
		return "unknown"
	}
	err = json.Unmarshal(data, &v)
	if err != nil {
		return "unknown"
	}
	return v.Version
}

// formatAddress shortens an address for table output (0x1234...abcd).
func formatAddress(hex string) string {
	if len(hex) < 10 {
		return hex
	}
	return hex[:6] + "..." + hex[len(hex)-4:]
}

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// parseEther converts a decimal ether string ("1.5") to wei. Floats are
// avoided on purpose; a float64 cannot hold 18 decimals exactly.
func parseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty amount")
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 18 {
		return nil, fmt.Errorf("amount %s has more than 18 decimal places", s)
	}
	frac += strings.Repeat("0", 18-len(frac))
	if whole == "" {
		whole = "0"
	}

	wei, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	if wei.Sign() < 0 {
		return nil, fmt.Errorf("amount must be positive: %s", s)
	}
	return wei, nil
}

// formatEther renders a wei amount as a decimal ether string with trailing
// zeros trimmed.
func formatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}

	quo, rem := new(big.Int).QuoRem(wei, weiPerEther, new(big.Int))
	if rem.Sign() == 0 {
		return quo.String()
	}

	frac := strings.TrimRight(fmt.Sprintf("%018s", rem.String()), "0")
	return quo.String() + "." + frac
}

// spin renders a progress spinner until the returned stop function is
// called. Used while waiting on transaction confirmations.
func spin(description string) func() {
	bar := progressbar.Default(-1, description)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(done)
		_ = bar.Finish()
		fmt.Println()
	}
}
