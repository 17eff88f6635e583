package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultContractAddress is the canonical SecureSwap deployment.
const DefaultContractAddress = "0xc9c9549F34AB22C2932393E5366f77C559e72B14"

type config struct {
	Networks map[string]network `yaml:"networks"`
}

type network struct {
	RPCURL          string `yaml:"rpc_url"`
	ContractAddress string `yaml:"contract_address"`
	ChainID         int64  `yaml:"chain_id"`
}

func newConfig() *config {
	return &config{
		Networks: make(map[string]network),
	}
}

func loadConfig(path string) (*config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return &config{}, err
	}

	conf := newConfig()
	if err := yaml.Unmarshal(buf, conf); err != nil {
		return &config{}, err
	}

	return conf, nil
}

func defaultConfigLocation(dir string) (string, error) {
	if dir == "" {
		// the default directory is home
		var err error
		dir, err = homedir.Dir()
		if err != nil {
			return "", fmt.Errorf("home dir: %s", err)
		}

		dir = path.Join(dir, ".secureswap")
	}

	// ignore err if dir already exists
	if err := os.Mkdir(dir, 0o755); err != nil {
		if !strings.Contains(err.Error(), "file exists") {
			return "", fmt.Errorf("mkdir: %s", err)
		}
	}

	return dir, nil
}

type chainInfo struct {
	Name   string
	Symbol string
}

// chainMetadata maps well-known chain ids to display metadata. Unknown
// chains still work; they just print the bare id and a generic symbol.
var chainMetadata = map[int64]chainInfo{
	1:        {Name: "Ethereum Mainnet", Symbol: "ETH"},
	5:        {Name: "Goerli", Symbol: "ETH"},
	11155111: {Name: "Sepolia", Symbol: "ETH"},
	137:      {Name: "Polygon", Symbol: "MATIC"},
	80001:    {Name: "Mumbai", Symbol: "MATIC"},
	80002:    {Name: "Amoy", Symbol: "MATIC"},
}

func chainName(id int64) string {
	if info, ok := chainMetadata[id]; ok {
		return info.Name
	}
	return fmt.Sprintf("chain %d", id)
}

func chainSymbol(id int64) string {
	if info, ok := chainMetadata[id]; ok {
		return info.Symbol
	}
	return "ETH"
}
