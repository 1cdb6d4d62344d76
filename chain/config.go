// Package chain publishes anchor payloads to Bitcoin and reads them back.
// It owns the node RPC plumbing (funding, signing, broadcast, regtest block
// generation); the payload bytes themselves come from the anchor codec and
// are never interpreted here.
package chain

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/caarlos0/env/v11"
)

// Config holds the Bitcoin Core connection settings, read from the
// environment.
type Config struct {
	RPCHost string `env:"BTC_RPC_HOST" envDefault:"localhost:18443"`
	RPCUser string `env:"BTC_RPC_USER" envDefault:"bitcoin"`
	RPCPass string `env:"BTC_RPC_PASS" envDefault:"bitcoin"`
	Network string `env:"BTC_NETWORK" envDefault:"regtest"`

	// FeeRate is the sats-per-vbyte rate used for cost reporting.
	FeeRate uint64 `env:"BTC_FEE_RATE" envDefault:"10"`
}

// ConfigFromEnv reads the connection settings from BTC_* environment
// variables, applying defaults for anything unset.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("chain: parse env: %w", err)
	}
	if _, err := cfg.Params(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Params maps the configured network name onto its chain parameters.
func (c Config) Params() (*chaincfg.Params, error) {
	switch c.Network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("chain: unknown network %q", c.Network)
	}
}
