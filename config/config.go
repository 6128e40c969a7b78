package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// GenesisAllocation credits an address with an initial balance on first boot.
type GenesisAllocation struct {
	Address string `toml:"Address"`
	Amount  string `toml:"Amount"`
}

// Genesis captures the bootstrap parameters applied when the data directory is
// empty: the treasury singleton and any initial balances.
type Genesis struct {
	Admin             string              `toml:"Admin"`
	VaultWallet       string              `toml:"VaultWallet"`
	FeeBps            uint64              `toml:"FeeBps"`
	SponsorshipAmount uint64              `toml:"SponsorshipAmount"`
	Allocations       []GenesisAllocation `toml:"Allocations"`
}

type Config struct {
	RPCAddress  string  `toml:"RPCAddress"`
	DataDir     string  `toml:"DataDir"`
	NetworkName string  `toml:"NetworkName"`
	Genesis     Genesis `toml:"Genesis"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "auton-local"
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./auton-data"
	}

	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:  ":8080",
		DataDir:     "./auton-data",
		NetworkName: "auton-local",
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
