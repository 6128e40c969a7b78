package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.RPCAddress)
	require.Equal(t, "auton-local", cfg.NetworkName)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should have been written")
}

func TestLoadParsesGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
RPCAddress = ":9090"
DataDir = "/tmp/auton"
NetworkName = "auton-test"

[Genesis]
Admin = "auton1qyqszqgpqyqszqgpqyqszqgpqyqszqgp2tfeqt"
VaultWallet = "auton1qyqszqgpqyqszqgpqyqszqgpqyqszqgp2tfeqt"
FeeBps = 250
SponsorshipAmount = 1000000

[[Genesis.Allocations]]
Address = "auton1qyqszqgpqyqszqgpqyqszqgpqyqszqgp2tfeqt"
Amount = "5000000000"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.RPCAddress)
	require.Equal(t, uint64(250), cfg.Genesis.FeeBps)
	require.Len(t, cfg.Genesis.Allocations, 1)
	require.Equal(t, "5000000000", cfg.Genesis.Allocations[0].Amount)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("BogusKey = true\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
