package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"autonchain/config"
	"autonchain/core"
	"autonchain/core/state"
	"autonchain/crypto"
	"autonchain/observability/logging"
	"autonchain/rpc"
	"autonchain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("AUTON_ENV"))
	logger := logging.Setup("autond", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	node := core.NewNode(db)
	node.SetLogger(logger)

	if err := applyGenesis(node, cfg.Genesis, logger); err != nil {
		logger.Error("Failed to apply genesis", slog.Any("error", err))
		os.Exit(1)
	}

	server := rpc.NewServer(node)
	server.SetLogger(logger)

	logger.Info("node ready", "network", cfg.NetworkName, "rpc", cfg.RPCAddress)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// applyGenesis seeds the treasury singleton and initial balances on first
// boot. A singleton collision means a previous boot already applied the same
// genesis, so it is not an error.
func applyGenesis(node *core.Node, gen config.Genesis, logger *slog.Logger) error {
	admin := strings.TrimSpace(gen.Admin)
	wallet := strings.TrimSpace(gen.VaultWallet)
	if admin == "" || wallet == "" {
		return nil
	}

	adminAddr, err := crypto.DecodeAddress(admin)
	if err != nil {
		return fmt.Errorf("invalid genesis admin address: %w", err)
	}
	walletAddr, err := crypto.DecodeAddress(wallet)
	if err != nil {
		return fmt.Errorf("invalid genesis vault wallet address: %w", err)
	}

	_, err = node.InitializeVault(adminAddr.Bytes(), walletAddr.Bytes(), gen.FeeBps, gen.SponsorshipAmount)
	switch {
	case errors.Is(err, state.ErrRecordExists):
		logger.Info("genesis already applied")
		return nil
	case err != nil:
		return err
	}

	for _, alloc := range gen.Allocations {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(alloc.Address))
		if err != nil {
			return fmt.Errorf("invalid allocation address %q: %w", alloc.Address, err)
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(alloc.Amount), 10)
		if !ok || amount.Sign() < 0 {
			return fmt.Errorf("invalid allocation amount %q", alloc.Amount)
		}
		if err := node.Credit(addr.Bytes(), amount); err != nil {
			return fmt.Errorf("credit allocation for %s: %w", alloc.Address, err)
		}
	}

	logger.Info("genesis applied", "allocations", len(gen.Allocations))
	return nil
}
