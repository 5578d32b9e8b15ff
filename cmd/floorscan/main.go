// ====================================
// File: cmd/floorscan/main.go
// ====================================
// floorscan runs a single marketplace scan and prints the result as JSON.
// It exercises the whole read path without the daemon lifecycle.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/floorlab/floorbot/internal/chain"
	"github.com/floorlab/floorbot/internal/config"
	"github.com/floorlab/floorbot/internal/market"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	view := flag.String("view", "listings", "view to scan: holdings | listings | floor")
	owner := flag.String("owner", "", "owner address for the holdings view")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall scan timeout")
	flag.Parse()

	if err := run(*configPath, *view, *owner, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "floorscan: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, view, owner string, timeout time.Duration) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	endpoint, err := cfg.Endpoint()
	if err != nil {
		return err
	}

	// Scan output goes to stdout; keep the log channel quiet unless
	// something goes wrong.
	log, err := zap.NewProduction(zap.IncreaseLevel(zap.WarnLevel))
	if err != nil {
		return err
	}
	defer log.Sync()

	client := chain.NewClient(endpoint, log)
	scanner := market.NewScanner(market.ScannerConfig{
		Viewer:     client,
		Contract:   market.Contract{ModuleAddress: cfg.ModuleAddress},
		Creator:    cfg.ModuleAddress,
		Treasury:   cfg.TreasuryAddress,
		BatchWidth: cfg.BatchWidth,
		Logger:     log,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var result any
	switch view {
	case "holdings":
		if owner == "" {
			return fmt.Errorf("the holdings view requires -owner")
		}
		result = scanner.Holdings(ctx, owner)
	case "listings":
		result = scanner.Listings(ctx)
	case "floor":
		result = scanner.Floor(ctx)
	default:
		return fmt.Errorf("unknown view %q (want holdings, listings or floor)", view)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
