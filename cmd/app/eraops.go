package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ethpandaops/era-indexer/internal/config"
	"github.com/ethpandaops/era-indexer/internal/era"
	"github.com/ethpandaops/era-indexer/internal/state"
)

// EraStatus implements `--era-status <network|all>`.
func EraStatus(ctx context.Context, cfg config.Config, target string) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	mgr := state.New(db)
	network := target
	if target == "all" {
		network = ""
	}
	rows, err := mgr.EraStatuses(ctx, network)
	if err != nil {
		return err
	}
	return printJSON(rows)
}

// EraFailed implements `--era-failed <network|all> [limit]`.
func EraFailed(ctx context.Context, cfg config.Config, target string, args []string) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("app: parse era-failed limit %q: %w", args[0], err)
		}
		limit = n
	}

	mgr := state.New(db)
	network := target
	if target == "all" {
		network = ""
	}
	rows, err := mgr.FailedEras(ctx, network, limit)
	if err != nil {
		return err
	}
	return printJSON(rows)
}

// EraCleanup implements `--era-cleanup [timeout_minutes]`.
func EraCleanup(ctx context.Context, cfg config.Config, timeoutMinutesStr string) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	minutes, err := strconv.Atoi(timeoutMinutesStr)
	if err != nil {
		return fmt.Errorf("app: parse era-cleanup timeout %q: %w", timeoutMinutesStr, err)
	}

	mgr := state.New(db)
	swept, err := mgr.CleanupStale(ctx, time.Duration(minutes)*time.Minute)
	if err != nil {
		return err
	}
	fmt.Printf("era-cleanup: marked %d stale processing record(s) as failed\n", swept)
	return nil
}

// EraCheck implements `--era-check <era_file>`: a lightweight framing
// validation pass that never decompresses or decodes block bodies.
func EraCheck(eraFile string) error {
	reader, err := era.Open(eraFile)
	if err != nil {
		return err
	}
	stats, err := reader.Validate()
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
