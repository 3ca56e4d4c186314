// Package app holds the dispatch logic behind each of the root command's
// modes: local single-file processing, batch, remote orchestration, and the
// operational era-status/era-failed/era-cleanup/era-check/migrate commands.
package app

import (
	"context"
	"fmt"

	"github.com/ethpandaops/era-indexer/internal/config"
	"github.com/ethpandaops/era-indexer/internal/loader"
	"github.com/ethpandaops/era-indexer/internal/normalize"
	"github.com/ethpandaops/era-indexer/internal/state"
	"github.com/ethpandaops/era-indexer/internal/store"
)

// Options carries the flags shared across dispatch modes.
type Options struct {
	Separate     bool
	Force        bool
	ExportTarget string // "" for file export, "clickhouse" for the store
}

const exportClickHouse = "clickhouse"

// openStore validates and opens the ClickHouse connection a mode needs.
func openStore(cfg config.Config) (*store.Store, error) {
	if err := config.RequireClickHouse(cfg); err != nil {
		return nil, err
	}
	db, err := store.Open(cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}
	return db, nil
}

// loadResult inserts every dataset in result via db, claiming/completing
// each one against mgr so a later resume can skip what's already done.
func loadResult(ctx context.Context, db *store.Store, mgr *state.Manager, eraFilename, network string, eraNumber uint64, workerID string, result normalize.Result) (map[string]int, map[string]error) {
	ld := loader.New(db)
	counts := make(map[string]int, len(result))
	errs := make(map[string]error)

	for dataset, rows := range result {
		claimed, err := mgr.Claim(ctx, eraFilename, network, eraNumber, dataset, workerID, "")
		if err != nil {
			errs[dataset] = err
			continue
		}
		if !claimed {
			continue
		}

		n, err := ld.Load(ctx, dataset, rows)
		if err != nil {
			errs[dataset] = err
			if failErr := mgr.Fail(ctx, eraFilename, network, eraNumber, dataset, err); failErr != nil {
				errs[dataset] = fmt.Errorf("%w (and failed to record failure: %v)", err, failErr)
			}
			continue
		}
		counts[dataset] = n
		_ = mgr.Complete(ctx, eraFilename, network, eraNumber, dataset, n, 0)
	}
	return counts, errs
}

// datasetsForVerb maps a CLI verb to the dataset(s) it targets; "all-blocks"
// maps to every dataset. "stats" and "block" are handled separately by
// their callers.
func datasetsForVerb(verb string) ([]string, error) {
	switch verb {
	case "transactions":
		return []string{normalize.DatasetTransactions}, nil
	case "withdrawals":
		return []string{normalize.DatasetWithdrawals}, nil
	case "attestations":
		return []string{normalize.DatasetAttestations}, nil
	case "sync_aggregates":
		return []string{normalize.DatasetSyncAggregates}, nil
	case "all-blocks":
		return normalize.Datasets, nil
	default:
		return nil, fmt.Errorf("app: unknown verb %q", verb)
	}
}
