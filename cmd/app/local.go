package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/ethpandaops/era-indexer/internal/config"
	"github.com/ethpandaops/era-indexer/internal/era"
	"github.com/ethpandaops/era-indexer/internal/export"
	"github.com/ethpandaops/era-indexer/internal/forks"
	"github.com/ethpandaops/era-indexer/internal/normalize"
	"github.com/ethpandaops/era-indexer/internal/pipeline"
	"github.com/ethpandaops/era-indexer/internal/state"
)

// RunLocal handles `<era_file> {stats|block <slot>|all-blocks <output>|
// transactions|withdrawals|attestations|sync_aggregates} [output]`.
func RunLocal(ctx context.Context, cfg config.Config, eraFile, verb string, rest []string, opts Options) error {
	switch verb {
	case "stats":
		return runStats(eraFile)
	case "block":
		if len(rest) < 1 {
			return fmt.Errorf("app: block requires a slot argument")
		}
		slot, err := strconv.ParseUint(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("app: parse slot %q: %w", rest[0], err)
		}
		return runBlock(eraFile, slot)
	default:
		if len(rest) < 1 && opts.ExportTarget != exportClickHouse {
			return fmt.Errorf("app: %s requires an output argument", verb)
		}
		output := ""
		if len(rest) > 0 {
			output = rest[0]
		}
		return runDataset(ctx, cfg, eraFile, verb, output, opts)
	}
}

func runStats(eraFile string) error {
	reader, _, err := pipeline.DecodeEra(eraFile)
	if err != nil {
		return err
	}
	stats, err := reader.Validate()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runBlock(eraFile string, slot uint64) error {
	_, decoded, err := pipeline.DecodeEra(eraFile)
	if err != nil {
		return err
	}
	for _, b := range decoded {
		if b.Message.Slot == slot {
			data, err := json.MarshalIndent(b, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
	}
	return fmt.Errorf("app: slot %d not found in %s", slot, eraFile)
}

func runDataset(ctx context.Context, cfg config.Config, eraFile, verb, output string, opts Options) error {
	reader, decoded, err := pipeline.DecodeEra(eraFile)
	if err != nil {
		return err
	}
	datasets, err := datasetsForVerb(verb)
	if err != nil {
		return err
	}

	normalized := normalize.Blocks(decoded, forks.Resolve(reader.Meta.Network))

	if opts.ExportTarget == exportClickHouse {
		return loadDatasetsToStore(ctx, cfg, reader.Meta, datasets, normalized)
	}
	return exportDatasetsToFile(reader.Meta, output, datasets, normalized, opts.Separate)
}

func loadDatasetsToStore(ctx context.Context, cfg config.Config, meta era.Metadata, datasets []string, normalized normalize.Result) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	mgr := state.New(db)
	subset := make(normalize.Result, len(datasets))
	for _, d := range datasets {
		subset[d] = normalized[d]
	}
	counts, errs := loadResult(ctx, db, mgr, meta.Filename, meta.Network, meta.EraNumber, "local", subset)
	for dataset, n := range counts {
		log.WithFields(log.Fields{"dataset": dataset, "rows": n}).Info("app: loaded dataset")
	}
	if len(errs) > 0 {
		return fmt.Errorf("app: %d dataset(s) failed to load, see logs", len(errs))
	}
	return nil
}

func exportDatasetsToFile(meta era.Metadata, output string, datasets []string, normalized normalize.Result, separate bool) error {
	eraInfo := export.EraInfo{Network: meta.Network, EraNumber: meta.EraNumber, StartSlot: meta.StartSlot, EndSlot: meta.EndSlot}

	if len(datasets) == 1 {
		return export.Write(output, eraInfo, datasets[0], normalized[datasets[0]])
	}

	subset := make(map[string][]normalize.Row, len(datasets))
	for _, d := range datasets {
		subset[d] = normalized[d]
	}
	if !separate {
		return export.WriteAll(output, eraInfo, subset)
	}
	for _, dataset := range datasets {
		path := datasetPath(output, dataset)
		if err := export.Write(path, eraInfo, dataset, normalized[dataset]); err != nil {
			return fmt.Errorf("app: export %s: %w", dataset, err)
		}
	}
	return nil
}

// datasetPath inserts the dataset name before the final extension, e.g.
// "out.json" + "transactions" -> "out.transactions.json".
func datasetPath(base, dataset string) string {
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i] + "." + dataset + base[i:]
		}
		if base[i] == '/' {
			break
		}
	}
	return base + "." + dataset
}
