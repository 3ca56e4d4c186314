// Package pipeline wires the era reader, block decoder, normalizer, state
// manager and loader into the end-to-end ingest flow spec.md §2 describes:
// era bytes -> records -> decoded blocks -> normalized rows -> store.
package pipeline

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ethpandaops/era-indexer/internal/block"
	"github.com/ethpandaops/era-indexer/internal/compression"
	"github.com/ethpandaops/era-indexer/internal/era"
	"github.com/ethpandaops/era-indexer/internal/forks"
	"github.com/ethpandaops/era-indexer/internal/loader"
	"github.com/ethpandaops/era-indexer/internal/normalize"
	"github.com/ethpandaops/era-indexer/internal/state"
)

// DecodeEra reads every block in an era file, decoding each one
// independently: a malformed block is logged and dropped rather than
// aborting the era (spec.md §4.3, §7).
func DecodeEra(path string) (*era.Reader, []*block.SignedBeaconBlock, error) {
	reader, err := era.Open(path)
	if err != nil {
		return nil, nil, err
	}

	cfg := forks.Resolve(reader.Meta.Network)

	entries, err := reader.Blocks()
	if err != nil {
		return reader, nil, err
	}

	decoded := make([]*block.SignedBeaconBlock, 0, len(entries))
	for _, entry := range entries {
		raw, err := compression.Decompress(entry.Compressed)
		if err != nil {
			log.WithFields(log.Fields{"era": reader.Meta.Filename, "slot": entry.Slot}).WithError(err).Warn("pipeline: dropping block that failed to decompress")
			continue
		}
		b, err := block.Decode(raw, cfg)
		if err != nil {
			log.WithFields(log.Fields{"era": reader.Meta.Filename, "slot": entry.Slot}).WithError(err).Warn("pipeline: dropping block that failed to decode")
			continue
		}
		decoded = append(decoded, b)
	}

	return reader, decoded, nil
}

// Result is what ProcessEra returns: the normalized rows plus, when a
// state manager and loader were supplied, the per-dataset outcomes.
type Result struct {
	Meta          era.Metadata
	Normalized    normalize.Result
	RowsInserted  map[string]int
	DatasetErrors map[string]error
}

// ProcessEra decodes and normalizes an era file, then (if stateManager and
// ld are both non-nil)
// claims, loads and completes each target dataset against the store,
// cleaning up any partial prior attempt first per spec.md §5's resume
// contract.
func ProcessEra(ctx context.Context, path, workerID string, datasets []string, stateManager *state.Manager, ld *loader.Loader) (Result, error) {
	reader, decoded, err := DecodeEra(path)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: decode era %s: %w", path, err)
	}
	cfg := forks.Resolve(reader.Meta.Network)
	normalized := normalize.Blocks(decoded, cfg)

	result := Result{Meta: reader.Meta, Normalized: normalized}
	if stateManager == nil || ld == nil {
		return result, nil
	}

	if err := stateManager.CleanEraCompletely(ctx, reader.Meta.Network, reader.Meta.EraNumber, reader.Meta.StartSlot, reader.Meta.EndSlot); err != nil {
		log.WithError(err).Warn("pipeline: pre-load cleanup failed, continuing")
	}

	if err := stateManager.StartEra(ctx, reader.Meta.Network, reader.Meta.EraNumber, reader.Meta.StartSlot, reader.Meta.EndSlot); err != nil {
		return result, fmt.Errorf("pipeline: record era start: %w", err)
	}

	counts := make(map[string]int)
	datasetErrors := make(map[string]error)
	totalRecords := 0
	completedDatasets := make([]string, 0, len(datasets))

	for _, dataset := range datasets {
		claimed, err := stateManager.Claim(ctx, reader.Meta.Filename, reader.Meta.Network, reader.Meta.EraNumber, dataset, workerID, "")
		if err != nil {
			datasetErrors[dataset] = err
			continue
		}
		if !claimed {
			log.WithFields(log.Fields{"era": reader.Meta.Filename, "dataset": dataset}).Info("pipeline: dataset already claimed or completed, skipping")
			continue
		}

		start := time.Now()
		n, err := ld.Load(ctx, dataset, normalized[dataset])
		durationMS := time.Since(start).Milliseconds()

		if err != nil {
			datasetErrors[dataset] = err
			if failErr := stateManager.Fail(ctx, reader.Meta.Filename, reader.Meta.Network, reader.Meta.EraNumber, dataset, err); failErr != nil {
				log.WithError(failErr).Warn("pipeline: failed to record dataset failure")
			}
			continue
		}

		counts[dataset] = n
		totalRecords += n
		completedDatasets = append(completedDatasets, dataset)
		if err := stateManager.Complete(ctx, reader.Meta.Filename, reader.Meta.Network, reader.Meta.EraNumber, dataset, n, durationMS); err != nil {
			log.WithError(err).Warn("pipeline: failed to record dataset completion")
		}
	}

	result.RowsInserted = counts
	result.DatasetErrors = datasetErrors

	if len(datasetErrors) == 0 {
		if err := stateManager.CompleteEra(ctx, reader.Meta.Network, reader.Meta.EraNumber, reader.Meta.StartSlot, reader.Meta.EndSlot, completedDatasets, totalRecords); err != nil {
			log.WithError(err).Warn("pipeline: failed to record era completion")
		}
	}

	return result, nil
}
