package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ethpandaops/era-indexer/internal/cliutil"
	"github.com/ethpandaops/era-indexer/internal/config"
	"github.com/ethpandaops/era-indexer/internal/loader"
	"github.com/ethpandaops/era-indexer/internal/pipeline"
	"github.com/ethpandaops/era-indexer/internal/remote"
	"github.com/ethpandaops/era-indexer/internal/state"
	"github.com/ethpandaops/era-indexer/internal/store"
)

var remoteHTTPClient = &http.Client{Timeout: 5 * time.Minute}

// RunRemote discovers and processes (or just downloads) the era range
// rangeStr for network against cfg.BaseURL, per spec.md §4.5/§6.
func RunRemote(ctx context.Context, cfg config.Config, network, rangeStr, verb, output string, downloadOnly bool, opts Options) error {
	if err := config.RequireRemote(cfg); err != nil {
		return err
	}

	eraRange, err := cliutil.ParseEraRange(rangeStr)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	end := int64(-1)
	if !eraRange.OpenEnded {
		end = int64(eraRange.End)
	}

	files, err := remote.Discover(ctx, remoteHTTPClient, cfg.BaseURL, network, int64(eraRange.Start), end)
	if err != nil {
		return fmt.Errorf("app: discover eras: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("app: no era files discovered for %s in range %s", network, rangeStr)
	}

	downloadDir := cfg.DownloadDir
	if downloadDir == "" {
		downloadDir = os.TempDir()
	}

	var db *store.Store
	var mgr *state.Manager
	if !downloadOnly && opts.ExportTarget == exportClickHouse {
		db, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		mgr = state.New(db)
	}

	var completed map[uint64]bool
	if mgr != nil && !opts.Force {
		completed, err = mgr.CompletedEras(ctx, network, eraRange.Start, files[len(files)-1].EraNumber)
		if err != nil {
			log.WithError(err).Warn("app: failed to check already-completed eras, proceeding without skip")
			completed = nil
		}
	}

	var failures int
	for _, f := range files {
		if completed[f.EraNumber] {
			log.WithFields(log.Fields{"era": f.EraNumber}).Info("app: era already completed, skipping (use --force to reprocess)")
			continue
		}

		localPath, err := remote.Download(ctx, remoteHTTPClient, f, downloadDir, cfg.MaxRetries)
		if err != nil {
			log.WithFields(log.Fields{"era": f.EraNumber}).WithError(err).Error("app: download failed, continuing with next era")
			failures++
			continue
		}

		if downloadOnly {
			log.WithFields(log.Fields{"era": f.EraNumber, "path": localPath}).Info("app: downloaded era file")
			continue
		}

		if err := processDownloadedEra(ctx, cfg, localPath, verb, output, opts, db, mgr); err != nil {
			log.WithFields(log.Fields{"era": f.EraNumber}).WithError(err).Error("app: processing failed, continuing with next era")
			failures++
		}

		remote.Cleanup(localPath, cfg.CleanupAfterProcess)
	}

	if failures > 0 {
		return fmt.Errorf("app: %d era(s) failed in remote run, see logs", failures)
	}
	return nil
}

func processDownloadedEra(ctx context.Context, cfg config.Config, localPath, verb, output string, opts Options, db *store.Store, mgr *state.Manager) error {
	if opts.ExportTarget == exportClickHouse && db != nil && mgr != nil {
		datasets, err := datasetsForVerb(verb)
		if err != nil {
			return err
		}
		result, err := pipeline.ProcessEra(ctx, localPath, "remote", datasets, mgr, loader.New(db))
		if err != nil {
			return err
		}
		if len(result.DatasetErrors) > 0 {
			return fmt.Errorf("app: %d dataset(s) failed for %s", len(result.DatasetErrors), localPath)
		}
		return nil
	}

	var rest []string
	if output != "" {
		rest = []string{perFileOutput(output, localPath)}
	}
	return RunLocal(ctx, cfg, localPath, verb, rest, opts)
}
