package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/ethpandaops/era-indexer/internal/normalize"
	"github.com/ethpandaops/era-indexer/internal/store"
)

const maxInsertAttempts = 3

// batchSize returns the adaptive batch size for dataset, per spec.md §4.7.
func batchSize(dataset string) int {
	switch dataset {
	case normalize.DatasetAttestations:
		return 3000
	case normalize.DatasetTransactions, normalize.DatasetWithdrawals:
		return 8000
	default:
		return 15000
	}
}

// streamingThreshold returns the row count above which Load logs that a
// dataset is large (spec.md §4.7); the batch size and insert path are the
// same on either side of it.
func streamingThreshold(dataset string) int {
	if dataset == normalize.DatasetAttestations {
		return 10000
	}
	return 15000
}

// Loader bulk-inserts normalized rows into the store, retrying a failed
// batch with a Ping health check between attempts. Retries reuse the same
// store connection; the loader does not reconnect.
type Loader struct {
	db *store.Store
}

func New(db *store.Store) *Loader {
	return &Loader{db: db}
}

// Load inserts dataset's rows in adaptively-sized batches. A batch that
// fails after maxInsertAttempts returns an error for the caller to surface
// to the state manager as a dataset failure (spec.md §4.7, §7); other
// datasets are unaffected since each Load call is independent.
func (l *Loader) Load(ctx context.Context, dataset string, rows []normalize.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	columns := ColumnNames(dataset)
	size := batchSize(dataset)
	if len(rows) > streamingThreshold(dataset) {
		log.WithFields(log.Fields{"dataset": dataset, "rows": len(rows)}).Info("loader: row count exceeds streaming threshold, inserting incrementally")
	}

	inserted := 0
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}

		tuples := make([][]interface{}, end-start)
		for i, row := range rows[start:end] {
			tuples[i] = toTuple(dataset, row)
		}

		if err := l.insertWithRetry(ctx, dataset, columns, tuples); err != nil {
			return inserted, fmt.Errorf("loader: insert %s batch [%d:%d]: %w", dataset, start, end, err)
		}
		inserted += len(tuples)
	}

	return inserted, nil
}

func (l *Loader) insertWithRetry(ctx context.Context, table string, columns []string, rows [][]interface{}) error {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxInsertAttempts-1)
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := l.db.Insert(ctx, table, columns, rows)
		if err == nil {
			return nil
		}

		log.WithFields(log.Fields{"table": table, "attempt": attempt}).WithError(err).Warn("loader: insert attempt failed, health-checking before retry")
		if pingErr := l.db.Ping(ctx); pingErr != nil {
			log.WithError(pingErr).Warn("loader: store unhealthy after failed insert")
		}
		return err
	}, backoff.WithContext(policy, ctx))
}

// LoadAll inserts every dataset in result, returning per-dataset row counts
// and a map of each failing dataset's error; a failing dataset does not prevent the
// others from being attempted (spec.md §7: dataset failures are isolated).
func (l *Loader) LoadAll(ctx context.Context, result normalize.Result) (map[string]int, map[string]error) {
	counts := make(map[string]int, len(result))
	errs := make(map[string]error)

	for dataset, rows := range result {
		start := time.Now()
		n, err := l.Load(ctx, dataset, rows)
		counts[dataset] = n
		if err != nil {
			errs[dataset] = err
			continue
		}
		log.WithFields(log.Fields{"dataset": dataset, "rows": n, "duration_ms": time.Since(start).Milliseconds()}).Info("loader: dataset loaded")
	}

	return counts, errs
}
