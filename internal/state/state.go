// Package state implements the append-only, latest-row-wins completion log
// described in spec.md §3.6/§4.6: per-(era, dataset) claim/complete/fail
// tracking plus era-level completion records.
package state

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ethpandaops/era-indexer/internal/store"
)

const maxErrorMessageLen = 500

// DatasetStatus is one era_processing_state row's status.
type DatasetStatus string

const (
	DatasetPending    DatasetStatus = "pending"
	DatasetProcessing DatasetStatus = "processing"
	DatasetCompleted  DatasetStatus = "completed"
	DatasetFailed     DatasetStatus = "failed"
)

// EraStatus is one era_completion row's status.
type EraStatus string

const (
	EraProcessing EraStatus = "processing"
	EraCompleted  EraStatus = "completed"
	EraFailed     EraStatus = "failed"
)

// Manager is the single source of truth for what work is recoverable,
// per spec.md §7's propagation principle.
type Manager struct {
	db *store.Store
}

func New(db *store.Store) *Manager {
	return &Manager{db: db}
}

// Claim appends a "processing" row for (era, dataset) and returns true only
// if the prior latest state was pending/failed/absent. The read of the
// latest state and the append are separate steps and the state log
// provides no cross-worker mutex, so two concurrent claimers that both
// observe a claimable state both append a row and both return true.
func (m *Manager) Claim(ctx context.Context, eraFilename, network string, eraNumber uint64, dataset, workerID, fileHash string) (bool, error) {
	current, err := m.latestDatasetState(ctx, eraFilename, dataset)
	if err != nil {
		return false, err
	}
	if current != nil && current.Status == DatasetProcessing {
		return false, nil
	}
	if current != nil && current.Status == DatasetCompleted {
		return false, nil
	}

	attempt := 1
	if current != nil {
		attempt = current.AttemptCount + 1
	}

	return true, m.appendDatasetState(ctx, datasetStateRow{
		EraFilename:  eraFilename,
		Network:      network,
		EraNumber:    eraNumber,
		Dataset:      dataset,
		Status:       DatasetProcessing,
		WorkerID:     workerID,
		AttemptCount: attempt,
		FileHash:     fileHash,
		CreatedAt:    time.Now().UTC(),
	})
}

// Complete appends a "completed" row recording rows inserted and duration.
func (m *Manager) Complete(ctx context.Context, eraFilename, network string, eraNumber uint64, dataset string, rowsInserted int, durationMS int64) error {
	return m.appendDatasetState(ctx, datasetStateRow{
		EraFilename:           eraFilename,
		Network:               network,
		EraNumber:             eraNumber,
		Dataset:               dataset,
		Status:                DatasetCompleted,
		RowsInserted:          rowsInserted,
		ProcessingDurationMS:  durationMS,
		CreatedAt:             time.Now().UTC(),
	})
}

// Fail appends a "failed" row with a truncated error message and an
// incremented attempt count.
func (m *Manager) Fail(ctx context.Context, eraFilename, network string, eraNumber uint64, dataset string, cause error) error {
	current, err := m.latestDatasetState(ctx, eraFilename, dataset)
	if err != nil {
		return err
	}
	attempt := 1
	if current != nil {
		attempt = current.AttemptCount + 1
	}

	msg := cause.Error()
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}

	return m.appendDatasetState(ctx, datasetStateRow{
		EraFilename:  eraFilename,
		Network:      network,
		EraNumber:    eraNumber,
		Dataset:      dataset,
		Status:       DatasetFailed,
		AttemptCount: attempt,
		ErrorMessage: msg,
		CreatedAt:    time.Now().UTC(),
	})
}

// PendingDatasets returns the subset of targetDatasets not currently
// completed for eraFilename.
func (m *Manager) PendingDatasets(ctx context.Context, eraFilename string, targetDatasets []string) ([]string, error) {
	var pending []string
	for _, dataset := range targetDatasets {
		current, err := m.latestDatasetState(ctx, eraFilename, dataset)
		if err != nil {
			return nil, err
		}
		if current == nil || current.Status != DatasetCompleted {
			pending = append(pending, dataset)
		}
	}
	return pending, nil
}

// IsFullyProcessed reports whether every target dataset is completed.
func (m *Manager) IsFullyProcessed(ctx context.Context, eraFilename string, targetDatasets []string) (bool, error) {
	pending, err := m.PendingDatasets(ctx, eraFilename, targetDatasets)
	if err != nil {
		return false, err
	}
	return len(pending) == 0, nil
}

// CompletedEras returns the set of era numbers whose era_completion.status
// is completed within [lo, hi] for network.
func (m *Manager) CompletedEras(ctx context.Context, network string, lo, hi uint64) (map[uint64]bool, error) {
	query := `
		SELECT era_number, argMax(status, started_at) AS latest_status
		FROM era_completion
		WHERE network = ? AND era_number BETWEEN ? AND ?
		GROUP BY era_number
	`
	rows, err := m.db.Query(ctx, query, network, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("state: query completed eras: %w", err)
	}
	defer rows.Close()

	completed := make(map[uint64]bool)
	for rows.Next() {
		var eraNumber uint64
		var status string
		if err := rows.Scan(&eraNumber, &status); err != nil {
			return nil, fmt.Errorf("state: scan completed era row: %w", err)
		}
		if status == string(EraCompleted) {
			completed[eraNumber] = true
		}
	}
	return completed, nil
}

// EraStatusRow is one row of era_completion's latest-status view, used by
// the --era-status and --era-failed operator commands.
type EraStatusRow struct {
	Network      string
	EraNumber    uint64
	Status       string
	TotalRecords int
	ErrorMessage string
}

// EraStatuses returns the latest status of every era for network, or every
// network if network is empty, ordered by era number.
func (m *Manager) EraStatuses(ctx context.Context, network string) ([]EraStatusRow, error) {
	query := `
		SELECT network, era_number,
		       argMax(status, started_at) AS latest_status,
		       argMax(total_records, started_at) AS latest_total_records,
		       argMax(error_message, started_at) AS latest_error
		FROM era_completion
	`
	args := []interface{}{}
	if network != "" {
		query += " WHERE network = ?"
		args = append(args, network)
	}
	query += " GROUP BY network, era_number ORDER BY network, era_number"

	rows, err := m.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("state: query era statuses: %w", err)
	}
	defer rows.Close()

	var result []EraStatusRow
	for rows.Next() {
		var row EraStatusRow
		if err := rows.Scan(&row.Network, &row.EraNumber, &row.Status, &row.TotalRecords, &row.ErrorMessage); err != nil {
			return nil, fmt.Errorf("state: scan era status row: %w", err)
		}
		result = append(result, row)
	}
	return result, nil
}

// FailedEras returns the latest-failed eras for network (or all networks if
// empty), ordered by network then era number ascending. When limit > 0,
// only the last limit rows of that order are kept (0 means unlimited).
func (m *Manager) FailedEras(ctx context.Context, network string, limit int) ([]EraStatusRow, error) {
	all, err := m.EraStatuses(ctx, network)
	if err != nil {
		return nil, err
	}
	var failed []EraStatusRow
	for _, row := range all {
		if row.Status == string(EraFailed) {
			failed = append(failed, row)
		}
	}
	if limit > 0 && len(failed) > limit {
		failed = failed[len(failed)-limit:]
	}
	return failed, nil
}

// StartEra appends a "processing" era_completion row.
func (m *Manager) StartEra(ctx context.Context, network string, eraNumber, startSlot, endSlot uint64) error {
	return m.appendEraCompletion(ctx, eraCompletionRow{
		Network:   network,
		EraNumber: eraNumber,
		Status:    EraProcessing,
		SlotStart: startSlot,
		SlotEnd:   endSlot,
		StartedAt: time.Now().UTC(),
	})
}

// CompleteEra appends a "completed" era_completion row listing which
// datasets were processed and how many total records resulted.
func (m *Manager) CompleteEra(ctx context.Context, network string, eraNumber, startSlot, endSlot uint64, datasetsProcessed []string, totalRecords int) error {
	now := time.Now().UTC()
	return m.appendEraCompletion(ctx, eraCompletionRow{
		Network:           network,
		EraNumber:         eraNumber,
		Status:            EraCompleted,
		SlotStart:         startSlot,
		SlotEnd:           endSlot,
		TotalRecords:      totalRecords,
		DatasetsProcessed: datasetsProcessed,
		StartedAt:         now,
		CompletedAt:       now,
	})
}

// FailEra appends a "failed" era_completion row with a truncated error and
// an incremented retry count.
func (m *Manager) FailEra(ctx context.Context, network string, eraNumber, startSlot, endSlot uint64, retryCount int, cause error) error {
	msg := cause.Error()
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	return m.appendEraCompletion(ctx, eraCompletionRow{
		Network:      network,
		EraNumber:    eraNumber,
		Status:       EraFailed,
		SlotStart:    startSlot,
		SlotEnd:      endSlot,
		ErrorMessage: msg,
		RetryCount:   retryCount,
		StartedAt:    time.Now().UTC(),
	})
}

type eraCompletionRow struct {
	Network           string
	EraNumber         uint64
	Status            EraStatus
	SlotStart         uint64
	SlotEnd           uint64
	TotalRecords      int
	DatasetsProcessed []string
	StartedAt         time.Time
	CompletedAt       time.Time
	ErrorMessage      string
	RetryCount        int
}

func (m *Manager) appendEraCompletion(ctx context.Context, row eraCompletionRow) error {
	columns := []string{
		"network", "era_number", "status", "slot_start", "slot_end", "total_records",
		"datasets_processed", "started_at", "completed_at", "error_message", "retry_count",
	}
	values := []interface{}{
		row.Network, row.EraNumber, string(row.Status), row.SlotStart, row.SlotEnd, row.TotalRecords,
		row.DatasetsProcessed, row.StartedAt, row.CompletedAt, row.ErrorMessage, row.RetryCount,
	}
	if err := m.db.Insert(ctx, "era_completion", columns, [][]interface{}{values}); err != nil {
		return fmt.Errorf("state: append era_completion for era %d: %w", row.EraNumber, err)
	}
	return nil
}

// CleanEraCompletely deletes rows in every beacon-chain table for
// slot ∈ [startSlot, endSlot], then removes the era's completion record.
// Called before reinserting a partial era on resume (spec.md §5).
func (m *Manager) CleanEraCompletely(ctx context.Context, network string, eraNumber, startSlot, endSlot uint64) error {
	for _, table := range beaconChainTables {
		stmt := fmt.Sprintf("ALTER TABLE %s DELETE WHERE slot BETWEEN %d AND %d", table, startSlot, endSlot)
		if err := m.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("state: clean table %s for era %d: %w", table, eraNumber, err)
		}
	}
	if err := m.db.Exec(ctx, fmt.Sprintf("ALTER TABLE era_completion DELETE WHERE network = '%s' AND era_number = %d", network, eraNumber)); err != nil {
		return fmt.Errorf("state: remove completion record for era %d: %w", eraNumber, err)
	}
	log.WithFields(log.Fields{"network": network, "era": eraNumber}).Info("state: cleaned era completely")
	return nil
}

// CleanupStale sweeps era_processing_state rows stuck in "processing" past
// timeout, marking them failed so a later claim can retry them. This is
// the supplemented `--era-cleanup` CLI feature (SPEC_FULL.md §11).
func (m *Manager) CleanupStale(ctx context.Context, timeout time.Duration) (int, error) {
	query := `
		SELECT era_filename, dataset, argMax(status, created_at) AS latest_status, max(created_at) AS last_seen
		FROM era_processing_state
		GROUP BY era_filename, dataset
		HAVING latest_status = ? AND last_seen < ?
	`
	cutoff := time.Now().UTC().Add(-timeout)
	rows, err := m.db.Query(ctx, query, string(DatasetProcessing), cutoff)
	if err != nil {
		return 0, fmt.Errorf("state: query stale processing rows: %w", err)
	}
	defer rows.Close()

	var stale []struct {
		eraFilename string
		dataset     string
	}
	for rows.Next() {
		var eraFilename, dataset, status string
		var lastSeen time.Time
		if err := rows.Scan(&eraFilename, &dataset, &status, &lastSeen); err != nil {
			return 0, fmt.Errorf("state: scan stale processing row: %w", err)
		}
		stale = append(stale, struct {
			eraFilename string
			dataset     string
		}{eraFilename, dataset})
	}

	for _, s := range stale {
		if err := m.Fail(ctx, s.eraFilename, "", 0, s.dataset, fmt.Errorf("cleanup: processing exceeded %s timeout", timeout)); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

var beaconChainTables = []string{
	"blocks", "sync_aggregates", "execution_payloads", "transactions",
	"withdrawals", "attestations", "deposits", "voluntary_exits",
	"proposer_slashings", "attester_slashings", "bls_changes",
	"blob_commitments", "execution_requests",
}

type datasetStateRow struct {
	EraFilename          string
	Network              string
	EraNumber            uint64
	Dataset              string
	Status               DatasetStatus
	WorkerID             string
	AttemptCount         int
	FileHash             string
	ErrorMessage         string
	RowsInserted         int
	ProcessingDurationMS int64
	CreatedAt            time.Time
}

func (m *Manager) appendDatasetState(ctx context.Context, row datasetStateRow) error {
	columns := []string{
		"era_filename", "network", "era_number", "dataset", "status", "worker_id",
		"attempt_count", "file_hash", "error_message", "rows_inserted",
		"processing_duration_ms", "created_at",
	}
	values := []interface{}{
		row.EraFilename, row.Network, row.EraNumber, row.Dataset, string(row.Status), row.WorkerID,
		row.AttemptCount, row.FileHash, row.ErrorMessage, row.RowsInserted,
		row.ProcessingDurationMS, row.CreatedAt,
	}
	if err := m.db.Insert(ctx, "era_processing_state", columns, [][]interface{}{values}); err != nil {
		return fmt.Errorf("state: append processing state for %s/%s: %w", row.EraFilename, row.Dataset, err)
	}
	return nil
}

func (m *Manager) latestDatasetState(ctx context.Context, eraFilename, dataset string) (*datasetStateRow, error) {
	query := `
		SELECT status, worker_id, attempt_count, file_hash, error_message, rows_inserted, processing_duration_ms, created_at
		FROM era_processing_state
		WHERE era_filename = ? AND dataset = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	rows, err := m.db.Query(ctx, query, eraFilename, dataset)
	if err != nil {
		return nil, fmt.Errorf("state: query latest state for %s/%s: %w", eraFilename, dataset, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	var row datasetStateRow
	var status string
	if err := rows.Scan(&status, &row.WorkerID, &row.AttemptCount, &row.FileHash, &row.ErrorMessage, &row.RowsInserted, &row.ProcessingDurationMS, &row.CreatedAt); err != nil {
		return nil, fmt.Errorf("state: scan latest state for %s/%s: %w", eraFilename, dataset, err)
	}
	row.EraFilename = eraFilename
	row.Dataset = dataset
	row.Status = DatasetStatus(status)
	return &row, nil
}
