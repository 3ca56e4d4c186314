// Package normalize flattens decoded beacon blocks into the 13 relational
// datasets the store understands, with one canonical UTC timestamp per
// block shared by every row that descends from it.
package normalize

// Row is one output record for any dataset: an unordered map keyed by the
// dataset's canonical column names (internal/loader owns the column order
// itself; normalize only needs to produce named fields).
type Row map[string]interface{}

// Dataset names, the exact set spec.md §3.4 requires.
const (
	DatasetBlocks             = "blocks"
	DatasetSyncAggregates     = "sync_aggregates"
	DatasetExecutionPayloads  = "execution_payloads"
	DatasetTransactions       = "transactions"
	DatasetWithdrawals        = "withdrawals"
	DatasetAttestations       = "attestations"
	DatasetDeposits           = "deposits"
	DatasetVoluntaryExits     = "voluntary_exits"
	DatasetProposerSlashings  = "proposer_slashings"
	DatasetAttesterSlashings = "attester_slashings"
	DatasetBLSChanges         = "bls_changes"
	DatasetBlobCommitments    = "blob_commitments"
	DatasetExecutionRequests  = "execution_requests"
)

// Datasets lists every dataset name in a stable order, used to pre-seed an
// era's result map with empty (not absent) slices so an era with zero
// blocks still yields all-empty datasets (spec.md §8 edge behavior).
var Datasets = []string{
	DatasetBlocks,
	DatasetSyncAggregates,
	DatasetExecutionPayloads,
	DatasetTransactions,
	DatasetWithdrawals,
	DatasetAttestations,
	DatasetDeposits,
	DatasetVoluntaryExits,
	DatasetProposerSlashings,
	DatasetAttesterSlashings,
	DatasetBLSChanges,
	DatasetBlobCommitments,
	DatasetExecutionRequests,
}

// Result is the normalizer's output: dataset name to its ordered rows.
type Result map[string][]Row

func newResult() Result {
	r := make(Result, len(Datasets))
	for _, name := range Datasets {
		r[name] = []Row{}
	}
	return r
}
