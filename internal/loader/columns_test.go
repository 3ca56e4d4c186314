package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethpandaops/era-indexer/internal/normalize"
)

func TestColumnNamesMatchesEveryDataset(t *testing.T) {
	for _, dataset := range normalize.Datasets {
		names := ColumnNames(dataset)
		assert.NotEmpty(t, names, "dataset %s has no columns", dataset)
		assert.Contains(t, names, "slot")
		assert.Contains(t, names, "timestamp_utc")
	}
}

func TestColumnNamesUnknownDatasetIsEmpty(t *testing.T) {
	assert.Empty(t, ColumnNames("not-a-real-dataset"))
}

func TestBatchSizeVariesByDataset(t *testing.T) {
	assert.Equal(t, 3000, batchSize(normalize.DatasetAttestations))
	assert.Equal(t, 8000, batchSize(normalize.DatasetTransactions))
	assert.Equal(t, 8000, batchSize(normalize.DatasetWithdrawals))
	assert.Equal(t, 15000, batchSize(normalize.DatasetBlocks))
}

func TestStreamingThresholdLowestForAttestations(t *testing.T) {
	assert.Equal(t, 10000, streamingThreshold(normalize.DatasetAttestations))
	assert.Equal(t, 15000, streamingThreshold(normalize.DatasetBlocks))
}
