package block

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/era-indexer/internal/forks"
)

func emptyPhase0Body() []byte {
	buf := make([]byte, fixedPrefixLen+5*4)
	for i := 0; i < 5; i++ {
		binary.LittleEndian.PutUint32(buf[fixedPrefixLen+i*4:fixedPrefixLen+4+i*4], uint32(len(buf)))
	}
	return buf
}

func TestDecodeBodyRejectsShorterThanFixedPrefix(t *testing.T) {
	_, err := decodeBody(make([]byte, 10), forks.Phase0)
	assert.Error(t, err)
}

func TestDecodeBodyPhase0HasNoSyncAggregate(t *testing.T) {
	body, err := decodeBody(emptyPhase0Body(), forks.Phase0)
	require.NoError(t, err)
	assert.Nil(t, body.SyncAggregate)
	assert.Nil(t, body.ExecutionPayload)
}

func TestDecodeBodyAltairIncludesSyncAggregate(t *testing.T) {
	base := emptyPhase0Body()
	// Splice in the 160-byte sync aggregate between the offset table and
	// nothing else, then re-point every offset past it.
	buf := make([]byte, fixedPrefixLen+5*4+syncAggregateLen)
	copy(buf, base[:fixedPrefixLen+5*4])
	for i := 0; i < 5; i++ {
		binary.LittleEndian.PutUint32(buf[fixedPrefixLen+i*4:fixedPrefixLen+4+i*4], uint32(len(buf)))
	}

	body, err := decodeBody(buf, forks.Altair)
	require.NoError(t, err)
	require.NotNil(t, body.SyncAggregate)
	assert.Nil(t, body.ExecutionPayload)
}

func TestOffsetSpansLastSpanRunsToBufferEnd(t *testing.T) {
	spans := offsetSpans([]uint32{10, 20}, 30)
	assert.Equal(t, [2]int{10, 20}, spans[0])
	assert.Equal(t, [2]int{20, 30}, spans[1])
}

func TestOffsetSpansClampsOutOfRangeOffsets(t *testing.T) {
	spans := offsetSpans([]uint32{5, 1000}, 10)
	assert.Equal(t, [2]int{5, 5}, spans[0])
	assert.Equal(t, [2]int{10, 10}, spans[1])
}

func TestSchemaForForkAccumulatesFields(t *testing.T) {
	assert.False(t, schemaForFork(forks.Phase0).hasSyncAggregate)
	assert.True(t, schemaForFork(forks.Altair).hasSyncAggregate)
	assert.Contains(t, schemaForFork(forks.Bellatrix).variableFieldsInOrder, fieldExecutionPayload)
	assert.Contains(t, schemaForFork(forks.Capella).variableFieldsInOrder, fieldBLSToExecutionChanges)
	assert.Contains(t, schemaForFork(forks.Deneb).variableFieldsInOrder, fieldBlobKZGCommitments)
	assert.Contains(t, schemaForFork(forks.Electra).variableFieldsInOrder, fieldExecutionRequests)
	assert.NotContains(t, schemaForFork(forks.Phase0).variableFieldsInOrder, fieldExecutionPayload)
}
