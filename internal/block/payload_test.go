package block

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeExecutionPayloadRejectsShorterThanFixedPrefix(t *testing.T) {
	_, err := decodeExecutionPayload(make([]byte, 10))
	assert.Error(t, err)
}

// TestDecodeExecutionPayloadBellatrixHasNoWithdrawalsOrBlobGas exercises the
// cursor-inference heuristic's lower bound: a payload buffer just past the
// transactions offset field, with no room for a withdrawals or blob gas
// section, must be read as Bellatrix shape.
func TestDecodeExecutionPayloadBellatrixHasNoWithdrawalsOrBlobGas(t *testing.T) {
	const bufLen = 508 // fixedPrefix(436) + extraDataOffset(4) + baseFee(32) + blockHash(32) + txOffset(4)
	buf := make([]byte, bufLen)
	binary.LittleEndian.PutUint32(buf[436:440], bufLen) // extra_data offset: nothing follows
	binary.LittleEndian.PutUint32(buf[504:508], bufLen) // transactions offset: nothing follows

	p, err := decodeExecutionPayload(buf)
	require.NoError(t, err)
	assert.Nil(t, p.Withdrawals)
	assert.Zero(t, p.BlobGasUsed)
	assert.Zero(t, p.ExcessBlobGas)
}

// TestDecodeExecutionPayloadCapellaIncludesWithdrawals exercises the
// withdrawals-present branch without triggering the blob gas branch, using
// the canonical Capella layout where the fixed region (and so extra_data's
// offset) ends at exactly 512: fixedPrefix(436) + extraDataOffset(4) +
// baseFee(32) + blockHash(32) + txOffset(4) + withdrawalsOffset(4).
func TestDecodeExecutionPayloadCapellaIncludesWithdrawals(t *testing.T) {
	const dataStart = 512
	const bufLen = dataStart + sizeWithdrawal

	buf := make([]byte, bufLen)
	binary.LittleEndian.PutUint32(buf[436:440], dataStart) // extra_data offset
	binary.LittleEndian.PutUint32(buf[504:508], dataStart) // transactions offset
	binary.LittleEndian.PutUint32(buf[508:512], dataStart) // withdrawals offset
	binary.LittleEndian.PutUint64(buf[dataStart+8:dataStart+16], 99) // withdrawal validator_index

	p, err := decodeExecutionPayload(buf)
	require.NoError(t, err)
	require.Len(t, p.Withdrawals, 1)
	assert.Equal(t, uint64(99), p.Withdrawals[0].ValidatorIndex)
	assert.Zero(t, p.BlobGasUsed)
}

// TestDecodeExecutionPayloadDenebIncludesBlobGas exercises both the
// withdrawals and blob-gas branches together.
func TestDecodeExecutionPayloadDenebIncludesBlobGas(t *testing.T) {
	const dataStart = 528 // fixed prefix + both offset fields + 16-byte blob gas section
	const bufLen = dataStart + sizeWithdrawal

	buf := make([]byte, bufLen)
	binary.LittleEndian.PutUint32(buf[436:440], dataStart) // extra_data offset
	binary.LittleEndian.PutUint32(buf[504:508], dataStart) // transactions offset
	binary.LittleEndian.PutUint32(buf[508:512], dataStart) // withdrawals offset
	binary.LittleEndian.PutUint64(buf[512:520], 7)          // blob_gas_used
	binary.LittleEndian.PutUint64(buf[520:528], 3)          // excess_blob_gas
	binary.LittleEndian.PutUint64(buf[dataStart+8:dataStart+16], 5)

	p, err := decodeExecutionPayload(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), p.BlobGasUsed)
	assert.Equal(t, uint64(3), p.ExcessBlobGas)
	require.Len(t, p.Withdrawals, 1)
	assert.Equal(t, uint64(5), p.Withdrawals[0].ValidatorIndex)
}

func TestDecodeExecutionRequestsRejectsShorterThanOffsetTable(t *testing.T) {
	_, err := decodeExecutionRequests(make([]byte, 4))
	assert.Error(t, err)
}

func TestDecodeExecutionRequestsEmptyListsOnZeroLengthSpans(t *testing.T) {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], 12)
	binary.LittleEndian.PutUint32(buf[4:8], 12)
	binary.LittleEndian.PutUint32(buf[8:12], 12)

	r, err := decodeExecutionRequests(buf)
	require.NoError(t, err)
	assert.Empty(t, r.Deposits)
	assert.Empty(t, r.Withdrawals)
	assert.Empty(t, r.Consolidations)
}
