package normalize

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/era-indexer/internal/block"
	"github.com/ethpandaops/era-indexer/internal/forks"
)

func TestBlocksZeroInputYieldsAllEmptyDatasets(t *testing.T) {
	result := Blocks(nil, forks.Mainnet)

	require.Len(t, result, len(Datasets))
	for _, name := range Datasets {
		assert.NotNil(t, result[name])
		assert.Empty(t, result[name])
	}
}

func TestBlocksEmitsOneBlockRowPerBlock(t *testing.T) {
	b := &block.SignedBeaconBlock{
		Fork: forks.Phase0,
		Message: block.BeaconBlockMessage{
			Slot:          100,
			ProposerIndex: 7,
			Body:          block.BeaconBlockBody{},
		},
	}

	result := Blocks([]*block.SignedBeaconBlock{b}, forks.Mainnet)

	require.Len(t, result[DatasetBlocks], 1)
	assert.Equal(t, uint64(100), result[DatasetBlocks][0]["slot"])
	assert.Equal(t, uint64(7), result[DatasetBlocks][0]["proposer_index"])
	assert.Empty(t, result[DatasetExecutionPayloads])
	assert.Empty(t, result[DatasetTransactions])
}

func TestBlocksSkipsSyncAggregateBeforeAltair(t *testing.T) {
	b := &block.SignedBeaconBlock{
		Message: block.BeaconBlockMessage{Slot: 1, Body: block.BeaconBlockBody{SyncAggregate: nil}},
	}

	result := Blocks([]*block.SignedBeaconBlock{b}, forks.Mainnet)
	assert.Empty(t, result[DatasetSyncAggregates])
}

func TestBlocksEmitsTransactionsAndWithdrawalsFromExecutionPayload(t *testing.T) {
	payload := &block.ExecutionPayload{
		BlockNumber:   500,
		BlockHash:     common.HexToHash("0xabc"),
		FeeRecipient:  common.HexToAddress("0x1"),
		BaseFeePerGas: uint256.NewInt(1000),
		Transactions:  []string{"0x02f8"},
		Withdrawals: []block.Withdrawal{
			{ValidatorIndex: 3, Address: common.HexToAddress("0x2"), Amount: 42},
		},
	}
	b := &block.SignedBeaconBlock{
		Message: block.BeaconBlockMessage{
			Slot: 1000,
			Body: block.BeaconBlockBody{ExecutionPayload: payload},
		},
	}

	result := Blocks([]*block.SignedBeaconBlock{b}, forks.Mainnet)

	require.Len(t, result[DatasetExecutionPayloads], 1)
	require.Len(t, result[DatasetTransactions], 1)
	require.Len(t, result[DatasetWithdrawals], 1)
	assert.Equal(t, 0, result[DatasetTransactions][0]["transaction_index"])
	assert.Equal(t, uint64(3), result[DatasetWithdrawals][0]["validator_index"])
}

func TestAttesterSlashingTotalSlashedValidatorsIsIntersection(t *testing.T) {
	s := block.AttesterSlashing{
		Attestation1: block.IndexedAttestation{AttestingIndices: []uint64{1, 2, 3}},
		Attestation2: block.IndexedAttestation{AttestingIndices: []uint64{2, 3, 4}},
	}
	b := &block.SignedBeaconBlock{
		Message: block.BeaconBlockMessage{
			Slot: 1,
			Body: block.BeaconBlockBody{AttesterSlashings: []block.AttesterSlashing{s}},
		},
	}

	result := Blocks([]*block.SignedBeaconBlock{b}, forks.Mainnet)

	require.Len(t, result[DatasetAttesterSlashings], 1)
	assert.Equal(t, 2, result[DatasetAttesterSlashings][0]["total_slashed_validators"])
}

func TestExecutionRequestRowsFillUnusedColumnsEmpty(t *testing.T) {
	requests := &block.ExecutionRequests{
		Deposits: []block.DepositRequest{{Pubkey: "0xaa", Amount: 1, Index: 0}},
	}
	b := &block.SignedBeaconBlock{
		Message: block.BeaconBlockMessage{
			Slot: 1,
			Body: block.BeaconBlockBody{ExecutionRequests: requests},
		},
	}

	result := Blocks([]*block.SignedBeaconBlock{b}, forks.Mainnet)

	require.Len(t, result[DatasetExecutionRequests], 1)
	row := result[DatasetExecutionRequests][0]
	assert.Equal(t, "deposit", row["request_type"])
	assert.Equal(t, "0xaa", row["pubkey"])
	assert.Equal(t, "", row["source_address"])
}

func TestCountSetBitsCountsHexBitfield(t *testing.T) {
	assert.Equal(t, 4, countSetBits("0x0f"))
	assert.Equal(t, 0, countSetBits("not-hex"))
}

func TestJoinIndicesFormatsCommaSeparated(t *testing.T) {
	assert.Equal(t, "1,2,3", joinIndices([]uint64{1, 2, 3}))
	assert.Equal(t, "", joinIndices(nil))
}

func TestAttestingIndicesIntersectionNoOverlap(t *testing.T) {
	out := attestingIndicesIntersection([]uint64{1, 2}, []uint64{3, 4})
	assert.Empty(t, out)
}
