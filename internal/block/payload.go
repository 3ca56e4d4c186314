package block

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/ethpandaops/era-indexer/internal/ssz"
)

var transactionParser = ssz.ItemParser[string]{
	Parse: func(buf []byte) (string, bool) {
		return hexutil.Encode(buf), true
	},
}

// decodeExecutionPayload decodes the execution-layer block embedded from
// Bellatrix onward. The fixed region runs parent_hash..timestamp (436
// bytes), followed by the extra_data offset, base_fee_per_gas, block_hash
// and the transactions offset, then the (Capella+) withdrawals offset and
// the (Deneb+) two blob gas fields. Whether those fork-specific fields are
// present is inferred by comparing the cursor with the extra_data offset
// (the end of the fixed region) rather than threaded through as a separate
// fork parameter.
func decodeExecutionPayload(buf []byte) (*ExecutionPayload, error) {
	const fixedPrefix = 436 // parent_hash..timestamp
	if len(buf) < fixedPrefix+72 { // through the transactions offset
		return nil, fmt.Errorf("block: execution payload shorter than fixed prefix")
	}

	p := &ExecutionPayload{
		ParentHash:   common.BytesToHash(buf[0:32]),
		FeeRecipient: common.BytesToAddress(buf[32:52]),
		StateRoot:    common.BytesToHash(buf[52:84]),
		ReceiptsRoot: common.BytesToHash(buf[84:116]),
		LogsBloom:    hexutil.Encode(buf[116:372]),
		PrevRandao:   common.BytesToHash(buf[372:404]),
		BlockNumber:  ssz.ReadU64LE(buf, 404),
		GasLimit:     ssz.ReadU64LE(buf, 412),
		GasUsed:      ssz.ReadU64LE(buf, 420),
		Timestamp:    ssz.ReadU64LE(buf, 428),
	}

	cursor := fixedPrefix
	extraDataOffset := ssz.ReadU32LE(buf, cursor)
	cursor += 4
	baseFee := uint256.NewInt(0).SetBytes(reverse(buf[cursor : cursor+32]))
	p.BaseFeePerGas = baseFee
	cursor += 32
	p.BlockHash = common.BytesToHash(buf[cursor : cursor+32])
	cursor += 32
	transactionsOffset := ssz.ReadU32LE(buf, cursor)
	cursor += 4

	var withdrawalsOffset uint32
	hasWithdrawals := cursor+4 <= len(buf) && int(extraDataOffset) >= cursor+4
	if hasWithdrawals {
		withdrawalsOffset = ssz.ReadU32LE(buf, cursor)
		cursor += 4
	}

	hasBlobGas := cursor+16 <= len(buf) && int(extraDataOffset) >= cursor+16
	if hasBlobGas {
		p.BlobGasUsed = ssz.ReadU64LE(buf, cursor)
		p.ExcessBlobGas = ssz.ReadU64LE(buf, cursor+8)
		cursor += 16
	}

	offsets := []uint32{extraDataOffset, transactionsOffset}
	if hasWithdrawals {
		offsets = append(offsets, withdrawalsOffset)
	}
	spans := offsetSpans(offsets, len(buf))

	p.ExtraData = hexutil.Encode(buf[spans[0][0]:spans[0][1]])
	p.Transactions = ssz.ParseList(buf[spans[1][0]:spans[1][1]], transactionParser)
	if hasWithdrawals {
		p.Withdrawals = ssz.ParseList(buf[spans[2][0]:spans[2][1]], withdrawalParser)
	}

	return p, nil
}

// reverse returns buf with byte order flipped, since uint256.SetBytes
// expects big-endian but SSZ encodes base_fee_per_gas little-endian.
func reverse(buf []byte) []byte {
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[len(buf)-1-i] = b
	}
	return out
}

// decodeExecutionRequests decodes Electra's union of the three post-Deneb
// execution layer request lists: three offsets (deposits, withdrawals,
// consolidations) in that order, per spec.md §3.3.
func decodeExecutionRequests(buf []byte) (*ExecutionRequests, error) {
	if len(buf) < 12 {
		return nil, fmt.Errorf("block: execution requests shorter than offset table")
	}
	offsets := []uint32{
		ssz.ReadU32LE(buf, 0),
		ssz.ReadU32LE(buf, 4),
		ssz.ReadU32LE(buf, 8),
	}
	spans := offsetSpans(offsets, len(buf))

	return &ExecutionRequests{
		Deposits:       ssz.ParseList(buf[spans[0][0]:spans[0][1]], depositRequestParser),
		Withdrawals:    ssz.ParseList(buf[spans[1][0]:spans[1][1]], withdrawalRequestParser),
		Consolidations: ssz.ParseList(buf[spans[2][0]:spans[2][1]], consolidationRequestParser),
	}, nil
}
