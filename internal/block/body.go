package block

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ethpandaops/era-indexer/internal/forks"
	"github.com/ethpandaops/era-indexer/internal/ssz"
)

const (
	fixedPrefixLen    = 200 // randao_reveal(96) + eth1_data(72) + graffiti(32)
	syncAggregateLen  = 160
)

// decodeBody walks one fork's schema against the body's raw SSZ bytes. It
// is the single generic decoder spec.md §9 asks for in place of the
// parser-inheritance chain: the only per-fork variation is which bodySchema
// value gets passed in.
func decodeBody(buf []byte, fork forks.Fork) (*BeaconBlockBody, error) {
	if len(buf) < fixedPrefixLen {
		return nil, fmt.Errorf("body shorter than fixed prefix")
	}

	body := &BeaconBlockBody{
		RandaoReveal: hexutil.Encode(buf[0:96]),
		Eth1Data: Eth1Data{
			DepositRoot:  common.BytesToHash(buf[96:128]),
			DepositCount: ssz.ReadU64LE(buf, 128),
			BlockHash:    common.BytesToHash(buf[136:168]),
		},
		Graffiti: hexutil.Encode(buf[168:200]),
	}

	schema := schemaForFork(fork)

	cursor := fixedPrefixLen
	offsets := make([]uint32, len(schema.variableFieldsInOrder))
	for i := range baseVariableFields {
		offsets[i] = ssz.ReadU32LE(buf, cursor)
		cursor += 4
	}

	if schema.hasSyncAggregate {
		if cursor+syncAggregateLen > len(buf) {
			return nil, fmt.Errorf("body truncated before sync_aggregate")
		}
		body.SyncAggregate = &SyncAggregate{
			SyncCommitteeBits:      hexutil.Encode(buf[cursor : cursor+64]),
			SyncCommitteeSignature: hexutil.Encode(buf[cursor+64 : cursor+syncAggregateLen]),
		}
		cursor += syncAggregateLen
	}

	for i := len(baseVariableFields); i < len(schema.variableFieldsInOrder); i++ {
		offsets[i] = ssz.ReadU32LE(buf, cursor)
		cursor += 4
	}

	spans := offsetSpans(offsets, len(buf))
	for i, field := range schema.variableFieldsInOrder {
		span := buf[spans[i][0]:spans[i][1]]
		if err := decodeVariableField(body, field, span); err != nil {
			// A malformed field never aborts the block: drop just that field.
			continue
		}
	}

	return body, nil
}

// offsetSpans converts an ordered list of container-relative offsets into
// [start, end) byte spans, each item running to the next declared offset
// or, for the last one, to the end of the buffer.
func offsetSpans(offsets []uint32, bufLen int) [][2]int {
	spans := make([][2]int, len(offsets))
	for i := range offsets {
		start := int(offsets[i])
		end := bufLen
		if i+1 < len(offsets) {
			end = int(offsets[i+1])
		}
		if start < 0 || start > bufLen {
			start = bufLen
		}
		if end < start || end > bufLen {
			end = start
		}
		spans[i] = [2]int{start, end}
	}
	return spans
}

func decodeVariableField(body *BeaconBlockBody, field variableFieldName, span []byte) error {
	switch field {
	case fieldProposerSlashings:
		body.ProposerSlashings = ssz.ParseList(span, proposerSlashingParser)
	case fieldAttesterSlashings:
		body.AttesterSlashings = ssz.ParseList(span, attesterSlashingParser)
	case fieldAttestations:
		body.Attestations = ssz.ParseList(span, attestationParser)
	case fieldDeposits:
		body.Deposits = ssz.ParseList(span, depositParser)
	case fieldVoluntaryExits:
		body.VoluntaryExits = ssz.ParseList(span, voluntaryExitParser)
	case fieldExecutionPayload:
		payload, err := decodeExecutionPayload(span)
		if err != nil {
			return err
		}
		body.ExecutionPayload = payload
	case fieldBLSToExecutionChanges:
		body.BLSToExecutionChanges = ssz.ParseList(span, blsToExecutionChangeParser)
	case fieldBlobKZGCommitments:
		body.BlobKZGCommitments = ssz.ParseList(span, kzgCommitmentParser)
	case fieldExecutionRequests:
		requests, err := decodeExecutionRequests(span)
		if err != nil {
			return err
		}
		body.ExecutionRequests = requests
	}
	return nil
}
