package normalize

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethpandaops/era-indexer/internal/block"
	"github.com/ethpandaops/era-indexer/internal/forks"
)

// Blocks flattens a slot-ordered slice of decoded blocks into the 13
// dataset row arrays, per spec.md §3.4/§4.4. A block that failed to decode
// should simply be absent from blocks — callers never pass a nil entry.
func Blocks(decoded []*block.SignedBeaconBlock, cfg forks.Config) Result {
	result := newResult()

	for _, b := range decoded {
		ts := blockTimestamp(b, cfg)
		slot := b.Message.Slot
		msg := b.Message
		body := msg.Body

		result[DatasetBlocks] = append(result[DatasetBlocks], Row{
			"slot":                slot,
			"proposer_index":      msg.ProposerIndex,
			"parent_root":         msg.ParentRoot.Hex(),
			"state_root":          msg.StateRoot.Hex(),
			"signature":           b.Signature,
			"version":             b.Fork.String(),
			"timestamp_utc":       ts,
			"randao_reveal":       body.RandaoReveal,
			"graffiti":            body.Graffiti,
			"eth1_deposit_root":   body.Eth1Data.DepositRoot.Hex(),
			"eth1_deposit_count":  body.Eth1Data.DepositCount,
			"eth1_block_hash":     body.Eth1Data.BlockHash.Hex(),
		})

		if body.SyncAggregate != nil {
			result[DatasetSyncAggregates] = append(result[DatasetSyncAggregates], Row{
				"slot":                     slot,
				"sync_committee_bits":      body.SyncAggregate.SyncCommitteeBits,
				"sync_committee_signature": body.SyncAggregate.SyncCommitteeSignature,
				"timestamp_utc":            ts,
				"participating_validators": countSetBits(body.SyncAggregate.SyncCommitteeBits),
			})
		}

		if payload := body.ExecutionPayload; payload != nil {
			result[DatasetExecutionPayloads] = append(result[DatasetExecutionPayloads], Row{
				"slot":             slot,
				"parent_hash":      payload.ParentHash.Hex(),
				"fee_recipient":    payload.FeeRecipient.Hex(),
				"state_root":       payload.StateRoot.Hex(),
				"receipts_root":    payload.ReceiptsRoot.Hex(),
				"logs_bloom":       payload.LogsBloom,
				"prev_randao":      payload.PrevRandao.Hex(),
				"block_number":     payload.BlockNumber,
				"gas_limit":        payload.GasLimit,
				"gas_used":         payload.GasUsed,
				"timestamp_utc":    ts,
				"base_fee_per_gas": payload.BaseFeePerGas.Dec(),
				"block_hash":       payload.BlockHash.Hex(),
				"blob_gas_used":    payload.BlobGasUsed,
				"excess_blob_gas":  payload.ExcessBlobGas,
				"extra_data":       payload.ExtraData,
			})

			for i, txHex := range payload.Transactions {
				result[DatasetTransactions] = append(result[DatasetTransactions], Row{
					"slot":              slot,
					"block_number":      payload.BlockNumber,
					"block_hash":        payload.BlockHash.Hex(),
					"transaction_index": i,
					"transaction_hash":  transactionHash(txHex),
					"fee_recipient":     payload.FeeRecipient.Hex(),
					"gas_limit":         payload.GasLimit,
					"gas_used":          payload.GasUsed,
					"base_fee_per_gas":  payload.BaseFeePerGas.Dec(),
					"timestamp_utc":     ts,
				})
			}

			for i, w := range payload.Withdrawals {
				result[DatasetWithdrawals] = append(result[DatasetWithdrawals], Row{
					"slot":              slot,
					"block_number":      payload.BlockNumber,
					"block_hash":        payload.BlockHash.Hex(),
					"withdrawal_index":  i,
					"validator_index":   w.ValidatorIndex,
					"address":           w.Address.Hex(),
					"amount":            w.Amount,
					"timestamp_utc":     ts,
				})
			}
		}

		for i, a := range body.Attestations {
			result[DatasetAttestations] = append(result[DatasetAttestations], Row{
				"slot":               slot,
				"attestation_index":  i,
				"aggregation_bits":   a.AggregationBits,
				"signature":          a.Signature,
				"attestation_slot":   a.Data.Slot,
				"committee_index":    a.Data.Index,
				"beacon_block_root":  a.Data.BeaconBlockRoot.Hex(),
				"source_epoch":       a.Data.Source.Epoch,
				"source_root":        a.Data.Source.Root.Hex(),
				"target_epoch":       a.Data.Target.Epoch,
				"target_root":        a.Data.Target.Root.Hex(),
				"timestamp_utc":      ts,
			})
		}

		for i, d := range body.Deposits {
			result[DatasetDeposits] = append(result[DatasetDeposits], Row{
				"slot":                   slot,
				"deposit_index":          i,
				"pubkey":                 d.Pubkey,
				"withdrawal_credentials": d.WithdrawalCredentials.Hex(),
				"amount":                 d.Amount,
				"signature":              d.Signature,
				"proof":                  encodeProof(d.Proof),
				"timestamp_utc":          ts,
			})
		}

		for i, e := range body.VoluntaryExits {
			result[DatasetVoluntaryExits] = append(result[DatasetVoluntaryExits], Row{
				"slot":            slot,
				"exit_index":      i,
				"signature":       e.Signature,
				"epoch":           e.Epoch,
				"validator_index": e.ValidatorIndex,
				"timestamp_utc":   ts,
			})
		}

		for i, s := range body.ProposerSlashings {
			result[DatasetProposerSlashings] = append(result[DatasetProposerSlashings], Row{
				"slot":                       slot,
				"slashing_index":             i,
				"header_1_slot":              s.Header1.Slot,
				"header_1_proposer_index":    s.Header1.ProposerIndex,
				"header_1_parent_root":       s.Header1.ParentRoot.Hex(),
				"header_1_state_root":        s.Header1.StateRoot.Hex(),
				"header_1_body_root":         s.Header1.BodyRoot.Hex(),
				"header_1_signature":         s.Header1.Signature,
				"header_2_slot":              s.Header2.Slot,
				"header_2_proposer_index":    s.Header2.ProposerIndex,
				"header_2_parent_root":       s.Header2.ParentRoot.Hex(),
				"header_2_state_root":        s.Header2.StateRoot.Hex(),
				"header_2_body_root":         s.Header2.BodyRoot.Hex(),
				"header_2_signature":         s.Header2.Signature,
				"timestamp_utc":              ts,
			})
		}

		for i, s := range body.AttesterSlashings {
			intersection := attestingIndicesIntersection(s.Attestation1.AttestingIndices, s.Attestation2.AttestingIndices)
			result[DatasetAttesterSlashings] = append(result[DatasetAttesterSlashings], Row{
				"slot":                         slot,
				"slashing_index":               i,
				"att_1_slot":                   s.Attestation1.Data.Slot,
				"att_1_committee_index":        s.Attestation1.Data.Index,
				"att_1_beacon_block_root":      s.Attestation1.Data.BeaconBlockRoot.Hex(),
				"att_1_source_epoch":           s.Attestation1.Data.Source.Epoch,
				"att_1_source_root":            s.Attestation1.Data.Source.Root.Hex(),
				"att_1_target_epoch":           s.Attestation1.Data.Target.Epoch,
				"att_1_target_root":            s.Attestation1.Data.Target.Root.Hex(),
				"att_1_signature":              s.Attestation1.Signature,
				"att_1_attesting_indices":      joinIndices(s.Attestation1.AttestingIndices),
				"att_1_validator_count":        len(s.Attestation1.AttestingIndices),
				"att_2_slot":                   s.Attestation2.Data.Slot,
				"att_2_committee_index":        s.Attestation2.Data.Index,
				"att_2_beacon_block_root":      s.Attestation2.Data.BeaconBlockRoot.Hex(),
				"att_2_source_epoch":           s.Attestation2.Data.Source.Epoch,
				"att_2_source_root":            s.Attestation2.Data.Source.Root.Hex(),
				"att_2_target_epoch":           s.Attestation2.Data.Target.Epoch,
				"att_2_target_root":            s.Attestation2.Data.Target.Root.Hex(),
				"att_2_signature":              s.Attestation2.Signature,
				"att_2_attesting_indices":      joinIndices(s.Attestation2.AttestingIndices),
				"att_2_validator_count":        len(s.Attestation2.AttestingIndices),
				"timestamp_utc":                ts,
				"total_slashed_validators":     len(intersection),
			})
		}

		for i, c := range body.BLSToExecutionChanges {
			result[DatasetBLSChanges] = append(result[DatasetBLSChanges], Row{
				"slot":                 slot,
				"change_index":         i,
				"signature":            c.Signature,
				"validator_index":      c.ValidatorIndex,
				"from_bls_pubkey":      c.FromBLSPubkey,
				"to_execution_address": c.ToExecutionAddress.Hex(),
				"timestamp_utc":        ts,
			})
		}

		for i, commitment := range body.BlobKZGCommitments {
			result[DatasetBlobCommitments] = append(result[DatasetBlobCommitments], Row{
				"slot":              slot,
				"commitment_index":  i,
				"commitment":        commitment,
				"timestamp_utc":     ts,
			})
		}

		if requests := body.ExecutionRequests; requests != nil {
			idx := 0
			for _, d := range requests.Deposits {
				result[DatasetExecutionRequests] = append(result[DatasetExecutionRequests], executionRequestRow(slot, idx, ts, "deposit", Row{
					"pubkey":                 d.Pubkey,
					"withdrawal_credentials": d.WithdrawalCredentials.Hex(),
					"amount":                 d.Amount,
					"signature":              d.Signature,
					"deposit_request_index":  d.Index,
				}))
				idx++
			}
			for _, w := range requests.Withdrawals {
				result[DatasetExecutionRequests] = append(result[DatasetExecutionRequests], executionRequestRow(slot, idx, ts, "withdrawal", Row{
					"source_address":   w.SourceAddress.Hex(),
					"validator_pubkey": w.ValidatorPubkey,
					"amount":           w.Amount,
				}))
				idx++
			}
			for _, c := range requests.Consolidations {
				result[DatasetExecutionRequests] = append(result[DatasetExecutionRequests], executionRequestRow(slot, idx, ts, "consolidation", Row{
					"source_address": c.SourceAddress.Hex(),
					"source_pubkey":  c.SourcePubkey,
					"target_pubkey":  c.TargetPubkey,
				}))
				idx++
			}
		}
	}

	return result
}

// executionRequestRowColumns lists every column the execution_requests
// union table can populate, so a row only ever fills in the columns its
// request_type uses and leaves the rest as empty strings (spec.md §4.4).
var executionRequestRowColumns = []string{
	"pubkey", "withdrawal_credentials", "amount", "signature", "deposit_request_index",
	"source_address", "validator_pubkey", "source_pubkey", "target_pubkey",
}

func executionRequestRow(slot uint64, index int, ts interface{}, requestType string, fields Row) Row {
	row := Row{
		"slot":          slot,
		"request_type":  requestType,
		"request_index": index,
		"timestamp_utc": ts,
	}
	for _, col := range executionRequestRowColumns {
		if v, ok := fields[col]; ok {
			row[col] = v
		} else {
			row[col] = ""
		}
	}
	return row
}

func encodeProof(proof [33]common.Hash) string {
	hexes := make([]string, len(proof))
	for i, h := range proof {
		hexes[i] = h.Hex()
	}
	encoded, err := json.Marshal(hexes)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

func transactionHash(txHex string) string {
	raw, err := hexutil.Decode(txHex)
	if err != nil {
		return ""
	}
	return crypto.Keccak256Hash(raw).Hex()
}

func countSetBits(bitsHex string) int {
	raw, err := hexutil.Decode(bitsHex)
	if err != nil {
		return 0
	}
	total := 0
	for _, b := range raw {
		total += bits.OnesCount8(b)
	}
	return total
}

func joinIndices(indices []uint64) string {
	parts := make([]string, len(indices))
	for i, v := range indices {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}

func attestingIndicesIntersection(a, b []uint64) []uint64 {
	set := make(map[uint64]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	var out []uint64
	for _, v := range b {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}
