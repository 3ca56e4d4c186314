// Package block decodes a fork-specific SignedBeaconBlock out of the raw
// SSZ bytes an era file yields per record, per spec.md §3.3 and §4.3.
package block

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ethpandaops/era-indexer/internal/forks"
)

// SignedBeaconBlock is the decoded envelope rooted at a beacon block: a
// signature over a Message whose Body schema depends on the fork active at
// the block's slot.
type SignedBeaconBlock struct {
	Signature string
	Message   BeaconBlockMessage
	Fork      forks.Fork
}

// BeaconBlockMessage is the signed portion of the block.
type BeaconBlockMessage struct {
	Slot          uint64
	ProposerIndex uint64
	ParentRoot    common.Hash
	StateRoot     common.Hash
	Body          BeaconBlockBody
}

// Eth1Data is part of the 200-byte fixed prefix every fork's body shares.
type Eth1Data struct {
	DepositRoot  common.Hash
	DepositCount uint64
	BlockHash    common.Hash
}

// BeaconBlockBody holds every field any supported fork can populate. Fields
// that don't exist for the block's fork are left at their zero value; the
// normalizer (internal/normalize) is responsible for only emitting rows for
// fields the fork actually permits (spec.md §3.5).
type BeaconBlockBody struct {
	RandaoReveal string
	Eth1Data     Eth1Data
	Graffiti     string

	ProposerSlashings []ProposerSlashing
	AttesterSlashings []AttesterSlashing
	Attestations      []Attestation
	Deposits          []Deposit
	VoluntaryExits    []SignedVoluntaryExit

	SyncAggregate *SyncAggregate // Altair+

	ExecutionPayload *ExecutionPayload // Bellatrix+

	BLSToExecutionChanges []SignedBLSToExecutionChange // Capella+

	BlobKZGCommitments []string // Deneb+, each a 48-byte hex KZG commitment

	ExecutionRequests *ExecutionRequests // Electra+
}

type SignedBeaconBlockHeader struct {
	Slot          uint64
	ProposerIndex uint64
	ParentRoot    common.Hash
	StateRoot     common.Hash
	BodyRoot      common.Hash
	Signature     string
}

type ProposerSlashing struct {
	Header1 SignedBeaconBlockHeader
	Header2 SignedBeaconBlockHeader
}

type Checkpoint struct {
	Epoch uint64
	Root  common.Hash
}

type AttestationData struct {
	Slot            uint64
	Index           uint64
	BeaconBlockRoot common.Hash
	Source          Checkpoint
	Target          Checkpoint
}

type Attestation struct {
	AggregationBits string
	Data            AttestationData
	Signature       string
}

type IndexedAttestation struct {
	AttestingIndices []uint64
	Data             AttestationData
	Signature        string
}

type AttesterSlashing struct {
	Attestation1 IndexedAttestation
	Attestation2 IndexedAttestation
}

type Deposit struct {
	Proof                 [33]common.Hash
	Pubkey                string
	WithdrawalCredentials common.Hash
	Amount                uint64
	Signature             string
}

type SignedVoluntaryExit struct {
	Epoch          uint64
	ValidatorIndex uint64
	Signature      string
}

type SyncAggregate struct {
	SyncCommitteeBits      string
	SyncCommitteeSignature string
}

type Withdrawal struct {
	Index          uint64
	ValidatorIndex uint64
	Address        common.Address
	Amount         uint64
}

type SignedBLSToExecutionChange struct {
	ValidatorIndex     uint64
	FromBLSPubkey      string
	ToExecutionAddress common.Address
	Signature          string
}

// ExecutionPayload is the post-merge execution-layer block embedded from
// Bellatrix onward, accumulating Capella withdrawals and Deneb blob fields.
type ExecutionPayload struct {
	ParentHash    common.Hash
	FeeRecipient  common.Address
	StateRoot     common.Hash
	ReceiptsRoot  common.Hash
	LogsBloom     string
	PrevRandao    common.Hash
	BlockNumber   uint64
	GasLimit      uint64
	GasUsed       uint64
	Timestamp     uint64
	ExtraData     string
	BaseFeePerGas *uint256.Int
	BlockHash     common.Hash
	Transactions  []string
	Withdrawals   []Withdrawal // Capella+
	BlobGasUsed   uint64       // Deneb+
	ExcessBlobGas uint64       // Deneb+
}

type DepositRequest struct {
	Pubkey                string
	WithdrawalCredentials common.Hash
	Amount                uint64
	Signature             string
	Index                 uint64
}

type WithdrawalRequest struct {
	SourceAddress   common.Address
	ValidatorPubkey string
	Amount          uint64
}

type ConsolidationRequest struct {
	SourceAddress common.Address
	SourcePubkey  string
	TargetPubkey  string
}

// ExecutionRequests is Electra's union of the three post-Deneb execution
// layer request types, each its own SSZ list.
type ExecutionRequests struct {
	Deposits       []DepositRequest
	Withdrawals    []WithdrawalRequest
	Consolidations []ConsolidationRequest
}
