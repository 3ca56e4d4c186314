package block

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ethpandaops/era-indexer/internal/ssz"
)

// Fixed-size leaf item sizes, per spec.md §4.3.
const (
	sizeDeposit               = 1240
	sizeWithdrawal            = 44
	sizeSignedVoluntaryExit   = 112
	sizeProposerSlashing      = 416
	sizeSignedBeaconHeader    = 112
	sizeSignedBLSChange       = 172
	sizeKZGCommitment         = 48
	sizeDepositRequest        = 192
	sizeWithdrawalRequest     = 76
	sizeConsolidationRequest  = 116
)

func signedHeader(buf []byte) SignedBeaconBlockHeader {
	return SignedBeaconBlockHeader{
		Slot:          ssz.ReadU64LE(buf, 0),
		ProposerIndex: ssz.ReadU64LE(buf, 8),
		ParentRoot:    common.BytesToHash(buf[16:48]),
		StateRoot:     common.BytesToHash(buf[48:80]),
		BodyRoot:      common.BytesToHash(buf[80:112]),
		Signature:     hexutil.Encode(buf[112:208]),
	}
}

var proposerSlashingParser = ssz.ItemParser[ProposerSlashing]{
	FixedSize: sizeProposerSlashing,
	Parse: func(buf []byte) (ProposerSlashing, bool) {
		const signedHeaderLen = sizeSignedBeaconHeader + 96
		return ProposerSlashing{
			Header1: signedHeader(buf[0:signedHeaderLen]),
			Header2: signedHeader(buf[signedHeaderLen : 2*signedHeaderLen]),
		}, true
	},
}

var depositParser = ssz.ItemParser[Deposit]{
	FixedSize: sizeDeposit,
	Parse: func(buf []byte) (Deposit, bool) {
		var d Deposit
		for i := 0; i < 33; i++ {
			d.Proof[i] = common.BytesToHash(buf[i*32 : (i+1)*32])
		}
		cursor := 33 * 32
		d.Pubkey = hexutil.Encode(buf[cursor : cursor+48])
		cursor += 48
		d.WithdrawalCredentials = common.BytesToHash(buf[cursor : cursor+32])
		cursor += 32
		d.Amount = ssz.ReadU64LE(buf, cursor)
		cursor += 8
		d.Signature = hexutil.Encode(buf[cursor : cursor+96])
		return d, true
	},
}

var withdrawalParser = ssz.ItemParser[Withdrawal]{
	FixedSize: sizeWithdrawal,
	Parse: func(buf []byte) (Withdrawal, bool) {
		return Withdrawal{
			Index:          ssz.ReadU64LE(buf, 0),
			ValidatorIndex: ssz.ReadU64LE(buf, 8),
			Address:        common.BytesToAddress(buf[16:36]),
			Amount:         ssz.ReadU64LE(buf, 36),
		}, true
	},
}

var voluntaryExitParser = ssz.ItemParser[SignedVoluntaryExit]{
	FixedSize: sizeSignedVoluntaryExit,
	Parse: func(buf []byte) (SignedVoluntaryExit, bool) {
		return SignedVoluntaryExit{
			Epoch:          ssz.ReadU64LE(buf, 0),
			ValidatorIndex: ssz.ReadU64LE(buf, 8),
			Signature:      hexutil.Encode(buf[16:112]),
		}, true
	},
}

var blsToExecutionChangeParser = ssz.ItemParser[SignedBLSToExecutionChange]{
	FixedSize: sizeSignedBLSChange,
	Parse: func(buf []byte) (SignedBLSToExecutionChange, bool) {
		return SignedBLSToExecutionChange{
			ValidatorIndex:     ssz.ReadU64LE(buf, 0),
			FromBLSPubkey:      hexutil.Encode(buf[8:56]),
			ToExecutionAddress: common.BytesToAddress(buf[56:76]),
			Signature:          hexutil.Encode(buf[76:172]),
		}, true
	},
}

var kzgCommitmentParser = ssz.ItemParser[string]{
	FixedSize: sizeKZGCommitment,
	Parse: func(buf []byte) (string, bool) {
		return hexutil.Encode(buf), true
	},
}

var depositRequestParser = ssz.ItemParser[DepositRequest]{
	FixedSize: sizeDepositRequest,
	Parse: func(buf []byte) (DepositRequest, bool) {
		return DepositRequest{
			Pubkey:                hexutil.Encode(buf[0:48]),
			WithdrawalCredentials: common.BytesToHash(buf[48:80]),
			Amount:                ssz.ReadU64LE(buf, 80),
			Signature:             hexutil.Encode(buf[88:184]),
			Index:                 ssz.ReadU64LE(buf, 184),
		}, true
	},
}

var withdrawalRequestParser = ssz.ItemParser[WithdrawalRequest]{
	FixedSize: sizeWithdrawalRequest,
	Parse: func(buf []byte) (WithdrawalRequest, bool) {
		return WithdrawalRequest{
			SourceAddress:   common.BytesToAddress(buf[0:20]),
			ValidatorPubkey: hexutil.Encode(buf[20:68]),
			Amount:          ssz.ReadU64LE(buf, 68),
		}, true
	},
}

var consolidationRequestParser = ssz.ItemParser[ConsolidationRequest]{
	FixedSize: sizeConsolidationRequest,
	Parse: func(buf []byte) (ConsolidationRequest, bool) {
		return ConsolidationRequest{
			SourceAddress: common.BytesToAddress(buf[0:20]),
			SourcePubkey:  hexutil.Encode(buf[20:68]),
			TargetPubkey:  hexutil.Encode(buf[68:116]),
		}, true
	},
}

func checkpoint(buf []byte) Checkpoint {
	return Checkpoint{
		Epoch: ssz.ReadU64LE(buf, 0),
		Root:  common.BytesToHash(buf[8:40]),
	}
}

func attestationData(buf []byte) AttestationData {
	return AttestationData{
		Slot:            ssz.ReadU64LE(buf, 0),
		Index:           ssz.ReadU64LE(buf, 8),
		BeaconBlockRoot: common.BytesToHash(buf[16:48]),
		Source:          checkpoint(buf[48:88]),
		Target:          checkpoint(buf[88:128]),
	}
}

// attestationParser decodes a variable-length Attestation: an
// aggregation_bits offset at byte 0, fixed attestation data at [4:132),
// and a signature at [132:228).
var attestationParser = ssz.ItemParser[Attestation]{
	Parse: func(buf []byte) (Attestation, bool) {
		if len(buf) < 228 {
			return Attestation{}, false
		}
		bitsOffset := int(ssz.ReadU32LE(buf, 0))
		if bitsOffset < 228 || bitsOffset > len(buf) {
			return Attestation{}, false
		}
		return Attestation{
			AggregationBits: hexutil.Encode(buf[bitsOffset:]),
			Data:            attestationData(buf[4:132]),
			Signature:       hexutil.Encode(buf[132:228]),
		}, true
	},
}

var u64Parser = ssz.ItemParser[uint64]{
	FixedSize: 8,
	Parse: func(buf []byte) (uint64, bool) {
		return ssz.ReadU64LE(buf, 0), true
	},
}

// indexedAttestation decodes the shared IndexedAttestation shape used
// inside AttesterSlashing: an attesting_indices offset at byte 0, fixed
// data at [4:132), signature at [132:228), then the u64 index list.
func indexedAttestation(buf []byte) (IndexedAttestation, bool) {
	if len(buf) < 228 {
		return IndexedAttestation{}, false
	}
	indicesOffset := int(ssz.ReadU32LE(buf, 0))
	if indicesOffset < 228 || indicesOffset > len(buf) {
		return IndexedAttestation{}, false
	}
	return IndexedAttestation{
		AttestingIndices: ssz.ParseList(buf[indicesOffset:], u64Parser),
		Data:             attestationData(buf[4:132]),
		Signature:        hexutil.Encode(buf[132:228]),
	}, true
}

// attesterSlashingParser decodes two IndexedAttestation offsets at bytes 0
// and 4, each pointing to the rest of that attestation's bytes.
var attesterSlashingParser = ssz.ItemParser[AttesterSlashing]{
	Parse: func(buf []byte) (AttesterSlashing, bool) {
		if len(buf) < 8 {
			return AttesterSlashing{}, false
		}
		offset1 := int(ssz.ReadU32LE(buf, 0))
		offset2 := int(ssz.ReadU32LE(buf, 4))
		if offset1 < 8 || offset2 < offset1 || offset2 > len(buf) {
			return AttesterSlashing{}, false
		}
		att1, ok := indexedAttestation(buf[offset1:offset2])
		if !ok {
			return AttesterSlashing{}, false
		}
		att2, ok := indexedAttestation(buf[offset2:])
		if !ok {
			return AttesterSlashing{}, false
		}
		return AttesterSlashing{Attestation1: att1, Attestation2: att2}, true
	},
}
