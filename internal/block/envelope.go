package block

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ethpandaops/era-indexer/internal/forks"
	"github.com/ethpandaops/era-indexer/internal/ssz"
)

// Decode parses a decompressed SignedBeaconBlock, selecting the body schema
// by the fork active at the block's slot according to cfg.
//
// Per spec.md §4.3's robustness rule, a parser returning an error here
// drops the single block; it must never propagate further and abort the
// rest of the era.
func Decode(buf []byte, cfg forks.Config) (*SignedBeaconBlock, error) {
	if len(buf) < 100 {
		return nil, fmt.Errorf("block: envelope shorter than signature prefix")
	}

	messageOffset := ssz.ReadU32LE(buf, 0)
	if int(messageOffset) > len(buf) || messageOffset < 100 {
		return nil, fmt.Errorf("block: implausible message offset %d", messageOffset)
	}

	signature := hexutil.Encode(buf[4:100])
	message := buf[messageOffset:]
	if len(message) < 84 {
		return nil, fmt.Errorf("block: message shorter than header prefix")
	}

	slot := ssz.ReadU64LE(message, 0)
	proposerIndex := ssz.ReadU64LE(message, 8)
	parentRoot := common.BytesToHash(message[16:48])
	stateRoot := common.BytesToHash(message[48:80])
	bodyOffset := ssz.ReadU32LE(message, 80)
	if int(bodyOffset) > len(message) {
		return nil, fmt.Errorf("block: implausible body offset %d", bodyOffset)
	}
	bodyBuf := message[bodyOffset:]

	fork := cfg.ForkAtSlot(slot)
	body, err := decodeBody(bodyBuf, fork)
	if err != nil {
		return nil, fmt.Errorf("block: decode body at slot %d: %w", slot, err)
	}

	return &SignedBeaconBlock{
		Signature: signature,
		Fork:      fork,
		Message: BeaconBlockMessage{
			Slot:          slot,
			ProposerIndex: proposerIndex,
			ParentRoot:    parentRoot,
			StateRoot:     stateRoot,
			Body:          *body,
		},
	}, nil
}
