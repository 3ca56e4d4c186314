package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ethpandaops/era-indexer/internal/block"
	"github.com/ethpandaops/era-indexer/internal/forks"
)

func TestBlockTimestampUsesExecutionPayloadWhenPresent(t *testing.T) {
	b := &block.SignedBeaconBlock{
		Message: block.BeaconBlockMessage{
			Slot: 100,
			Body: block.BeaconBlockBody{
				ExecutionPayload: &block.ExecutionPayload{Timestamp: 1700000000},
			},
		},
	}

	ts := blockTimestamp(b, forks.Mainnet)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ts)
}

func TestBlockTimestampFallsBackToGenesisPlusSlot(t *testing.T) {
	cfg := forks.Config{GenesisTime: 1000, SecondsPerSlot: 12}
	b := &block.SignedBeaconBlock{
		Message: block.BeaconBlockMessage{Slot: 5, Body: block.BeaconBlockBody{}},
	}

	ts := blockTimestamp(b, cfg)
	assert.Equal(t, time.Unix(1060, 0).UTC(), ts)
}

func TestBlockTimestampIgnoresZeroExecutionPayloadTimestamp(t *testing.T) {
	cfg := forks.Config{GenesisTime: 1000, SecondsPerSlot: 12}
	b := &block.SignedBeaconBlock{
		Message: block.BeaconBlockMessage{
			Slot: 5,
			Body: block.BeaconBlockBody{
				ExecutionPayload: &block.ExecutionPayload{Timestamp: 0},
			},
		},
	}

	ts := blockTimestamp(b, cfg)
	assert.Equal(t, time.Unix(1060, 0).UTC(), ts)
}
