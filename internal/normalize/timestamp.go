package normalize

import (
	"time"

	"github.com/ethpandaops/era-indexer/internal/block"
	"github.com/ethpandaops/era-indexer/internal/forks"
)

// blockTimestamp computes the single canonical timestamp a block and every
// one of its child rows share, per spec.md §3.4's precedence: the execution
// payload's own timestamp when the block has one (Bellatrix+), else
// genesis_time + slot * seconds_per_slot. Era-file blocks never carry a
// timestamp field outside the execution payload, so the top tier of the
// spec's three-tier rule never applies to this decode path.
func blockTimestamp(b *block.SignedBeaconBlock, cfg forks.Config) time.Time {
	if b.Message.Body.ExecutionPayload != nil && b.Message.Body.ExecutionPayload.Timestamp > 0 {
		return time.Unix(int64(b.Message.Body.ExecutionPayload.Timestamp), 0).UTC()
	}
	return time.Unix(int64(cfg.GenesisTime+b.Message.Slot*cfg.SecondsPerSlot), 0).UTC()
}
