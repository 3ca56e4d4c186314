// Package era frames an era archive into typed (record_type, payload)
// tuples and exposes era-level metadata derived from the filename.
package era

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/ethpandaops/era-indexer/internal/compression"
)

// RecordType tags the payload kind of one era record, per spec.md §3.1.
type RecordType uint16

const (
	RecordVersion      RecordType = 0x0000 // not emitted as a Record; the leading 8 bytes are skipped entirely
	RecordCompressedBlock RecordType = 0x0100
	RecordCompressedState  RecordType = 0x0200
	RecordSlotIndex        RecordType = 0x6932
)

const recordHeaderLen = 8

// Record is one decoded (type, payload) tuple from an era file, still
// compressed for block/state records.
type Record struct {
	Type    RecordType
	Payload []byte
}

// Reader streams Records out of an era file's on-disk byte layout.
type Reader struct {
	Meta Metadata
	data []byte
}

// Open reads the full era file into memory (era files are bounded by
// SLOTS_PER_HISTORICAL_ROOT blocks and are not large enough to warrant
// streaming) and parses its filename metadata.
func Open(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("era: open %s: %w", path, err)
	}
	meta, err := ParseMetadata(basename(path))
	if err != nil {
		return nil, err
	}
	return &Reader{Meta: meta, data: data}, nil
}

func basename(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// Records iterates every record in the file in on-disk order (not yet
// sorted by slot — use Blocks for that).
func (r *Reader) Records() ([]Record, error) {
	if len(r.data) < recordHeaderLen {
		return nil, fmt.Errorf("era: file shorter than version header")
	}

	var records []Record
	pos := recordHeaderLen // skip the 8-byte version header
	for pos < len(r.data) {
		if pos+recordHeaderLen > len(r.data) {
			return nil, fmt.Errorf("era: truncated record header at offset %d", pos)
		}
		header := r.data[pos : pos+recordHeaderLen]
		recType := RecordType(binary.LittleEndian.Uint16(header[0:2]))
		length := binary.LittleEndian.Uint32(header[2:6])
		pos += recordHeaderLen

		if pos+int(length) > len(r.data) {
			return nil, fmt.Errorf("era: record payload at offset %d exceeds file length", pos)
		}
		records = append(records, Record{Type: recType, Payload: r.data[pos : pos+int(length)]})
		pos += int(length)
	}
	return records, nil
}

// BlockEntry is one slot-ordered compressed-block record.
type BlockEntry struct {
	Slot uint64
	// Compressed is the still-snappy-compressed SignedBeaconBlock payload.
	// Blocks has already decompressed it once to read Slot (records that
	// failed are dropped there); the caller decompresses it again to decode
	// the block, so a bad block is isolated without aborting the era.
	Compressed []byte
}

// Blocks returns the era's compressed SignedBeaconBlock records, sorted
// ascending by slot as required by spec.md §3.1. Slot numbers are not
// present in the era's own record framing; they're read from the first 8
// bytes of the decompressed SSZ message, so this necessarily decompresses
// every block's payload (decompression failures are logged and the record
// is dropped rather than aborting the era).
func (r *Reader) Blocks() ([]BlockEntry, error) {
	records, err := r.Records()
	if err != nil {
		return nil, err
	}

	var entries []BlockEntry
	for i, rec := range records {
		if rec.Type != RecordCompressedBlock {
			continue
		}
		decompressed, err := compression.Decompress(rec.Payload)
		if err != nil {
			log.WithFields(log.Fields{"era": r.Meta.Filename, "record_index": i}).WithError(err).Warn("era: dropping block record that failed to decompress")
			continue
		}
		slot := readSlot(decompressed)
		entries = append(entries, BlockEntry{Slot: slot, Compressed: rec.Payload})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Slot < entries[j].Slot })
	return entries, nil
}

// readSlot reads the slot field out of an (uncompressed) SignedBeaconBlock:
// message_offset at [0:4), then slot as the first 8 bytes of the message.
func readSlot(ssz []byte) uint64 {
	if len(ssz) < 4 {
		return 0
	}
	messageOffset := binary.LittleEndian.Uint32(ssz[0:4])
	if int(messageOffset)+8 > len(ssz) {
		return 0
	}
	return binary.LittleEndian.Uint64(ssz[messageOffset : messageOffset+8])
}

// Stats summarizes record counts without fully decoding any block.
type Stats struct {
	Meta           Metadata
	TotalRecords   int
	BlockRecords   int
	StateRecords   int
	SlotIndexRecords int
}

// Validate performs the lightweight "era check" pass: it confirms the
// version header and every record frame and counts records by type,
// without decompressing or decoding block bodies. Block slots are not
// checked against the era's [start_slot, end_slot] window.
func (r *Reader) Validate() (Stats, error) {
	records, err := r.Records()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Meta: r.Meta}
	for _, rec := range records {
		stats.TotalRecords++
		switch rec.Type {
		case RecordCompressedBlock:
			stats.BlockRecords++
		case RecordCompressedState:
			stats.StateRecords++
		case RecordSlotIndex:
			stats.SlotIndexRecords++
		}
	}
	return stats, nil
}

// Len reports the number of bytes backing the reader, mostly for tests.
func (r *Reader) Len() int { return len(r.data) }

// Close is a no-op: Open reads the whole file eagerly and holds no
// descriptor open, but Close is kept so Reader satisfies io.Closer for
// callers that treat era files like any other handle.
func (r *Reader) Close() error { return nil }

var _ io.Closer = (*Reader)(nil)
