package ssz

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// ItemParser describes how to decode one element of an SSZ list. A non-zero
// FixedSize declares a constant per-item size (the sole signal the list
// decoder uses to pick the fixed-size path); with FixedSize 0 the items are
// variable-length and located through the offset table instead.
type ItemParser[T any] struct {
	// FixedSize is the encoded size of one item, or 0 for variable-length items.
	FixedSize int
	// Parse decodes one item's byte slice. Returning ok=false drops the item
	// from the resulting list without aborting the rest of the list.
	Parse func(buf []byte) (item T, ok bool)
}

// fallbackCount counts how often ParseList fell back to treating a
// variable-length list as a single item because its offset table looked
// malformed. spec.md §9 leaves open whether that fallback is intentional
// forward-compatibility or a bug masking corruption; we don't decide, we
// just make it observable instead of silently succeeding.
var fallbackCount uint64

// FallbackCount returns the number of single-item fallbacks triggered by
// ParseList since process start.
func FallbackCount() uint64 {
	return atomic.LoadUint64(&fallbackCount)
}

// ParseList decodes an SSZ-encoded list of items using item.
//
// Fixed-size items: len(buf) is divided by FixedSize; a non-exact remainder
// is logged and the trailing partial item is dropped.
//
// Variable-size items: the first 4 bytes of buf are the offset of item 0,
// which for a well-formed list equals 4 * num_items. first_offset == 0 means
// exactly one item; first_offset == len(buf) means an empty list; an offset
// table that is too short, misaligned, or otherwise implausible falls back
// to treating buf as a single item.
func ParseList[T any](buf []byte, item ItemParser[T]) []T {
	if item.FixedSize > 0 {
		return parseFixedList(buf, item)
	}
	return parseVariableList(buf, item)
}

func parseFixedList[T any](buf []byte, item ItemParser[T]) []T {
	n := item.FixedSize
	count := len(buf) / n
	if len(buf)%n != 0 {
		log.WithFields(log.Fields{
			"buf_len":    len(buf),
			"item_size":  n,
			"full_items": count,
		}).Warn("ssz: fixed-size list length is not a multiple of item size, truncating")
	}

	out := make([]T, 0, count)
	for i := 0; i < count; i++ {
		v, ok := item.Parse(buf[i*n : (i+1)*n])
		if !ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseVariableList[T any](buf []byte, item ItemParser[T]) []T {
	if len(buf) == 0 {
		return nil
	}
	if len(buf) < 4 {
		return parseSingleItem(buf, item)
	}

	firstOffset := ReadU32LE(buf, 0)
	switch {
	case firstOffset == 0:
		return parseSingleItem(buf, item)
	case int(firstOffset) == len(buf):
		return nil
	case firstOffset%4 != 0, firstOffset < 4, int(firstOffset) > len(buf):
		atomic.AddUint64(&fallbackCount, 1)
		log.WithField("first_offset", firstOffset).Warn("ssz: implausible offset table, falling back to single-item parse")
		return parseSingleItem(buf, item)
	}

	numItems := int(firstOffset) / 4
	offsets := make([]uint32, numItems)
	for i := 0; i < numItems; i++ {
		offsets[i] = ReadU32LE(buf, i*4)
	}

	out := make([]T, 0, numItems)
	for i := 0; i < numItems; i++ {
		start := int(offsets[i])
		end := len(buf)
		if i+1 < numItems {
			end = int(offsets[i+1])
		}
		if start < 0 || end > len(buf) || start > end {
			log.WithFields(log.Fields{"index": i, "start": start, "end": end}).Warn("ssz: invalid item span, skipping")
			continue
		}
		v, ok := item.Parse(buf[start:end])
		if !ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseSingleItem[T any](buf []byte, item ItemParser[T]) []T {
	v, ok := item.Parse(buf)
	if !ok {
		return nil
	}
	return []T{v}
}
