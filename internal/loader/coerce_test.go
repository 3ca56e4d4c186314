package loader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ethpandaops/era-indexer/internal/normalize"
)

func TestCoerceNumericHandlesEachInputType(t *testing.T) {
	assert.Equal(t, int64(0), coerceNumeric(nil))
	assert.Equal(t, int64(5), coerceNumeric(5))
	assert.Equal(t, int64(5), coerceNumeric(int64(5)))
	assert.Equal(t, int64(5), coerceNumeric(uint64(5)))
	assert.Equal(t, int64(5), coerceNumeric(float64(5.9)))
	assert.Equal(t, int64(5), coerceNumeric("5"))
	assert.Equal(t, int64(0), coerceNumeric("not-a-number"))
	assert.Equal(t, int64(0), coerceNumeric(""))
}

func TestCoerceStringPassesThroughOrFormats(t *testing.T) {
	assert.Equal(t, "", coerceString(nil))
	assert.Equal(t, "hello", coerceString("hello"))
	assert.Equal(t, "5", coerceString(5))
}

func TestCoerceTimestampNilAndSentinelsFallBack(t *testing.T) {
	assert.Equal(t, fallbackTimestamp, coerceTimestamp(nil))
	assert.Equal(t, fallbackTimestamp, coerceTimestamp(""))
	assert.Equal(t, fallbackTimestamp, coerceTimestamp("0"))
	assert.Equal(t, fallbackTimestamp, coerceTimestamp("1970-01-01T00:00:00Z"))
	assert.Equal(t, fallbackTimestamp, coerceTimestamp(int64(0)))
	assert.Equal(t, fallbackTimestamp, coerceTimestamp(int64(-1)))
}

func TestCoerceTimestampAcceptsUnixSeconds(t *testing.T) {
	ts := coerceTimestamp(int64(1700000000))
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ts)
}

func TestCoerceTimestampAcceptsNumericString(t *testing.T) {
	ts := coerceTimestamp("1700000000")
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ts)
}

func TestCoerceTimestampRejectsImplausiblyLargeUnix(t *testing.T) {
	ts := coerceTimestamp(int64(maxPlausibleUnixSeconds + 1))
	assert.Equal(t, fallbackTimestamp, ts)
}

func TestCoerceTimestampParsesISO8601(t *testing.T) {
	ts := coerceTimestamp("2023-11-14T22:13:20Z")
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), ts)
}

func TestCoerceTimestampTruncatesFractionalSeconds(t *testing.T) {
	ts := coerceTimestamp("2023-11-14T22:13:20.999Z")
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), ts)
}

func TestCoerceTimestampRejectsGarbageString(t *testing.T) {
	ts := coerceTimestamp("not-a-timestamp")
	assert.Equal(t, fallbackTimestamp, ts)
}

func TestCoerceTimestampPassesThroughValidTime(t *testing.T) {
	in := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, in, coerceTimestamp(in))
}

func TestCoerceTimestampClampsOutOfRangeTime(t *testing.T) {
	tooOld := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, fallbackTimestamp, coerceTimestamp(tooOld))

	tooFar := time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, fallbackTimestamp, coerceTimestamp(tooFar))
}

func TestToTupleOrdersValuesByCanonicalColumns(t *testing.T) {
	row := normalize.Row{
		"slot":           uint64(5),
		"proposer_index": uint64(7),
		"parent_root":    "0xabc",
	}
	tuple := toTuple(normalize.DatasetBlocks, row)
	assert.Equal(t, int64(5), tuple[0])
	assert.Equal(t, int64(7), tuple[1])
	assert.Equal(t, "0xabc", tuple[2])
}
