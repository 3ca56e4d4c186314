package block

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAttestationParserReadsAggregationBitsForwardFromOffset builds a
// minimal pre-Electra Attestation buffer (bits_offset == 228, the fixed
// region size, plus a handful of bitfield bytes) and checks the decoded
// aggregation_bits cover the bytes after the offset, not an empty span.
func TestAttestationParserReadsAggregationBitsForwardFromOffset(t *testing.T) {
	const bitsOffset = 228
	buf := make([]byte, bitsOffset+4)
	binary.LittleEndian.PutUint32(buf[0:4], bitsOffset)
	copy(buf[bitsOffset:], []byte{0x0f, 0xff, 0x00, 0x01})

	att, ok := attestationParser.Parse(buf)
	require.True(t, ok)
	assert.Equal(t, "0x0fff0001", att.AggregationBits)
	assert.NotEmpty(t, att.AggregationBits)
}

func TestAttestationParserRejectsShortBuffer(t *testing.T) {
	_, ok := attestationParser.Parse(make([]byte, 100))
	assert.False(t, ok)
}

func TestAttestationParserRejectsBitsOffsetBelowFixedRegion(t *testing.T) {
	buf := make([]byte, 228)
	binary.LittleEndian.PutUint32(buf[0:4], 100)
	_, ok := attestationParser.Parse(buf)
	assert.False(t, ok)
}
