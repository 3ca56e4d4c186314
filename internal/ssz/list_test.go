package ssz

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func u32Parser() ItemParser[uint32] {
	return ItemParser[uint32]{
		FixedSize: 4,
		Parse: func(buf []byte) (uint32, bool) {
			return binary.LittleEndian.Uint32(buf), true
		},
	}
}

func bytesParser() ItemParser[string] {
	return ItemParser[string]{
		Parse: func(buf []byte) (string, bool) {
			return string(buf), true
		},
	}
}

func TestParseListFixedExactSize(t *testing.T) {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], 1)
	binary.LittleEndian.PutUint32(buf[4:8], 2)
	binary.LittleEndian.PutUint32(buf[8:12], 3)

	out := ParseList(buf, u32Parser())
	assert.Equal(t, []uint32{1, 2, 3}, out)
}

func TestParseListFixedTruncatesPartialTrailingItem(t *testing.T) {
	buf := make([]byte, 10) // 2 full 4-byte items plus 2 trailing bytes
	binary.LittleEndian.PutUint32(buf[0:4], 7)
	binary.LittleEndian.PutUint32(buf[4:8], 8)

	out := ParseList(buf, u32Parser())
	assert.Equal(t, []uint32{7, 8}, out)
}

func TestParseListVariableFirstOffsetZeroIsSingleItem(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], 0)
	copy(buf[4:], "ab")

	out := ParseList(buf, bytesParser())
	assert.Len(t, out, 1)
}

func TestParseListVariableFirstOffsetEqualsLenIsEmpty(t *testing.T) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf[0:4], 4)

	out := ParseList(buf, bytesParser())
	assert.Empty(t, out)
}

func TestParseListVariableDecodesEachSpan(t *testing.T) {
	// two items: offsets table [8, 11), then "abc" and "de"
	buf := make([]byte, 13)
	binary.LittleEndian.PutUint32(buf[0:4], 8)
	binary.LittleEndian.PutUint32(buf[4:8], 11)
	copy(buf[8:11], "abc")
	copy(buf[11:13], "de")

	out := ParseList(buf, bytesParser())
	assert.Equal(t, []string{"abc", "de"}, out)
}

func TestParseListVariableMalformedOffsetFallsBackToSingleItem(t *testing.T) {
	before := FallbackCount()

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], 3) // not a multiple of 4
	copy(buf[4:], "xy")

	out := ParseList(buf, bytesParser())
	assert.Len(t, out, 1)
	assert.Equal(t, before+1, FallbackCount())
}

func TestParseListVariableEmptyBufIsNil(t *testing.T) {
	out := ParseList([]byte{}, bytesParser())
	assert.Nil(t, out)
}

func TestReadU32LEOutOfBoundsReturnsZero(t *testing.T) {
	assert.Equal(t, uint32(0), ReadU32LE([]byte{1, 2}, 0))
}

func TestReadU64LEReadsLittleEndian(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, 0x0102030405060708)
	assert.Equal(t, uint64(0x0102030405060708), ReadU64LE(buf, 0))
}
