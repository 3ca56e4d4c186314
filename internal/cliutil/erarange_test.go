package cliutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEraRangeSingle(t *testing.T) {
	r, err := ParseEraRange("1082")
	assert.NoError(t, err)
	assert.Equal(t, EraRange{Start: 1082, End: 1082}, r)
}

func TestParseEraRangeInclusive(t *testing.T) {
	r, err := ParseEraRange("1082-1090")
	assert.NoError(t, err)
	assert.Equal(t, EraRange{Start: 1082, End: 1090}, r)
}

func TestParseEraRangeOpenEnded(t *testing.T) {
	r, err := ParseEraRange("1082+")
	assert.NoError(t, err)
	assert.True(t, r.OpenEnded)
	assert.Equal(t, uint64(1082), r.Start)
}

func TestParseEraRangeRejectsEndBeforeStart(t *testing.T) {
	_, err := ParseEraRange("1090-1082")
	assert.Error(t, err)
}

func TestParseEraRangeRejectsGarbage(t *testing.T) {
	_, err := ParseEraRange("not-a-range")
	assert.Error(t, err)
}

func TestParseEraRangeRejectsEmpty(t *testing.T) {
	_, err := ParseEraRange("")
	assert.Error(t, err)
}
