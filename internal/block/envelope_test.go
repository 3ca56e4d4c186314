package block

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/era-indexer/internal/forks"
)

// buildPhase0Envelope assembles a minimal but structurally valid
// SignedBeaconBlock SSZ buffer: a message offset, a 96-byte signature, the
// fixed message header, and a phase0 body whose five variable-length
// offsets all point past the end of the buffer (i.e. every list is empty).
func buildPhase0Envelope(slot uint64) []byte {
	const bodyLen = 220 // fixedPrefixLen(200) + 5 offsets * 4
	const messageHeaderLen = 84
	const messageOffset = 100

	body := make([]byte, bodyLen)
	for i := 0; i < 5; i++ {
		binary.LittleEndian.PutUint32(body[200+i*4:204+i*4], bodyLen)
	}

	message := make([]byte, messageHeaderLen+bodyLen)
	binary.LittleEndian.PutUint64(message[0:8], slot)
	binary.LittleEndian.PutUint64(message[8:16], 7)
	binary.LittleEndian.PutUint32(message[80:84], messageHeaderLen)
	copy(message[messageHeaderLen:], body)

	buf := make([]byte, messageOffset+len(message))
	binary.LittleEndian.PutUint32(buf[0:4], messageOffset)
	copy(buf[messageOffset:], message)
	return buf
}

func TestDecodePhase0EnvelopeRoundTripsSlotAndProposer(t *testing.T) {
	buf := buildPhase0Envelope(123)

	b, err := Decode(buf, forks.Mainnet)
	require.NoError(t, err)
	assert.Equal(t, uint64(123), b.Message.Slot)
	assert.Equal(t, uint64(7), b.Message.ProposerIndex)
	assert.Equal(t, forks.Phase0, b.Fork)
	assert.Empty(t, b.Message.Body.Attestations)
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 10), forks.Mainnet)
	assert.Error(t, err)
}

func TestDecodeRejectsImplausibleMessageOffset(t *testing.T) {
	buf := buildPhase0Envelope(1)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)+1000))

	_, err := Decode(buf, forks.Mainnet)
	assert.Error(t, err)
}

func TestDecodeRejectsMessageOffsetBelowMinimum(t *testing.T) {
	buf := buildPhase0Envelope(1)
	binary.LittleEndian.PutUint32(buf[0:4], 50)

	_, err := Decode(buf, forks.Mainnet)
	assert.Error(t, err)
}
