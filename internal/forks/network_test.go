package forks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveExactName(t *testing.T) {
	assert.Equal(t, Gnosis, Resolve("gnosis"))
}

func TestResolveSubstringMatchFromFilename(t *testing.T) {
	assert.Equal(t, Sepolia, Resolve("sepolia-01082-abcd1234.era"))
}

func TestResolveFallsBackToMainnet(t *testing.T) {
	assert.Equal(t, Mainnet, Resolve("unknown-network"))
}

func TestSelectForkPicksLatestActivatedFork(t *testing.T) {
	assert.Equal(t, Phase0, Mainnet.SelectFork(0))
	assert.Equal(t, Altair, Mainnet.SelectFork(Mainnet.ForkEpochs[Altair]))
	assert.Equal(t, Bellatrix, Mainnet.SelectFork(Mainnet.ForkEpochs[Bellatrix]+1))
}

func TestSelectForkSkipsUnscheduledFork(t *testing.T) {
	// mainnet has not scheduled Electra (NoFork); even at a far-future epoch
	// the latest real fork (Deneb) should be selected instead.
	assert.Equal(t, Deneb, Mainnet.SelectFork(10_000_000))
}

func TestForkAtSlotCombinesEpochAndSelection(t *testing.T) {
	slot := Mainnet.ForkEpochs[Capella] * Mainnet.SlotsPerEpoch
	assert.Equal(t, Capella, Mainnet.ForkAtSlot(slot))
}

func TestForkStringNames(t *testing.T) {
	assert.Equal(t, "phase0", Phase0.String())
	assert.Equal(t, "electra", Electra.String())
}
