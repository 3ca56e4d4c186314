// Package forks holds the per-network consensus parameters (slot timing,
// fork-activation epochs) and the fork-selection rule used throughout the
// decoder and normalizer.
package forks

import "strings"

// Fork identifies a beacon-chain body schema version.
type Fork int

const (
	Phase0 Fork = iota
	Altair
	Bellatrix
	Capella
	Deneb
	Electra
)

func (f Fork) String() string {
	switch f {
	case Phase0:
		return "phase0"
	case Altair:
		return "altair"
	case Bellatrix:
		return "bellatrix"
	case Capella:
		return "capella"
	case Deneb:
		return "deneb"
	case Electra:
		return "electra"
	default:
		return "unknown"
	}
}

// NoFork marks a fork that never activates on a given network (sepolia and
// mainnet have not scheduled Electra at the time these constants were set).
const NoFork = ^uint64(0)

// Config holds the slot-timing and fork-activation parameters for one network.
type Config struct {
	Name                  string
	GenesisTime           uint64
	SecondsPerSlot        uint64
	SlotsPerEpoch         uint64
	SlotsPerHistoricalRoot uint64
	ForkEpochs            map[Fork]uint64
}

var Mainnet = Config{
	Name:                   "mainnet",
	GenesisTime:            1606824023,
	SecondsPerSlot:         12,
	SlotsPerEpoch:          32,
	SlotsPerHistoricalRoot: 8192,
	ForkEpochs: map[Fork]uint64{
		Phase0:    0,
		Altair:    74240,
		Bellatrix: 144896,
		Capella:   194048,
		Deneb:     269568,
		Electra:   NoFork,
	},
}

var Gnosis = Config{
	Name:                   "gnosis",
	GenesisTime:            1638993340,
	SecondsPerSlot:         5,
	SlotsPerEpoch:          16,
	SlotsPerHistoricalRoot: 8192,
	ForkEpochs: map[Fork]uint64{
		Phase0:    0,
		Altair:    512,
		Bellatrix: 385536,
		Capella:   648704,
		Deneb:     889856,
		Electra:   1337856,
	},
}

var Sepolia = Config{
	Name:                   "sepolia",
	GenesisTime:            1655733600,
	SecondsPerSlot:         12,
	SlotsPerEpoch:          32,
	SlotsPerHistoricalRoot: 8192,
	ForkEpochs: map[Fork]uint64{
		Phase0:    0,
		Altair:    50,
		Bellatrix: 100,
		Capella:   56832,
		Deneb:     132608,
		Electra:   NoFork,
	},
}

var byName = map[string]Config{
	Mainnet.Name: Mainnet,
	Gnosis.Name:  Gnosis,
	Sepolia.Name: Sepolia,
}

// Resolve looks a network config up by exact name, falling back to a
// substring match (so "mainnet-01082-abcd1234.era" resolves via the
// filename stem), and finally to mainnet per spec.md §3.2.
func Resolve(name string) Config {
	if cfg, ok := byName[name]; ok {
		return cfg
	}
	lower := strings.ToLower(name)
	for n, cfg := range byName {
		if strings.Contains(lower, n) {
			return cfg
		}
	}
	return Mainnet
}

// orderedForks lists forks from newest to oldest so SelectFork can return
// the first match without depending on Go's randomized map iteration order.
var orderedForks = []Fork{Electra, Deneb, Capella, Bellatrix, Altair, Phase0}

// SelectFork returns the latest fork whose activation epoch is <= epoch. An
// epoch predating every known fork activation resolves to Phase0.
func (c Config) SelectFork(epoch uint64) Fork {
	for _, fork := range orderedForks {
		activation, ok := c.ForkEpochs[fork]
		if !ok || activation == NoFork {
			continue
		}
		if activation <= epoch {
			return fork
		}
	}
	return Phase0
}

// EpochAtSlot returns the epoch containing slot.
func (c Config) EpochAtSlot(slot uint64) uint64 {
	return slot / c.SlotsPerEpoch
}

// ForkAtSlot is a convenience wrapper combining EpochAtSlot and SelectFork.
func (c Config) ForkAtSlot(slot uint64) Fork {
	return c.SelectFork(c.EpochAtSlot(slot))
}
