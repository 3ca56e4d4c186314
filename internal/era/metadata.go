package era

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ethpandaops/era-indexer/internal/forks"
)

// filenamePattern matches "<network>-<era5digits>[-<8hex>].era".
var filenamePattern = regexp.MustCompile(`^(?P<network>[a-zA-Z0-9]+)-(?P<era>\d{5})(?:-(?P<hash>[0-9a-fA-F]{8}))?\.era$`)

// Metadata is the information derivable from an era filename plus the
// network's slot-window size.
type Metadata struct {
	Filename  string
	Network   string
	EraNumber uint64
	Hash      string
	StartSlot uint64
	EndSlot   uint64
}

// ParseMetadata derives Metadata from an era filename, per spec.md §3.2.
// Network falls back to a substring match against known networks, then to
// "mainnet" if nothing matches.
func ParseMetadata(filename string) (Metadata, error) {
	match := filenamePattern.FindStringSubmatch(filename)
	if match == nil {
		return Metadata{}, fmt.Errorf("era: filename %q does not match <network>-<era5digits>[-<hash8>].era", filename)
	}

	names := filenamePattern.SubexpNames()
	fields := make(map[string]string, len(names))
	for i, name := range names {
		if name != "" {
			fields[name] = match[i]
		}
	}

	eraNumber, err := strconv.ParseUint(fields["era"], 10, 64)
	if err != nil {
		return Metadata{}, fmt.Errorf("era: parse era number: %w", err)
	}

	network := forks.Resolve(fields["network"]).Name
	spr := forks.Resolve(network).SlotsPerHistoricalRoot

	start := eraNumber * spr
	return Metadata{
		Filename:  filename,
		Network:   network,
		EraNumber: eraNumber,
		Hash:      fields["hash"],
		StartSlot: start,
		EndSlot:   start + spr - 1,
	}, nil
}
