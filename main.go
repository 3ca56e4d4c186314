package main

import "github.com/ethpandaops/era-indexer/cmd"

func main() {
	cmd.Execute()
}
