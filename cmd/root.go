// Package cmd assembles the command-line surface spec.md §6 names: a single
// root command whose flags select between local, batch, remote and
// operational (era-status/era-failed/era-cleanup/era-check/migrate) modes,
// mirroring the way the teacher's root command wires flag-driven dispatch
// ahead of any subcommand tree (cmd/root.go, cmd/dump_block.go).
package cmd

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/era-indexer/cmd/app"
	"github.com/ethpandaops/era-indexer/internal/config"
)

var (
	batchPattern  string
	remoteNetwork string
	downloadOnly  bool
	separate      bool
	force         bool
	exportTarget  string
	eraStatus     string
	eraFailed     string
	eraCleanup    string
	eraCheck      string
	migrateMode   string
)

var rootCmd = &cobra.Command{
	Use:          "era-indexer <era_file> <verb> [output]",
	Short:        "Decode and normalize Ethereum beacon-chain era files",
	SilenceUsage: true,
	Args:         cobra.ArbitraryArgs,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&batchPattern, "batch", "", "Process every era file matched by a glob or directory")
	rootCmd.Flags().StringVar(&remoteNetwork, "remote", "", "Discover and process an era range from a remote index, for network")
	rootCmd.Flags().BoolVar(&downloadOnly, "download-only", false, "With --remote, only download era files, skip processing")
	rootCmd.Flags().BoolVar(&separate, "separate", false, "Write each dataset to its own output file")
	rootCmd.Flags().BoolVar(&force, "force", false, "With --remote, reprocess eras already marked completed")
	rootCmd.Flags().StringVar(&exportTarget, "export", "", "Output target: empty for file export, \"clickhouse\" for the store")
	rootCmd.Flags().StringVar(&eraStatus, "era-status", "", "Report era completion status for a network, or \"all\"")
	rootCmd.Flags().StringVar(&eraFailed, "era-failed", "", "List failed eras for a network, or \"all\"")
	rootCmd.Flags().StringVar(&eraCleanup, "era-cleanup", "", "Sweep stale processing state older than timeout_minutes (default 60)")
	rootCmd.Flags().Lookup("era-cleanup").NoOptDefVal = "60"
	rootCmd.Flags().StringVar(&eraCheck, "era-check", "", "Validate an era file's framing without decoding blocks")
	rootCmd.Flags().StringVar(&migrateMode, "migrate", "", "Schema migration mode: status, run, or list")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx := context.Background()
	opts := app.Options{Separate: separate, Force: force, ExportTarget: exportTarget}

	switch {
	case migrateMode != "":
		return app.RunMigrate(ctx, cfg, migrateMode, args)
	case eraStatus != "":
		return app.EraStatus(ctx, cfg, eraStatus)
	case eraFailed != "":
		return app.EraFailed(ctx, cfg, eraFailed, args)
	case cmd.Flags().Changed("era-cleanup"):
		return app.EraCleanup(ctx, cfg, eraCleanup)
	case eraCheck != "":
		return app.EraCheck(eraCheck)
	case remoteNetwork != "":
		if len(args) < 1 {
			return fmt.Errorf("cmd: --remote requires an era_range argument")
		}
		var verb, output string
		if len(args) >= 2 {
			verb = args[1]
		}
		if len(args) >= 3 {
			output = args[2]
		}
		return app.RunRemote(ctx, cfg, remoteNetwork, args[0], verb, output, downloadOnly, opts)
	case batchPattern != "":
		if len(args) < 2 {
			return fmt.Errorf("cmd: --batch requires <cmd> <base_output>")
		}
		return app.RunBatch(ctx, cfg, batchPattern, args[0], args[1], opts)
	default:
		if len(args) < 2 {
			return fmt.Errorf("cmd: expected <era_file> <verb> [output]")
		}
		eraFile, verb := args[0], args[1]
		rest := args[2:]
		return app.RunLocal(ctx, cfg, eraFile, verb, rest, opts)
	}
}

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
