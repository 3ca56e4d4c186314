package app

import (
	"context"
	"fmt"

	"github.com/ethpandaops/era-indexer/internal/config"
	"github.com/ethpandaops/era-indexer/internal/migrate"
)

// RunMigrate implements `--migrate {status|run [version]|list}`.
func RunMigrate(ctx context.Context, cfg config.Config, mode string, args []string) error {
	switch mode {
	case "list":
		migrations, err := migrate.Load()
		if err != nil {
			return err
		}
		return printJSON(migrations)

	case "status":
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		runner := migrate.New(db, cfg.ClickHouse.Database)
		if err := runner.EnsureTable(ctx); err != nil {
			return err
		}
		applied, err := runner.Applied(ctx)
		if err != nil {
			return err
		}
		migrations, err := migrate.Load()
		if err != nil {
			return err
		}
		status := make([]map[string]interface{}, 0, len(migrations))
		for _, m := range migrations {
			status = append(status, map[string]interface{}{
				"version": m.Version,
				"applied": applied[m.Version],
			})
		}
		return printJSON(status)

	case "run":
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		upTo := ""
		if len(args) > 0 {
			upTo = args[0]
		}
		runner := migrate.New(db, cfg.ClickHouse.Database)
		count, err := runner.Run(ctx, upTo)
		if err != nil {
			return err
		}
		fmt.Printf("migrate: applied %d migration(s)\n", count)
		return nil

	default:
		return fmt.Errorf("app: unknown --migrate mode %q (expected status, run, or list)", mode)
	}
}
