package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/speakwell/analysis-pipeline/internal/jobs"
	"github.com/speakwell/analysis-pipeline/internal/store"
	"github.com/speakwell/analysis-pipeline/pkg/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, teardown := setup()
		defer teardown()

		zap.S().Info("Starting migration")
		defer zap.S().Info("Db migrated")

		ctx := context.Background()

		db, err := store.InitDB(cfg)
		if err != nil {
			return fmt.Errorf("initializing data store: %w", err)
		}
		s := store.NewStore(db)
		defer s.Close()

		// sqlite is only used for local runs without the queue.
		if cfg.Database.Type != "pgsql" {
			return s.InitialMigration(ctx)
		}

		pool, err := jobs.NewPool(ctx, store.PostgresDSN(cfg))
		if err != nil {
			return err
		}
		defer pool.Close()

		return migrations.MigrateStore(ctx, db, cfg.Service.MigrationFolder, pool)
	},
}
