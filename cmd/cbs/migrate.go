package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer store.Close()

			logger.Info("migration completed successfully", zap.String("driver", store.Driver()))
			return nil
		},
	}
}

func seedDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-demo",
		Short: "Insert labeled demo spending records (idempotent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.SeedDemo(cmd.Context())
			if err != nil {
				return fmt.Errorf("seeding demo data failed: %w", err)
			}
			if n == 0 {
				logger.Info("spending records already present, demo data not seeded")
				return nil
			}
			logger.Info("demo data seeded", zap.Int("records", n))
			return nil
		},
	}
}
