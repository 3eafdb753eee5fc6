package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"college-budgeting-backend/internal/category"
	"college-budgeting-backend/internal/retrain"
)

func retrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retrain",
		Short: "Retrain the category model from all labeled history and save it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			labeled, err := store.CountLabeled(ctx)
			if err != nil {
				return err
			}

			artifacts := category.NewFileArtifactStore(cfg.Model.Path)
			trainer := retrain.NewTrainer(store, artifacts, category.NewRegistry(nil), logger, cfg.Model.MinSamples)
			report, err := trainer.Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Skipped {
				fmt.Fprintf(out, "skipped: %d labeled records, need at least %d\n", labeled, cfg.Model.MinSamples)
				return nil
			}
			fmt.Fprintf(out, "trained on %d records across %d categories in %s (converged: %t)\n",
				report.Samples, report.Classes, report.Duration, report.Converged)
			fmt.Fprintf(out, "saved to %s\n", artifacts.Path)
			return nil
		},
	}
}
