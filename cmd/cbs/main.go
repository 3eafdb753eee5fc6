package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"college-budgeting-backend/internal/config"
	"college-budgeting-backend/internal/logging"
	"college-budgeting-backend/internal/storage"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// Set by loadConfig before any subcommand runs.
	cfg    *config.Config
	logger *zap.Logger

	rootCmd = &cobra.Command{
		Use:   "cbs",
		Short: "College budgeting survival backend",
		Long: `cbs serves the college budgeting API: survival-zone checks on balance
snapshots, spending categories learned from history, accounts and savings goals.`,
		PersistentPreRunE: loadConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedDemoCmd())
	rootCmd.AddCommand(retrainCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if logger != nil {
			logger.Info("received shutdown signal")
		}
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if logger != nil {
		_ = logging.Sync(logger)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		loaded.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		loaded.Logging.Format = logFormat
	}

	l, err := logging.New(loaded.Logging.Level, loaded.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	cfg, logger = loaded, l
	return nil
}

// openStore connects to the configured database and ensures the schema exists.
func openStore(ctx context.Context) (*storage.Store, error) {
	store, err := storage.Open(ctx, storage.Options{
		Driver:     cfg.Database.Driver,
		URL:        cfg.Database.URL,
		MaxRetries: cfg.Database.MaxRetries,
		RetryDelay: cfg.Database.RetryDelay,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := store.Setup(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
