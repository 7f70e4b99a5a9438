package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docsync/internal/app"
	"github.com/kailas-cloud/docsync/internal/config"
	dombatch "github.com/kailas-cloud/docsync/internal/domain/batch"
	logpkg "github.com/kailas-cloud/docsync/internal/logger"
	"github.com/kailas-cloud/docsync/internal/metrics"
	reconcileuc "github.com/kailas-cloud/docsync/internal/usecase/reconcile"
)

// Importer ingests a local file.
type Importer interface {
	IngestPath(ctx context.Context, path, separator string) (dombatch.Result, error)
}

// Reconciler runs a single reconciliation pass.
type Reconciler interface {
	RunOnce(ctx context.Context) (reconcileuc.Stats, error)
}

var (
	envName    string
	importer   Importer
	reconciler Reconciler
	closeApp   func()
)

var rootCmd = &cobra.Command{
	Use:          "docsctl",
	Short:        "Operate the docsync record store and search index",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "config environment (default: $ENV or local)")
}

// connect wires the application on first use.
func connect(cmd *cobra.Command) error {
	if importer != nil && reconciler != nil {
		return nil
	}

	env := envName
	if env == "" {
		env = config.GetEnv()
	}
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(cmd.Context(), &cfg, logger)
	if err != nil {
		return err
	}
	metrics.RegisterSyncMetrics()

	importer, reconciler = a.Ingestion, a.Reconcile
	closeApp = func() {
		a.Close()
		_ = logger.Sync()
	}
	return nil
}
