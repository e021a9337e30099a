package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/zeyadrezk/rds-provisioner/internal/activity"
	"github.com/zeyadrezk/rds-provisioner/internal/config"
	"github.com/zeyadrezk/rds-provisioner/internal/core"
	"github.com/zeyadrezk/rds-provisioner/internal/db"
	"github.com/zeyadrezk/rds-provisioner/internal/logging"
	"github.com/zeyadrezk/rds-provisioner/internal/metrics"
	"github.com/zeyadrezk/rds-provisioner/internal/rds"
	"github.com/zeyadrezk/rds-provisioner/internal/schema"
	"github.com/zeyadrezk/rds-provisioner/internal/secrets"
	"github.com/zeyadrezk/rds-provisioner/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	tc, err := temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	gateway := rds.NewGateway(cfg)
	bootstrapper := schema.NewBootstrapper(cfg.SchemaTemplatesDir, logger)
	distributor := secrets.NewDistributor(cfg, logger)
	services := core.NewServices(pool, tc, gateway, bootstrapper, distributor, cfg, logger)

	w := worker.New(tc, core.TaskQueue(), worker.Options{})

	// Register activities
	provisionActivities := activity.NewProvision(services.Provisioning, services.RDSInstance)
	w.RegisterActivity(provisionActivities)

	// Register workflows
	w.RegisterWorkflow(workflow.ProvisionDatabaseWorkflow)
	w.RegisterWorkflow(workflow.ProvisionClientWorkflow)
	w.RegisterWorkflow(workflow.DeleteDatabaseWorkflow)
	w.RegisterWorkflow(workflow.WatchInstanceWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	logger.Info().Str("taskQueue", core.TaskQueue()).Msg("starting temporal worker")
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal().Err(err).Msg("worker failed")
	}
}
