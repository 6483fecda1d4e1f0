// Entry point for the worker that delivers closed months to payroll.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	"fichaje.balance/internal/config"
	"fichaje.balance/internal/ports/repository"
	"fichaje.balance/internal/worker"
	"fichaje.balance/internal/worker/payroll"
	"fichaje.balance/internal/worker/payrollapi"
	"fichaje.balance/pkg/aws"
	"fichaje.balance/pkg/database"
	"fichaje.balance/pkg/logger"
	"fichaje.balance/pkg/metrics"
	"fichaje.balance/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	shutdownTracer, err := telemetry.InitTracer("payroll-worker", cfg.OTelEndpoint, cfg.IsLocalDev)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	m := metrics.NewManager(metrics.WithRuntimeCollectors())
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	if cfg.MetricsEnabled {
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	sqsClient := sqs.NewFromConfig(awsCfg)
	repo := repository.NewTimeEntryRepository(db)
	processor := payroll.NewProcessor(repo, payrollapi.NewHTTPClient(cfg.PayrollAPIURL))

	app := worker.NewWorker(sqsClient, cfg.PayrollSQSQueueURL, "payroll", processor, m)
	app.Concurrency = cfg.WorkerConcurrency

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Start(ctx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down worker...")

	cancel()
	<-done

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsSrv.Shutdown(shutdownCtx)

	log.Info().Msg("Worker exited gracefully")
}
