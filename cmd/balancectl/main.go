package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"fichaje.balance/internal/cli"
	"fichaje.balance/internal/config"
	"fichaje.balance/internal/core"
	"fichaje.balance/internal/core/hours"
	"fichaje.balance/internal/ports/messaging"
	"fichaje.balance/internal/ports/repository"
	"fichaje.balance/pkg/aws"
	"fichaje.balance/pkg/database"
	"fichaje.balance/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
)

// open wires the report service the same way the API does.
func open(ctx context.Context) (cli.Service, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("could not load configuration: %w", err)
	}
	logger.Setup(cfg.IsLocalDev)

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening database: %w", err)
	}

	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	producer := messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.PayrollSQSQueueURL, cfg.EmailSQSQueueURL)
	aggregator := hours.NewAggregator(loc)
	aggregator.Concurrency = cfg.WorkerConcurrency

	svc := core.NewReportService(repository.NewTimeEntryRepository(db), producer, aggregator, nil)
	return svc, func() { db.Close() }, nil
}

func main() {
	cli.SetVersion(version, commit)
	if err := cli.NewRootCmd(open, time.Now).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
