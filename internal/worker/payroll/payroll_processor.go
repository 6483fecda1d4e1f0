// Package payroll delivers closed months to the payroll system.
package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"fichaje.balance/internal/core/model"
	"fichaje.balance/internal/ports/messaging"
	"fichaje.balance/internal/ports/repository"
	"fichaje.balance/internal/worker"
	"fichaje.balance/internal/worker/payrollapi"
	"fichaje.balance/pkg/logger"
)

// Processor handles jobs from the payroll queue. Calls to the payroll API go
// through a circuit breaker so a failing payroll system is not hammered.
type Processor struct {
	repo   repository.Repository
	client payrollapi.Client
	cb     *gobreaker.CircuitBreaker
}

func NewProcessor(r repository.Repository, client payrollapi.Client) *Processor {
	settings := gobreaker.Settings{
		Name:        "Payroll-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip when at least half of the last 10+ requests failed.
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &Processor{
		repo:   r,
		client: client,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty message body")
	}

	var event messaging.MonthClosedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal month closed event")
		return false, 0, err
	}

	ctx = logger.WithEmployee(ctx, event.EmployeeID)

	record, err := p.repo.GetMonthClose(ctx, event.MonthCloseID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, 0, fmt.Errorf("month close %d: %w", event.MonthCloseID, err)
	}
	if err != nil {
		return true, 10, fmt.Errorf("failed to get month close from db: %w", err)
	}

	if record.PayrollStatus == model.StatusCompleted {
		log.Ctx(ctx).Info().Int64("month_close_id", record.ID).Msg("Payroll already recorded. Skipping.")
		return false, 0, nil
	}

	if err := p.repo.UpdatePayrollStatus(ctx, record.ID, model.StatusProcessing, record.PayrollRetryCount); err != nil {
		return true, 10, fmt.Errorf("failed to mark payroll as processing: %w", err)
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.client.RecordMonthClose(ctx, event)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Ctx(ctx).Warn().Msg("Circuit breaker is open; skipping payroll API call")
		}

		newCount := record.PayrollRetryCount + 1
		if newCount >= worker.MaxRetries {
			_ = p.repo.UpdatePayrollStatus(ctx, record.ID, model.StatusFailed, newCount)
			return false, 0, fmt.Errorf("payroll delivery gave up after %d attempts: %w", newCount, err)
		}
		_ = p.repo.UpdatePayrollStatus(ctx, record.ID, model.StatusPending, newCount)
		return true, worker.Backoff(newCount), err
	}

	return false, 0, p.repo.UpdatePayrollStatus(ctx, record.ID, model.StatusCompleted, record.PayrollRetryCount)
}
