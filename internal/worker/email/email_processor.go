// Package email sends the monthly balance summary of a closed month.
package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	core "fichaje.balance/internal/core"
	"fichaje.balance/internal/core/model"
	"fichaje.balance/internal/ports/messaging"
	"fichaje.balance/internal/ports/repository"
	"fichaje.balance/internal/worker"
	"fichaje.balance/pkg/logger"
)

type Processor struct {
	emailService core.EmailService
	repo         repository.Repository
}

// NewProcessor needs an email service to send mail and a repository to
// resolve the recipient and track delivery.
func NewProcessor(emailService core.EmailService, repo repository.Repository) *Processor {
	return &Processor{
		emailService: emailService,
		repo:         repo,
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

	if record.EmailStatus == model.StatusCompleted {
		log.Ctx(ctx).Info().Int64("month_close_id", record.ID).Msg("Email already sent. Skipping.")
		return false, 0, nil
	}

	employee, err := p.repo.GetEmployee(ctx, event.EmployeeID)
	if errors.Is(err, repository.ErrNotFound) {
		_ = p.repo.UpdateEmailStatus(ctx, record.ID, model.StatusFailed, record.EmailRetryCount)
		return false, 0, fmt.Errorf("employee %s: %w", event.EmployeeID, err)
	}
	if err != nil {
		return true, 10, fmt.Errorf("failed to get employee from db: %w", err)
	}
	if employee.Email == "" {
		_ = p.repo.UpdateEmailStatus(ctx, record.ID, model.StatusFailed, record.EmailRetryCount)
		return false, 0, fmt.Errorf("employee %s has no e-mail address", employee.ID)
	}

	summary := core.MonthSummary{
		EmployeeName:     employee.FullName,
		Year:             record.Year,
		Month:            record.Month,
		ActualHours:      record.ActualHours,
		TheoreticalHours: record.TheoreticalHours,
		BalanceHours:     record.BalanceHours,
	}

	if err := p.emailService.SendMonthSummary(ctx, employee.Email, summary); err != nil {
		newCount := record.EmailRetryCount + 1
		if newCount >= worker.MaxRetries {
			_ = p.repo.UpdateEmailStatus(ctx, record.ID, model.StatusFailed, newCount)
			return false, 0, fmt.Errorf("e-mail delivery gave up after %d attempts: %w", newCount, err)
		}
		_ = p.repo.UpdateEmailStatus(ctx, record.ID, model.StatusPending, newCount)
		return true, worker.Backoff(newCount), err
	}

	return false, 0, p.repo.UpdateEmailStatus(ctx, record.ID, model.StatusCompleted, record.EmailRetryCount)
}
