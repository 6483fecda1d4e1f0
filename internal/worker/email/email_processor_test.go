package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "fichaje.balance/internal/core"
	"fichaje.balance/internal/core/model"
	"fichaje.balance/internal/ports/repository"
)

type emailRepo struct {
	repository.Repository
	record    *model.MonthClose
	employees map[string]*model.Employee
}

func (r *emailRepo) GetMonthClose(_ context.Context, id int64) (*model.MonthClose, error) {
	if r.record == nil || r.record.ID != id {
		return nil, repository.ErrNotFound
	}
	return r.record, nil
}

func (r *emailRepo) GetEmployee(_ context.Context, id string) (*model.Employee, error) {
	if emp, ok := r.employees[id]; ok {
		return emp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *emailRepo) UpdateEmailStatus(_ context.Context, _ int64, status model.MonthCloseStatus, retryCount int) error {
	r.record.EmailStatus = status
	r.record.EmailRetryCount = retryCount
	return nil
}

type fakeMailer struct {
	to      string
	summary core.MonthSummary
	err     error
}

func (m *fakeMailer) SendMonthSummary(_ context.Context, to string, summary core.MonthSummary) error {
	m.to, m.summary = to, summary
	return m.err
}

const body = `{"monthCloseId":4,"employeeId":"e1","year":2024,"month":2}`

func newRepo() *emailRepo {
	return &emailRepo{
		record: &model.MonthClose{
			ID: 4, EmployeeID: "e1", Year: 2024, Month: time.February,
			ActualHours: 160, TheoreticalHours: 168, BalanceHours: -8,
		},
		employees: map[string]*model.Employee{
			"e1": {ID: "e1", FullName: "Ana Pérez", Email: "ana@example.com"},
		},
	}
}

func TestProcessSendsSummary(t *testing.T) {
	repo := newRepo()
	mailer := &fakeMailer{}
	p := NewProcessor(mailer, repo)

	retry, _, err := p.Process(context.Background(), types.Message{Body: aws.String(body)})

	require.NoError(t, err)
	assert.False(t, retry)
	assert.Equal(t, "ana@example.com", mailer.to)
	assert.Equal(t, core.MonthSummary{
		EmployeeName: "Ana Pérez", Year: 2024, Month: time.February,
		ActualHours: 160, TheoreticalHours: 168, BalanceHours: -8,
	}, mailer.summary)
	assert.Equal(t, model.StatusCompleted, repo.record.EmailStatus)
}

func TestProcessRetriesFailedSend(t *testing.T) {
	repo := newRepo()
	p := NewProcessor(&fakeMailer{err: errors.New("throttled")}, repo)

	retry, delay, err := p.Process(context.Background(), types.Message{Body: aws.String(body)})

	require.Error(t, err)
	assert.True(t, retry)
	assert.Equal(t, int32(20), delay)
	assert.Equal(t, 1, repo.record.EmailRetryCount)
	assert.Equal(t, model.StatusPending, repo.record.EmailStatus)
}

func TestProcessFailsWithoutAddress(t *testing.T) {
	repo := newRepo()
	repo.employees["e1"].Email = ""
	mailer := &fakeMailer{}
	p := NewProcessor(mailer, repo)

	retry, _, err := p.Process(context.Background(), types.Message{Body: aws.String(body)})

	require.Error(t, err)
	assert.False(t, retry)
	assert.Empty(t, mailer.to)
	assert.Equal(t, model.StatusFailed, repo.record.EmailStatus)
}

func TestProcessSkipsSentEmail(t *testing.T) {
	repo := newRepo()
	repo.record.EmailStatus = model.StatusCompleted
	mailer := &fakeMailer{}
	p := NewProcessor(mailer, repo)

	retry, _, err := p.Process(context.Background(), types.Message{Body: aws.String(body)})

	require.NoError(t, err)
	assert.False(t, retry)
	assert.Empty(t, mailer.to)
}
