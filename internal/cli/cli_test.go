package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fichaje.balance/internal/core/model"
)

var now = time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

type fakeService struct {
	closedAt time.Time
}

func (f *fakeService) MonthlyBalance(_ context.Context, employeeID string, year int, month time.Month) (model.MonthlyBalance, error) {
	return model.MonthlyBalance{
		SubjectID: employeeID, Year: year, Month: month,
		ActualHours: 7.5, TheoreticalHours: 8, BalanceHours: -0.5,
		Days: []model.DayBalance{{
			Date:        civil.Date{Year: 2024, Month: time.January, Day: 15},
			ActualHours: 7.5, TheoreticalHours: 8, BalanceHours: -0.5,
		}},
	}, nil
}

func (f *fakeService) CompanyBalances(_ context.Context, _, _ string, year int, month time.Month) ([]model.MonthlyBalance, error) {
	return []model.MonthlyBalance{{SubjectID: "e1", Year: year, Month: month}}, nil
}

func (f *fakeService) CloseMonth(_ context.Context, _ string, _ int, _ time.Month, now time.Time) (*model.MonthClose, error) {
	f.closedAt = now
	return &model.MonthClose{ID: 9, BalanceHours: 2}, nil
}

func (f *fakeService) WorkedToday(context.Context, string, time.Time) (float64, error) {
	return 3.5, nil
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(open, func() time.Time { return now })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func opener(svc Service) Opener {
	return func(context.Context) (Service, func(), error) {
		return svc, func() {}, nil
	}
}

func TestRangesRunsOffline(t *testing.T) {
	failing := func(context.Context) (Service, func(), error) {
		return nil, nil, errors.New("no database")
	}

	out, err := run(t, failing, "ranges", "09:00-14:00, 15:00-18:00")

	require.NoError(t, err)
	assert.Equal(t, "8h 0m\n", out)
}

func TestBalanceCommand(t *testing.T) {
	out, err := run(t, opener(&fakeService{}), "balance", "e1", "2024", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-15")
	assert.Contains(t, out, "Lunes")
	assert.Contains(t, out, "-0h 30m")
	assert.Contains(t, out, "7h 30m")
}

func TestBalanceRejectsBadMonth(t *testing.T) {
	_, err := run(t, opener(&fakeService{}), "balance", "e1", "2024", "0")

	assert.EqualError(t, err, "invalid month '0'")
}

func TestCloseUsesClock(t *testing.T) {
	svc := &fakeService{}

	out, err := run(t, opener(svc), "close", "e1", "2024", "1")

	require.NoError(t, err)
	assert.Equal(t, now, svc.closedAt)
	assert.Contains(t, out, "Closed month 9 (balance +2h 0m)")
}

func TestWorkedTodayCommand(t *testing.T) {
	out, err := run(t, opener(&fakeService{}), "worked-today", "e1")

	require.NoError(t, err)
	assert.Equal(t, "3h 30m\n", out)
}

func TestExportWritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	out, err := run(t, opener(&fakeService{}), "export", "c1", "2024", "1", "-o", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 balances")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
