package repository

import (
	"context"
	"errors"
	"time"

	"fichaje.balance/internal/core/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository contract
type Repository interface {
	ListClockEvents(ctx context.Context, employeeID string, from, to time.Time) ([]model.ClockEvent, error)
	ListCompanyClockEvents(ctx context.Context, companyID, departmentID string, from, to time.Time) ([]model.ClockEvent, error)
	ListClientClockEvents(ctx context.Context, companyID, clientName string) ([]model.ClockEvent, error)
	GetSchedule(ctx context.Context, employeeID string) (*model.ScheduleDefinition, error)
	ListSchedules(ctx context.Context, companyID string) (map[string]*model.ScheduleDefinition, error)
	GetEmployee(ctx context.Context, employeeID string) (*model.Employee, error)
	ListEmployees(ctx context.Context, companyID, departmentID string) ([]model.Employee, error)
	ListApprovedVacations(ctx context.Context, companyID string) ([]model.VacationRequest, error)
	CreateMonthClose(ctx context.Context, mc *model.MonthClose) (int64, error)
	GetMonthClose(ctx context.Context, id int64) (*model.MonthClose, error)
	UpdatePayrollStatus(ctx context.Context, id int64, status model.MonthCloseStatus, retryCount int) error
	UpdateEmailStatus(ctx context.Context, id int64, status model.MonthCloseStatus, retryCount int) error
}
