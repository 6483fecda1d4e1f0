package core

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"

	"fichaje.balance/internal/core/model"
	"fichaje.balance/internal/ports/repository"
)

type fakeRepo struct {
	events     []model.ClockEvent
	schedules  map[string]*model.ScheduleDefinition
	employees  []model.Employee
	vacations  []model.VacationRequest
	closes     map[int64]*model.MonthClose
	nextID     int64
	err        error
	listedFrom time.Time
	listedTo   time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		schedules: map[string]*model.ScheduleDefinition{},
		closes:    map[int64]*model.MonthClose{},
	}
}

func (f *fakeRepo) inRange(from, to time.Time, keep func(model.ClockEvent) bool) []model.ClockEvent {
	var out []model.ClockEvent
	for _, ev := range f.events {
		if !ev.Timestamp.Before(from) && ev.Timestamp.Before(to) && keep(ev) {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeRepo) ListClockEvents(_ context.Context, employeeID string, from, to time.Time) ([]model.ClockEvent, error) {
	f.listedFrom, f.listedTo = from, to
	if f.err != nil {
		return nil, f.err
	}
	return f.inRange(from, to, func(ev model.ClockEvent) bool { return ev.SubjectID == employeeID }), nil
}

func (f *fakeRepo) ListCompanyClockEvents(_ context.Context, _, _ string, from, to time.Time) ([]model.ClockEvent, error) {
	f.listedFrom, f.listedTo = from, to
	if f.err != nil {
		return nil, f.err
	}
	return f.inRange(from, to, func(model.ClockEvent) bool { return true }), nil
}

func (f *fakeRepo) ListClientClockEvents(_ context.Context, _, clientName string) ([]model.ClockEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ClockEvent
	for _, ev := range f.events {
		if ev.ClientName == clientName {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetSchedule(_ context.Context, employeeID string) (*model.ScheduleDefinition, error) {
	return f.schedules[employeeID], f.err
}

func (f *fakeRepo) ListSchedules(context.Context, string) (map[string]*model.ScheduleDefinition, error) {
	return f.schedules, f.err
}

func (f *fakeRepo) GetEmployee(_ context.Context, employeeID string) (*model.Employee, error) {
	for _, emp := range f.employees {
		if emp.ID == employeeID {
			e := emp
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRepo) ListEmployees(context.Context, string, string) ([]model.Employee, error) {
	return f.employees, f.err
}

func (f *fakeRepo) ListApprovedVacations(context.Context, string) ([]model.VacationRequest, error) {
	return f.vacations, f.err
}

func (f *fakeRepo) CreateMonthClose(_ context.Context, mc *model.MonthClose) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	stored := *mc
	// Same month again: keep the id, replace everything else.
	for id, existing := range f.closes {
		if existing.EmployeeID == mc.EmployeeID && existing.Year == mc.Year && existing.Month == mc.Month {
			stored.ID = id
			f.closes[id] = &stored
			return id, nil
		}
	}
	f.nextID++
	stored.ID = f.nextID
	f.closes[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeRepo) GetMonthClose(_ context.Context, id int64) (*model.MonthClose, error) {
	mc, ok := f.closes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return mc, nil
}

func (f *fakeRepo) UpdatePayrollStatus(_ context.Context, id int64, status model.MonthCloseStatus, retryCount int) error {
	if mc, ok := f.closes[id]; ok {
		mc.PayrollStatus, mc.PayrollRetryCount = status, retryCount
	}
	return nil
}

func (f *fakeRepo) UpdateEmailStatus(_ context.Context, id int64, status model.MonthCloseStatus, retryCount int) error {
	if mc, ok := f.closes[id]; ok {
		mc.EmailStatus, mc.EmailRetryCount = status, retryCount
	}
	return nil
}

type fakePublisher struct {
	payroll    []interface{}
	email      []interface{}
	payrollErr error
	emailErr   error
}

func (p *fakePublisher) PublishPayroll(_ context.Context, body interface{}) error {
	p.payroll = append(p.payroll, body)
	return p.payrollErr
}

func (p *fakePublisher) PublishEmail(_ context.Context, body interface{}) error {
	p.email = append(p.email, body)
	return p.emailErr
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	return &ses.SendEmailOutput{}, f.err
}

var errDB = errors.New("db down")
