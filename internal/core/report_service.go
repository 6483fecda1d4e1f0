package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog/log"

	"fichaje.balance/internal/core/hours"
	"fichaje.balance/internal/core/model"
	"fichaje.balance/internal/ports/messaging"
	"fichaje.balance/internal/ports/repository"
	"fichaje.balance/pkg/metrics"
)

var (
	// ErrInvalidPeriod is returned for a malformed year, month or date range.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrPeriodOpen is returned when closing a month that has not ended yet.
	ErrPeriodOpen = errors.New("period has not ended")
)

// EmployeeHours is one row of an hours report.
type EmployeeHours struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	TotalHours   float64 `json:"totalHours"`
	Formatted    string  `json:"formatted"`
}

// ClientReport sums the hours dedicated to a client.
type ClientReport struct {
	ClientName        string          `json:"clientName"`
	TotalHours        float64         `json:"totalHours"`
	EmployeeBreakdown []EmployeeHours `json:"employeeBreakdown"`
}

// VacationBalance is the remaining vacation allowance of an employee.
type VacationBalance struct {
	EmployeeID    string `json:"employeeId"`
	EmployeeName  string `json:"employeeName"`
	TotalDays     int    `json:"totalDays"`
	DaysTaken     int    `json:"daysTaken"`
	RemainingDays int    `json:"remainingDays"`
}

// ReportService fetches clock events and schedules and reconciles them.
type ReportService struct {
	repo       repository.Repository
	publisher  messaging.Publisher
	aggregator *hours.Aggregator
	metrics    *metrics.Manager
}

// NewReportService creates the reporting service, wiring up the database
// repository, the queue publisher and the aggregator that fixes the
// evaluation timezone.
func NewReportService(repo repository.Repository, p messaging.Publisher, agg *hours.Aggregator, m *metrics.Manager) *ReportService {
	if agg == nil {
		agg = hours.NewAggregator(time.UTC)
	}
	return &ReportService{
		repo:       repo,
		publisher:  p,
		aggregator: agg,
		metrics:    m,
	}
}

// Aggregator returns the aggregator used by the service.
func (s *ReportService) Aggregator() *hours.Aggregator {
	return s.aggregator
}

// monthBounds returns [first instant of the month, first instant of the next
// month) in the evaluation timezone.
func (s *ReportService) monthBounds(year int, month time.Month) (time.Time, time.Time, error) {
	if year < 1 || month < time.January || month > time.December {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d-%02d", ErrInvalidPeriod, year, int(month))
	}
	loc := s.aggregator.Location
	if loc == nil {
		loc = time.UTC
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0), nil
}

// MonthlyBalance reconciles one employee's month against their schedule.
func (s *ReportService) MonthlyBalance(ctx context.Context, employeeID string, year int, month time.Month) (mb model.MonthlyBalance, err error) {
	defer func(started time.Time) { s.metrics.ObserveReport("monthly_balance", started, err) }(time.Now())

	from, to, err := s.monthBounds(year, month)
	if err != nil {
		return model.MonthlyBalance{}, err
	}

	events, err := s.repo.ListClockEvents(ctx, employeeID, from, to)
	if err != nil {
		return model.MonthlyBalance{}, fmt.Errorf("failed to list clock events: %w", err)
	}

	schedule, err := s.repo.GetSchedule(ctx, employeeID)
	if err != nil {
		return model.MonthlyBalance{}, fmt.Errorf("failed to get schedule: %w", err)
	}

	mb = s.aggregator.MonthlyBalance(employeeID, events, schedule, year, month)
	log.Ctx(ctx).Debug().
		Str("employee_id", employeeID).
		Int("events", len(events)).
		Int("days", len(mb.Days)).
		Float64("balance_hours", mb.BalanceHours).
		Msg("Monthly balance computed")

	return mb, nil
}

// CompanyBalances computes the monthly balance of every employee of a
// company, optionally restricted to a department. Balances carry the
// employee's full name and keep the repository's employee order.
func (s *ReportService) CompanyBalances(ctx context.Context, companyID, departmentID string, year int, month time.Month) (out []model.MonthlyBalance, err error) {
	defer func(started time.Time) { s.metrics.ObserveReport("company_balances", started, err) }(time.Now())

	from, to, err := s.monthBounds(year, month)
	if err != nil {
		return nil, err
	}

	employees, err := s.repo.ListEmployees(ctx, companyID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	events, err := s.repo.ListCompanyClockEvents(ctx, companyID, departmentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list clock events: %w", err)
	}
	schedules, err := s.repo.ListSchedules(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	byEmployee := groupBySubject(events)
	subjects := make([]hours.SubjectInput, 0, len(employees))
	for _, emp := range employees {
		subjects = append(subjects, hours.SubjectInput{
			SubjectID: emp.ID,
			Events:    byEmployee[emp.ID],
			Schedule:  schedules[emp.ID],
		})
	}

	out, err = s.aggregator.Balances(ctx, subjects, year, month)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].SubjectName = employees[i].FullName
	}
	return out, nil
}

// CloseMonth persists the monthly balance of an employee and publishes it to
// the payroll and e-mail queues. A month can only be closed once it has ended.
func (s *ReportService) CloseMonth(ctx context.Context, employeeID string, year int, month time.Month, now time.Time) (*model.MonthClose, error) {
	_, to, err := s.monthBounds(year, month)
	if err != nil {
		return nil, err
	}
	if now.Before(to) {
		return nil, fmt.Errorf("%w: %d-%02d", ErrPeriodOpen, year, int(month))
	}

	mb, err := s.MonthlyBalance(ctx, employeeID, year, month)
	if err != nil {
		return nil, err
	}

	mc := &model.MonthClose{
		EmployeeID:       employeeID,
		Year:             year,
		Month:            month,
		ActualHours:      mb.ActualHours,
		TheoreticalHours: mb.TheoreticalHours,
		BalanceHours:     mb.BalanceHours,
		ClosedAt:         now.UTC(),
		PayrollStatus:    model.StatusPending,
		EmailStatus:      model.StatusPending,
	}

	id, err := s.repo.CreateMonthClose(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create month close record: %w", err)
	}
	mc.ID = id

	event := messaging.MonthClosedEvent{
		MonthCloseID:     mc.ID,
		EmployeeID:       mc.EmployeeID,
		Year:             mc.Year,
		Month:            int(mc.Month),
		ActualHours:      mc.ActualHours,
		TheoreticalHours: mc.TheoreticalHours,
		BalanceHours:     mc.BalanceHours,
		ClosedAt:         mc.ClosedAt,
	}

	if err := s.publisher.PublishEmail(ctx, event); err != nil {
		// The summary e-mail is best effort; payroll delivery is not.
		log.Ctx(ctx).Warn().Err(err).Int64("month_close_id", mc.ID).Msg("Failed to publish month summary e-mail")
	}

	if err := s.publisher.PublishPayroll(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to publish month close event to queue: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("employee_id", employeeID).
		Int64("month_close_id", mc.ID).
		Str("balance", hours.FormatBalance(mc.BalanceHours)).
		Msg("Month closed")

	return mc, nil
}

// WorkedToday returns the hours an employee has worked so far on the
// calendar day containing now, including a session still running.
func (s *ReportService) WorkedToday(ctx context.Context, employeeID string, now time.Time) (h float64, err error) {
	defer func(started time.Time) { s.metrics.ObserveReport("worked_today", started, err) }(time.Now())

	loc := s.aggregator.Location
	if loc == nil {
		loc = time.UTC
	}
	from := s.aggregator.DateOf(now).In(loc)
	to := from.AddDate(0, 0, 1)

	events, err := s.repo.ListClockEvents(ctx, employeeID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to list clock events: %w", err)
	}

	return hours.WorkedHoursLive(events, now), nil
}

// ClientHours sums, per employee, the hours recorded against a client.
// Sessions still running are counted up to now.
func (s *ReportService) ClientHours(ctx context.Context, companyID, clientName string, now time.Time) (report ClientReport, err error) {
	defer func(started time.Time) { s.metrics.ObserveReport("client_hours", started, err) }(time.Now())

	events, err := s.repo.ListClientClockEvents(ctx, companyID, clientName)
	if err != nil {
		return ClientReport{}, fmt.Errorf("failed to list client clock events: %w", err)
	}

	employees, err := s.repo.ListEmployees(ctx, companyID, "")
	if err != nil {
		return ClientReport{}, fmt.Errorf("failed to list employees: %w", err)
	}

	report = ClientReport{
		ClientName:        clientName,
		EmployeeBreakdown: summarize(events, employees, now),
	}
	for _, row := range report.EmployeeBreakdown {
		report.TotalHours += row.TotalHours
	}
	return report, nil
}

// HoursSummary sums, per employee, the hours worked between two dates
// (inclusive). Sessions still running are counted up to now.
func (s *ReportService) HoursSummary(ctx context.Context, companyID, departmentID string, from, to civil.Date, now time.Time) (rows []EmployeeHours, err error) {
	defer func(started time.Time) { s.metrics.ObserveReport("hours_summary", started, err) }(time.Now())

	if !from.IsValid() || !to.IsValid() || to.Before(from) {
		return nil, fmt.Errorf("%w: %s..%s", ErrInvalidPeriod, from, to)
	}

	loc := s.aggregator.Location
	if loc == nil {
		loc = time.UTC
	}

	events, err := s.repo.ListCompanyClockEvents(ctx, companyID, departmentID, from.In(loc), to.AddDays(1).In(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to list clock events: %w", err)
	}

	employees, err := s.repo.ListEmployees(ctx, companyID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	return summarize(events, employees, now), nil
}

// VacationBalances returns, per employee, the vacation days left after the
// approved vacation requests. Both ends of a request count as taken.
func (s *ReportService) VacationBalances(ctx context.Context, companyID string) (out []VacationBalance, err error) {
	defer func(started time.Time) { s.metrics.ObserveReport("vacation_balances", started, err) }(time.Now())

	employees, err := s.repo.ListEmployees(ctx, companyID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	requests, err := s.repo.ListApprovedVacations(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vacation requests: %w", err)
	}

	taken := make(map[string]int)
	for _, req := range requests {
		if days := req.EndDate.DaysSince(req.StartDate) + 1; days > 0 {
			taken[req.EmployeeID] += days
		}
	}

	balances := make([]VacationBalance, 0, len(employees))
	for _, emp := range employees {
		balances = append(balances, VacationBalance{
			EmployeeID:    emp.ID,
			EmployeeName:  emp.FullName,
			TotalDays:     emp.VacationDays,
			DaysTaken:     taken[emp.ID],
			RemainingDays: emp.VacationDays - taken[emp.ID],
		})
	}

	sort.SliceStable(balances, func(i, j int) bool {
		return balances[i].EmployeeName < balances[j].EmployeeName
	})
	return balances, nil
}

// UpdatePayrollStatus is a simple pass-through to the repository layer,
// used by the payroll worker to track delivery.
func (s *ReportService) UpdatePayrollStatus(ctx context.Context, id int64, status model.MonthCloseStatus, retryCount int) error {
	return s.repo.UpdatePayrollStatus(ctx, id, status, retryCount)
}

func groupBySubject(events []model.ClockEvent) map[string][]model.ClockEvent {
	out := make(map[string][]model.ClockEvent)
	for _, ev := range events {
		out[ev.SubjectID] = append(out[ev.SubjectID], ev)
	}
	return out
}

// summarize builds live per-employee totals. Employees with events but no
// employee record are reported under their id.
func summarize(events []model.ClockEvent, employees []model.Employee, now time.Time) []EmployeeHours {
	names := make(map[string]string, len(employees))
	for _, emp := range employees {
		names[emp.ID] = emp.FullName
	}

	byEmployee := groupBySubject(events)
	rows := make([]EmployeeHours, 0, len(byEmployee))
	for id, evs := range byEmployee {
		total := hours.WorkedHoursLive(evs, now)
		name, ok := names[id]
		if !ok {
			name = id
		}
		rows = append(rows, EmployeeHours{
			EmployeeID:   id,
			EmployeeName: name,
			TotalHours:   total,
			Formatted:    hours.FormatHours(total),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EmployeeName != rows[j].EmployeeName {
			return rows[i].EmployeeName < rows[j].EmployeeName
		}
		return rows[i].EmployeeID < rows[j].EmployeeID
	})
	return rows
}
