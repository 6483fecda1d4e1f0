package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fichaje.balance/internal/core/model"
)

// TimeEntryRepository is the concrete implementation for a PostgreSQL database.
type TimeEntryRepository struct {
	DB *sql.DB
}

// NewTimeEntryRepository create new instance
func NewTimeEntryRepository(db *sql.DB) Repository {
	return &TimeEntryRepository{DB: db}
}

func annotate(ctx context.Context, key, value string) {
	if value != "" {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String(key, value))
	}
}

// ListClockEvents returns the time entries of an employee in [from, to).
func (r *TimeEntryRepository) ListClockEvents(ctx context.Context, employeeID string, from, to time.Time) ([]model.ClockEvent, error) {
	annotate(ctx, "app.employeeId", employeeID)

	query := `SELECT id, employee_id, action, COALESCE(client_name, ''), created_at
              FROM time_entries
              WHERE employee_id = $1 AND created_at >= $2 AND created_at < $3
              ORDER BY created_at ASC`

	return r.queryEvents(ctx, query, employeeID, from, to)
}

// ListCompanyClockEvents returns the time entries of a company in [from, to),
// optionally restricted to one department.
func (r *TimeEntryRepository) ListCompanyClockEvents(ctx context.Context, companyID, departmentID string, from, to time.Time) ([]model.ClockEvent, error) {
	annotate(ctx, "app.companyId", companyID)

	query := `SELECT t.id, t.employee_id, t.action, COALESCE(t.client_name, ''), t.created_at
              FROM time_entries t
              JOIN employees e ON e.id = t.employee_id
              WHERE t.company_id = $1 AND t.created_at >= $2 AND t.created_at < $3
                AND ($4 = '' OR e.department_id::text = $4)
              ORDER BY t.created_at ASC`

	return r.queryEvents(ctx, query, companyID, from, to, departmentID)
}

// ListClientClockEvents returns every time entry recorded against a client.
func (r *TimeEntryRepository) ListClientClockEvents(ctx context.Context, companyID, clientName string) ([]model.ClockEvent, error) {
	annotate(ctx, "app.companyId", companyID)

	query := `SELECT id, employee_id, action, COALESCE(client_name, ''), created_at
              FROM time_entries
              WHERE company_id = $1 AND client_name = $2
              ORDER BY created_at ASC`

	return r.queryEvents(ctx, query, companyID, clientName)
}

func (r *TimeEntryRepository) queryEvents(ctx context.Context, query string, args ...any) ([]model.ClockEvent, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.ClockEvent
	for rows.Next() {
		var (
			ev     model.ClockEvent
			action string
		)
		if err := rows.Scan(&ev.ID, &ev.SubjectID, &action, &ev.ClientName, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.Action = model.ParseAction(action)
		events = append(events, ev)
	}
	return events, rows.Err()
}

type scheduleRow struct {
	name         string
	kind         string
	hoursPerWeek sql.NullFloat64
	details      []byte
}

func (s scheduleRow) definition() (*model.ScheduleDefinition, error) {
	var details map[string]string
	if len(s.details) > 0 {
		if err := json.Unmarshal(s.details, &details); err != nil {
			return nil, fmt.Errorf("decode schedule details: %w", err)
		}
	}
	return model.NewScheduleDefinition(s.name, s.kind, s.hoursPerWeek.Float64, details), nil
}

// GetSchedule returns the schedule assigned to an employee, or nil when the
// employee has none.
func (r *TimeEntryRepository) GetSchedule(ctx context.Context, employeeID string) (*model.ScheduleDefinition, error) {
	annotate(ctx, "app.employeeId", employeeID)

	query := `SELECT s.name, s.schedule_type, s.hours_per_week, s.details
              FROM employees e
              JOIN schedules s ON s.id = e.schedule_id
              WHERE e.id = $1`

	var row scheduleRow
	err := r.DB.QueryRowContext(ctx, query, employeeID).Scan(&row.name, &row.kind, &row.hoursPerWeek, &row.details)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.definition()
}

// ListSchedules returns the schedules of every employee of a company that
// has one, keyed by employee id.
func (r *TimeEntryRepository) ListSchedules(ctx context.Context, companyID string) (map[string]*model.ScheduleDefinition, error) {
	annotate(ctx, "app.companyId", companyID)

	query := `SELECT e.id, s.name, s.schedule_type, s.hours_per_week, s.details
              FROM employees e
              JOIN schedules s ON s.id = e.schedule_id
              WHERE e.company_id = $1`

	rows, err := r.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make(map[string]*model.ScheduleDefinition)
	for rows.Next() {
		var (
			employeeID string
			row        scheduleRow
		)
		if err := rows.Scan(&employeeID, &row.name, &row.kind, &row.hoursPerWeek, &row.details); err != nil {
			return nil, err
		}
		def, err := row.definition()
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", employeeID, err)
		}
		schedules[employeeID] = def
	}
	return schedules, rows.Err()
}

// GetEmployee fetches one employee.
func (r *TimeEntryRepository) GetEmployee(ctx context.Context, employeeID string) (*model.Employee, error) {
	annotate(ctx, "app.employeeId", employeeID)

	query := `SELECT id, full_name, COALESCE(email, ''), COALESCE(department_id::text, ''), COALESCE(vacation_days, 0)
              FROM employees WHERE id = $1`

	emp := &model.Employee{}
	err := r.DB.QueryRowContext(ctx, query, employeeID).Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.DepartmentID, &emp.VacationDays)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// ListEmployees returns the employees of a company ordered by name. Super
// admins are not employees for reporting purposes.
func (r *TimeEntryRepository) ListEmployees(ctx context.Context, companyID, departmentID string) ([]model.Employee, error) {
	annotate(ctx, "app.companyId", companyID)

	query := `SELECT id, full_name, COALESCE(email, ''), COALESCE(department_id::text, ''), COALESCE(vacation_days, 0)
              FROM employees
              WHERE company_id = $1 AND role <> 'Super Admin'
                AND ($2 = '' OR department_id::text = $2)
              ORDER BY full_name`

	rows, err := r.DB.QueryContext(ctx, query, companyID, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		var emp model.Employee
		if err := rows.Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.DepartmentID, &emp.VacationDays); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// ListApprovedVacations returns approved vacation requests of a company.
func (r *TimeEntryRepository) ListApprovedVacations(ctx context.Context, companyID string) ([]model.VacationRequest, error) {
	annotate(ctx, "app.companyId", companyID)

	query := `SELECT employee_id, start_date, end_date
              FROM requests
              WHERE company_id = $1 AND request_type = $2 AND status = 'Aprobada'`

	rows, err := r.DB.QueryContext(ctx, query, companyID, model.LiteralVacation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []model.VacationRequest
	for rows.Next() {
		var (
			req        model.VacationRequest
			start, end time.Time
		)
		if err := rows.Scan(&req.EmployeeID, &start, &end); err != nil {
			return nil, err
		}
		req.StartDate = civil.DateOf(start)
		req.EndDate = civil.DateOf(end)
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// upsertMonthCloseQuery inserts a closed month or, when the month was closed
// before, replaces the figures and restarts both deliveries from scratch:
// status PENDING and retry counts back to zero.
const upsertMonthCloseQuery = `INSERT INTO month_closes (employee_id, year, month, actual_hours, theoretical_hours, balance_hours,
                  closed_at, payroll_status, payroll_retry_count, email_status, email_retry_count)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, 0)
              ON CONFLICT (employee_id, year, month) DO UPDATE
                  SET actual_hours = EXCLUDED.actual_hours,
                      theoretical_hours = EXCLUDED.theoretical_hours,
                      balance_hours = EXCLUDED.balance_hours,
                      closed_at = EXCLUDED.closed_at,
                      payroll_status = EXCLUDED.payroll_status,
                      payroll_retry_count = EXCLUDED.payroll_retry_count,
                      email_status = EXCLUDED.email_status,
                      email_retry_count = EXCLUDED.email_retry_count
              RETURNING id`

// CreateMonthClose stores a closed month with both delivery channels pending.
// Closing the same month again keeps its id and re-delivers the new figures.
func (r *TimeEntryRepository) CreateMonthClose(ctx context.Context, mc *model.MonthClose) (int64, error) {
	annotate(ctx, "app.employeeId", mc.EmployeeID)

	var id int64
	err := r.DB.QueryRowContext(ctx, upsertMonthCloseQuery,
		mc.EmployeeID, mc.Year, int(mc.Month), mc.ActualHours, mc.TheoreticalHours, mc.BalanceHours,
		mc.ClosedAt, model.StatusPending, model.StatusPending,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetMonthClose fetches a complete month_closes record by its ID.
func (r *TimeEntryRepository) GetMonthClose(ctx context.Context, id int64) (*model.MonthClose, error) {
	query := `SELECT id, employee_id, year, month, actual_hours, theoretical_hours, balance_hours, closed_at,
                     payroll_status, payroll_retry_count, email_status, email_retry_count
              FROM month_closes WHERE id = $1`

	var month int
	mc := &model.MonthClose{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&mc.ID, &mc.EmployeeID, &mc.Year, &month, &mc.ActualHours, &mc.TheoreticalHours, &mc.BalanceHours, &mc.ClosedAt,
		&mc.PayrollStatus, &mc.PayrollRetryCount, &mc.EmailStatus, &mc.EmailRetryCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	mc.Month = time.Month(month)
	return mc, nil
}

// UpdatePayrollStatus updates the status and retry count of the payroll delivery.
func (r *TimeEntryRepository) UpdatePayrollStatus(ctx context.Context, id int64, status model.MonthCloseStatus, retryCount int) error {
	query := `UPDATE month_closes SET payroll_status = $1, payroll_retry_count = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, retryCount, id)
	return err
}

// UpdateEmailStatus updates the status and retry count of the e-mail delivery.
func (r *TimeEntryRepository) UpdateEmailStatus(ctx context.Context, id int64, status model.MonthCloseStatus, retryCount int) error {
	query := `UPDATE month_closes SET email_status = $1, email_retry_count = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, retryCount, id)
	return err
}
