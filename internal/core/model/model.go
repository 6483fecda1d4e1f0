package model

import (
	"time"

	"cloud.google.com/go/civil"
)

// Action is the kind of a recorded clock event.
type Action int

const (
	ActionUnknown Action = iota
	ActionClockIn
	ActionPause
	ActionResume
	ActionClockOut
)

// ClockEvent is one action recorded by the time clock for an employee.
type ClockEvent struct {
	ID         string    `json:"id"`
	SubjectID  string    `json:"employeeId"`
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	ClientName string    `json:"clientName,omitempty"`
}

// ScheduleKind selects how theoretical hours are derived from a schedule.
type ScheduleKind int

const (
	ScheduleOpen ScheduleKind = iota
	ScheduleSpecific
)

// Weekday is a Monday-first day of the week.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf returns the Monday-first weekday of a calendar date.
func WeekdayOf(d civil.Date) Weekday {
	wd := d.In(time.UTC).Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd - 1)
}

// IsWorkday reports whether the day falls between Monday and Friday.
func (w Weekday) IsWorkday() bool {
	return w >= Monday && w <= Friday
}

// ScheduleDefinition describes the expected work time of an employee.
type ScheduleDefinition struct {
	Name          string             `json:"name"`
	Kind          ScheduleKind       `json:"kind"`
	HoursPerWeek  float64            `json:"hoursPerWeek"`
	WeekdayRanges map[Weekday]string `json:"weekdayRanges,omitempty"`
}

// DayBalance is the reconciliation of one employee on one calendar date.
type DayBalance struct {
	Date             civil.Date `json:"date"`
	ActualHours      float64    `json:"actualHours"`
	TheoreticalHours float64    `json:"theoreticalHours"`
	BalanceHours     float64    `json:"balanceHours"`
}

// MonthlyBalance sums the included days of one employee for a month.
type MonthlyBalance struct {
	SubjectID        string       `json:"employeeId"`
	SubjectName      string       `json:"employeeName,omitempty"`
	Year             int          `json:"year"`
	Month            time.Month   `json:"month"`
	Days             []DayBalance `json:"days"`
	ActualHours      float64      `json:"actualHours"`
	TheoreticalHours float64      `json:"theoreticalHours"`
	BalanceHours     float64      `json:"balanceHours"`
}

// MonthCloseStatus defines the state of a closed month on a delivery channel.
type MonthCloseStatus string

const (
	StatusPending    MonthCloseStatus = "PENDING"
	StatusProcessing MonthCloseStatus = "PROCESSING"
	StatusCompleted  MonthCloseStatus = "COMPLETED"
	StatusFailed     MonthCloseStatus = "FAILED"
)

// MonthClose is a persisted monthly balance awaiting payroll and e-mail delivery.
type MonthClose struct {
	ID                int64            `json:"id"`
	EmployeeID        string           `json:"employeeId"`
	Year              int              `json:"year"`
	Month             time.Month       `json:"month"`
	ActualHours       float64          `json:"actualHours"`
	TheoreticalHours  float64          `json:"theoreticalHours"`
	BalanceHours      float64          `json:"balanceHours"`
	ClosedAt          time.Time        `json:"closedAt"`
	PayrollStatus     MonthCloseStatus `json:"payrollStatus"`
	EmailStatus       MonthCloseStatus `json:"emailStatus"`
	PayrollRetryCount int              `json:"payrollRetryCount"`
	EmailRetryCount   int              `json:"emailRetryCount"`
}

// Employee is the subset of employee data the reports need.
type Employee struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	DepartmentID string `json:"departmentId,omitempty"`
	VacationDays int    `json:"vacationDays"`
}

// VacationRequest is an approved vacation period, both ends inclusive.
type VacationRequest struct {
	EmployeeID string     `json:"employeeId"`
	StartDate  civil.Date `json:"startDate"`
	EndDate    civil.Date `json:"endDate"`
}
