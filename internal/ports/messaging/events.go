package messaging

import "time"

// MonthClosedEvent is the JSON payload sent via SQS to the payroll and e-mail
// queues once a month has been closed for an employee.
type MonthClosedEvent struct {
	MonthCloseID     int64     `json:"monthCloseId"`
	EmployeeID       string    `json:"employeeId"`
	Year             int       `json:"year"`
	Month            int       `json:"month"`
	ActualHours      float64   `json:"actualHours"`
	TheoreticalHours float64   `json:"theoreticalHours"`
	BalanceHours     float64   `json:"balanceHours"`
	ClosedAt         time.Time `json:"closedAt"`
}
