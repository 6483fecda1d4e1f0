package hours

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"fichaje.balance/internal/core/model"
)

// Aggregator builds day and month balances. Events are bucketed into
// calendar dates in Location; a nil Location means UTC.
type Aggregator struct {
	Location *time.Location
	// Concurrency bounds Balances. Zero or less means one goroutine per subject.
	Concurrency int
}

// NewAggregator returns an Aggregator evaluating dates in loc.
func NewAggregator(loc *time.Location) *Aggregator {
	return &Aggregator{Location: loc}
}

func (a *Aggregator) location() *time.Location {
	if a == nil || a.Location == nil {
		return time.UTC
	}
	return a.Location
}

// DateOf returns the calendar date of t in the evaluation timezone.
func (a *Aggregator) DateOf(t time.Time) civil.Date {
	return civil.DateOf(t.In(a.location()))
}

// eventsOn keeps the events whose calendar date is date.
func (a *Aggregator) eventsOn(events []model.ClockEvent, date civil.Date) []model.ClockEvent {
	var out []model.ClockEvent
	for _, ev := range events {
		if a.DateOf(ev.Timestamp) == date {
			out = append(out, ev)
		}
	}
	return out
}

// DailyBalance reconciles the closed sessions of date against the schedule.
// The second result is false when both actual and theoretical hours are zero:
// such a day is excluded from reports, not counted as a zero balance.
func (a *Aggregator) DailyBalance(events []model.ClockEvent, schedule *model.ScheduleDefinition, date civil.Date) (model.DayBalance, bool) {
	actual := WorkedHours(a.eventsOn(events, date))
	theoretical := TheoreticalHours(schedule, date)

	if actual == 0 && theoretical == 0 {
		return model.DayBalance{}, false
	}

	return model.DayBalance{
		Date:             date,
		ActualHours:      actual,
		TheoreticalHours: theoretical,
		BalanceHours:     actual - theoretical,
	}, true
}

// DaysInMonth returns the number of days of month in year.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthlyBalance sums the included day balances of one subject for a month.
func (a *Aggregator) MonthlyBalance(subjectID string, events []model.ClockEvent, schedule *model.ScheduleDefinition, year int, month time.Month) model.MonthlyBalance {
	mb := model.MonthlyBalance{
		SubjectID: subjectID,
		Year:      year,
		Month:     month,
		Days:      []model.DayBalance{},
	}

	byDate := make(map[civil.Date][]model.ClockEvent)
	for _, ev := range events {
		d := a.DateOf(ev.Timestamp)
		if d.Year == year && d.Month == month {
			byDate[d] = append(byDate[d], ev)
		}
	}

	for day := 1; day <= DaysInMonth(year, month); day++ {
		date := civil.Date{Year: year, Month: month, Day: day}
		db, ok := a.DailyBalance(byDate[date], schedule, date)
		if !ok {
			continue
		}
		mb.Days = append(mb.Days, db)
		mb.ActualHours += db.ActualHours
		mb.TheoreticalHours += db.TheoreticalHours
		mb.BalanceHours += db.BalanceHours
	}

	return mb
}

// SubjectInput is the already fetched data of one subject.
type SubjectInput struct {
	SubjectID string
	Events    []model.ClockEvent
	Schedule  *model.ScheduleDefinition
}

// Balances computes MonthlyBalance for every subject concurrently. Results
// keep the order of subjects. Only cancellation of ctx produces an error.
func (a *Aggregator) Balances(ctx context.Context, subjects []SubjectInput, year int, month time.Month) ([]model.MonthlyBalance, error) {
	results := make([]model.MonthlyBalance, len(subjects))

	g, ctx := errgroup.WithContext(ctx)
	if a != nil && a.Concurrency > 0 {
		g.SetLimit(a.Concurrency)
	}

	for i, s := range subjects {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = a.MonthlyBalance(s.SubjectID, s.Events, s.Schedule, year, month)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
