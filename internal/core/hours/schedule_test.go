package hours

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"

	"fichaje.balance/internal/core/model"
)

func TestParseRanges(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{name: "Split shift", text: "09:00-13:00, 14:00-18:00", expected: 8},
		{name: "No spaces", text: "09:00-13:00,14:00-17:00", expected: 7},
		{name: "Minutes", text: "08:30-14:15", expected: 5.75},
		{name: "Non-positive range skipped", text: "09:00-08:00, 14:00-18:00", expected: 4},
		{name: "Empty range skipped", text: "09:00-09:00", expected: 0},
		{name: "Missing end", text: "09:00-, 10:00-11:00", expected: 1},
		{name: "Missing dash", text: "09:00 13:00", expected: 0},
		{name: "Not numeric", text: "ab:00-13:00, 15:00-16:xx", expected: 0},
		{name: "Missing minutes", text: "9-13", expected: 0},
		{name: "Empty", text: "", expected: 0},
		{name: "Only separators", text: " , ,", expected: 0},
		{name: "Overnight not supported", text: "22:00-06:00", expected: 0},
		{name: "Single digit hour", text: "7:00-9:30", expected: 2.5},
		{name: "Hour past midnight skipped", text: "09:00-25:00, 10:00-11:00", expected: 1},
		{name: "Minute out of range skipped", text: "09:00-10:60", expected: 0},
		{name: "Signed hour skipped", text: "+9:00-10:00", expected: 0},
		{name: "Three digit minute skipped", text: "09:000-10:00", expected: 0},
		{name: "End of day", text: "18:00-24:00", expected: 6},
		{name: "Past end of day skipped", text: "18:00-24:30", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ParseRanges(tt.text), 1e-9)
		})
	}
}

func TestTheoreticalHours(t *testing.T) {
	monday := civil.Date{Year: 2024, Month: 1, Day: 15}
	wednesday := civil.Date{Year: 2024, Month: 1, Day: 17}
	saturday := civil.Date{Year: 2024, Month: 1, Day: 20}
	sunday := civil.Date{Year: 2024, Month: 1, Day: 21}

	open := &model.ScheduleDefinition{Kind: model.ScheduleOpen, HoursPerWeek: 40}
	specific := &model.ScheduleDefinition{
		Kind:         model.ScheduleSpecific,
		HoursPerWeek: 40,
		WeekdayRanges: map[model.Weekday]string{
			model.Monday:   "09:00-13:00,14:00-17:00",
			model.Saturday: "10:00-12:00",
			model.Sunday:   "   ",
		},
	}

	tests := []struct {
		name     string
		schedule *model.ScheduleDefinition
		date     civil.Date
		expected float64
	}{
		{name: "No schedule", schedule: nil, date: monday, expected: 0},
		{name: "Open on Wednesday", schedule: open, date: wednesday, expected: 8},
		{name: "Open on Saturday", schedule: open, date: saturday, expected: 0},
		{name: "Open on Sunday", schedule: open, date: sunday, expected: 0},
		{name: "Specific on Monday", schedule: specific, date: monday, expected: 7},
		{name: "Specific weekend entry", schedule: specific, date: saturday, expected: 2},
		{name: "Specific blank entry", schedule: specific, date: sunday, expected: 0},
		{name: "Specific missing weekday", schedule: specific, date: wednesday, expected: 0},
		{
			name:     "Specific ignores weekly hours",
			schedule: &model.ScheduleDefinition{Kind: model.ScheduleSpecific, HoursPerWeek: 40},
			date:     wednesday,
			expected: 0,
		},
		{
			name:     "Open part time",
			schedule: &model.ScheduleDefinition{Kind: model.ScheduleOpen, HoursPerWeek: 20},
			date:     monday,
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, TheoreticalHours(tt.schedule, tt.date), 1e-9)
		})
	}
}
