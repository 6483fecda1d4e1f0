package hours

import (
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"fichaje.balance/internal/core/model"
)

// workdaysPerWeek spreads an open schedule's weekly hours over Monday-Friday.
const workdaysPerWeek = 5

// TheoreticalHours returns the hours the schedule expects on date. A nil
// schedule expects nothing.
func TheoreticalHours(schedule *model.ScheduleDefinition, date civil.Date) float64 {
	if schedule == nil {
		return 0
	}

	weekday := model.WeekdayOf(date)

	switch schedule.Kind {
	case model.ScheduleSpecific:
		ranges, ok := schedule.WeekdayRanges[weekday]
		if !ok || strings.TrimSpace(ranges) == "" {
			return 0
		}
		return ParseRanges(ranges)
	case model.ScheduleOpen:
		if weekday.IsWorkday() {
			return schedule.HoursPerWeek / workdaysPerWeek
		}
	}
	return 0
}

// ParseRanges sums comma separated "HH:MM-HH:MM" ranges, in hours. Tokens
// that do not parse, or whose end is not after their start, are skipped.
// Ranges never wrap past midnight.
func ParseRanges(text string) float64 {
	var sum float64
	for _, token := range strings.Split(text, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		startText, endText, found := strings.Cut(token, "-")
		if !found {
			continue
		}

		start, ok := parseClock(startText)
		if !ok {
			continue
		}
		end, ok := parseClock(endText)
		if !ok {
			continue
		}

		if end <= start {
			continue
		}
		sum += end - start
	}
	return sum
}

// parseClock converts a 24-hour "HH:MM" into fractional hours. Hours run
// 0-24 and minutes 0-59; "24:00" is the only clock past 23:59.
func parseClock(s string) (float64, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, false
	}
	h, ok := parseDigits(strings.TrimSpace(hh))
	if !ok || h > 24 {
		return 0, false
	}
	m, ok := parseDigits(strings.TrimSpace(mm))
	if !ok || m > 59 || (h == 24 && m != 0) {
		return 0, false
	}
	return float64(h) + float64(m)/60, true
}

// parseDigits accepts one or two decimal digits and nothing else, so signs
// and spaces that strconv.Atoi tolerates are rejected.
func parseDigits(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
