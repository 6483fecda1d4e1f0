// Package hours reconciles clock events against schedule definitions.
//
// Every function in this package is pure: inputs are never mutated, no clock is
// read and no error is returned. Malformed input degrades to zero contributions.
package hours

import (
	"sort"
	"time"

	"fichaje.balance/internal/core/model"
)

// WorkSession is a maximal period between a start event (clock-in or resume)
// and the next stop event (pause or clock-out).
type WorkSession struct {
	Start time.Time
	End   time.Time
	// Open is set when no stop event followed Start. End is then the
	// evaluation instant, or Start when evaluated without one.
	Open bool
}

// Duration is End - Start, never negative.
func (s WorkSession) Duration() time.Duration {
	if d := s.End.Sub(s.Start); d > 0 {
		return d
	}
	return 0
}

// sortEvents returns a copy of events in ascending timestamp order. Events
// with equal timestamps keep their relative order.
func sortEvents(events []model.ClockEvent) []model.ClockEvent {
	sorted := make([]model.ClockEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// Sessions folds events into work sessions. A trailing open session is
// measured up to now; pass the zero time to report it with no duration.
//
// Idle --(clock-in|resume)--> Working --(pause|clock-out)--> Idle. Start
// events while working and stop events while idle are ignored, so a repeated
// clock-in does not reset the running session.
func Sessions(events []model.ClockEvent, now time.Time) []WorkSession {
	var (
		sessions     []WorkSession
		isWorking    bool
		sessionStart time.Time
	)

	for _, ev := range sortEvents(events) {
		switch ev.Action {
		case model.ActionClockIn, model.ActionResume:
			if !isWorking {
				sessionStart = ev.Timestamp
				isWorking = true
			}
		case model.ActionPause, model.ActionClockOut:
			if isWorking {
				sessions = append(sessions, WorkSession{Start: sessionStart, End: ev.Timestamp})
				isWorking = false
				sessionStart = time.Time{}
			}
		}
	}

	if isWorking {
		end := sessionStart
		if !now.IsZero() && now.After(sessionStart) {
			end = now
		}
		sessions = append(sessions, WorkSession{Start: sessionStart, End: end, Open: true})
	}

	return sessions
}

// WorkedHours returns the hours of closed sessions only. An unterminated
// session contributes nothing; this is the figure used by historical reports.
func WorkedHours(events []model.ClockEvent) float64 {
	return total(Sessions(events, time.Time{}), false)
}

// WorkedHoursLive is WorkedHours plus the time elapsed in an open session up
// to now. Live dashboards use it to show hours so far.
func WorkedHoursLive(events []model.ClockEvent, now time.Time) float64 {
	return total(Sessions(events, now), true)
}

func total(sessions []WorkSession, includeOpen bool) float64 {
	var d time.Duration
	for _, s := range sessions {
		if s.Open && !includeOpen {
			continue
		}
		d += s.Duration()
	}
	return d.Hours()
}
