package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Literals stored by the time clock and the schedule editor.
const (
	LiteralClockIn  = "Entrada"
	LiteralPause    = "Pausa"
	LiteralResume   = "Reanudar"
	LiteralClockOut = "Salida"

	LiteralScheduleOpen     = "Abierto"
	LiteralScheduleSpecific = "Específico"

	LiteralVacation = "Vacaciones"
)

var weekdayNames = [...]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

// fold lowercases s and strips diacritics so "Miércoles" matches "miercoles".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return cases.Fold().String(out)
}

// ParseAction maps a stored action literal onto an Action.
func ParseAction(s string) Action {
	switch fold(s) {
	case fold(LiteralClockIn):
		return ActionClockIn
	case fold(LiteralPause):
		return ActionPause
	case fold(LiteralResume):
		return ActionResume
	case fold(LiteralClockOut):
		return ActionClockOut
	}
	return ActionUnknown
}

// String returns the stored literal of the action.
func (a Action) String() string {
	switch a {
	case ActionClockIn:
		return LiteralClockIn
	case ActionPause:
		return LiteralPause
	case ActionResume:
		return LiteralResume
	case ActionClockOut:
		return LiteralClockOut
	}
	return "Desconocido"
}

// MarshalText encodes the action as its stored literal.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes a stored literal.
func (a *Action) UnmarshalText(b []byte) error {
	*a = ParseAction(string(b))
	return nil
}

// ParseScheduleKind maps a stored schedule type. Anything that is not a
// specific schedule is treated as open.
func ParseScheduleKind(s string) ScheduleKind {
	if fold(s) == fold(LiteralScheduleSpecific) {
		return ScheduleSpecific
	}
	return ScheduleOpen
}

// String returns the stored literal of the schedule kind.
func (k ScheduleKind) String() string {
	if k == ScheduleSpecific {
		return LiteralScheduleSpecific
	}
	return LiteralScheduleOpen
}

// MarshalText encodes the schedule kind as its stored literal.
func (k ScheduleKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a stored schedule kind literal.
func (k *ScheduleKind) UnmarshalText(b []byte) error {
	*k = ParseScheduleKind(string(b))
	return nil
}

// ParseWeekdayName maps a Spanish weekday name (Lunes..Domingo).
func ParseWeekdayName(s string) (Weekday, bool) {
	f := fold(s)
	for i, name := range weekdayNames {
		if fold(name) == f {
			return Weekday(i), true
		}
	}
	return 0, false
}

// String returns the Spanish name of the weekday.
func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return ""
	}
	return weekdayNames[w]
}

// MarshalText encodes the weekday as its Spanish name, so weekday-keyed
// maps serialize with the same keys the schedule editor stores.
func (w Weekday) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText decodes a Spanish weekday name.
func (w *Weekday) UnmarshalText(b []byte) error {
	d, ok := ParseWeekdayName(string(b))
	if !ok {
		return &UnknownWeekdayError{Name: string(b)}
	}
	*w = d
	return nil
}

// UnknownWeekdayError is returned when a weekday name cannot be mapped.
type UnknownWeekdayError struct {
	Name string
}

func (e *UnknownWeekdayError) Error() string {
	return "unknown weekday name: " + e.Name
}

// NewScheduleDefinition builds a schedule from the stored representation.
// Detail keys that are not weekday names are dropped.
func NewScheduleDefinition(name, kind string, hoursPerWeek float64, details map[string]string) *ScheduleDefinition {
	s := &ScheduleDefinition{
		Name:         name,
		Kind:         ParseScheduleKind(kind),
		HoursPerWeek: hoursPerWeek,
	}
	if len(details) > 0 {
		s.WeekdayRanges = make(map[Weekday]string, len(details))
		for k, v := range details {
			if wd, ok := ParseWeekdayName(k); ok {
				s.WeekdayRanges[wd] = v
			}
		}
	}
	return s
}
