package hours

import (
	"fmt"
	"math"
)

// FormatHours renders fractional hours as "Hh Mm", truncated to whole minutes.
// Negative input renders as zero.
func FormatHours(h float64) string {
	if math.IsNaN(h) || h <= 0 {
		return "0h 0m"
	}
	minutes := int64(math.Floor(h*60 + 1e-9))
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatBalance renders a signed balance as "+Hh Mm" or "-Hh Mm". A zero
// balance is "+0h 0m".
func FormatBalance(h float64) string {
	sign := "+"
	if h < 0 {
		sign = "-"
		h = -h
	}
	s := FormatHours(h)
	if s == "0h 0m" {
		sign = "+"
	}
	return sign + s
}
