package hours

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHours(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{0, "0h 0m"},
		{8, "8h 0m"},
		{7.5, "7h 30m"},
		{1.0 / 60, "0h 1m"},
		{2.9999, "2h 59m"},
		{25.25, "25h 15m"},
		{-3, "0h 0m"},
		{math.NaN(), "0h 0m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatHours(tt.in))
	}
}

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{0, "+0h 0m"},
		{1, "+1h 0m"},
		{-1.5, "-1h 30m"},
		{-0.001, "+0h 0m"},
		{12.75, "+12h 45m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBalance(tt.in))
	}
}
