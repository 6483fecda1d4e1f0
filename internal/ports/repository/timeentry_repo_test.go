package repository

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpsertMonthCloseRestartsDeliveries(t *testing.T) {
	set := upsertMonthCloseQuery[strings.Index(upsertMonthCloseQuery, "DO UPDATE"):]

	for _, column := range []string{"payroll_status", "payroll_retry_count", "email_status", "email_retry_count"} {
		t.Run(column, func(t *testing.T) {
			assert.Regexp(t, regexp.MustCompile(`\b`+column+` = EXCLUDED\.`+column+`\b`), set)
		})
	}
	assert.Contains(t, upsertMonthCloseQuery, "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, 0)")
}
