package export

import (
	"bytes"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fichaje.balance/internal/core/model"
)

func TestWriteMonthlyBalances(t *testing.T) {
	balances := []model.MonthlyBalance{
		{
			SubjectID: "e1", SubjectName: "Ana", Year: 2024, Month: time.January,
			ActualHours: 8.5, TheoreticalHours: 8, BalanceHours: 0.5,
			Days: []model.DayBalance{{
				Date:        civil.Date{Year: 2024, Month: time.January, Day: 15},
				ActualHours: 8.5, TheoreticalHours: 8, BalanceHours: 0.5,
			}},
		},
		{SubjectID: "e2", Year: 2024, Month: time.January, Days: []model.DayBalance{}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMonthlyBalances(&buf, balances))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "Empleado", summary[0][0])
	assert.Equal(t, []string{"Ana", "2024", "1", "8.5", "8", "0.5", "+0h 30m"}, summary[1])
	assert.Equal(t, "e2", summary[2][0])

	days, err := f.GetRows(DaysSheet)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, []string{"Ana", "2024-01-15", "Lunes", "8.5", "8", "0.5"}, days[1])
}
