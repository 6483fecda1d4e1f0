// Package export renders monthly balances as spreadsheets.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"fichaje.balance/internal/core/hours"
	"fichaje.balance/internal/core/model"
)

const (
	SummarySheet = "Resumen"
	DaysSheet    = "Días"

	// ContentType is the MIME type of the XLSX output.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	summaryHeader = []interface{}{"Empleado", "Año", "Mes", "Horas trabajadas", "Horas teóricas", "Saldo (h)", "Saldo"}
	daysHeader    = []interface{}{"Empleado", "Fecha", "Día", "Horas trabajadas", "Horas teóricas", "Saldo (h)"}
)

// WriteMonthlyBalances writes one summary row per balance and one row per
// included day. Rows are labelled with the employee's name, or the id when
// the balance carries no name.
func WriteMonthlyBalances(w io.Writer, balances []model.MonthlyBalance) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(DaysSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeHeader(f, SummarySheet, summaryHeader, bold); err != nil {
		return err
	}
	if err := writeHeader(f, DaysSheet, daysHeader, bold); err != nil {
		return err
	}

	dayRow := 2
	for i, mb := range balances {
		name := mb.SubjectName
		if name == "" {
			name = mb.SubjectID
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SummarySheet, cell, &[]interface{}{
			name, mb.Year, int(mb.Month),
			round(mb.ActualHours), round(mb.TheoreticalHours), round(mb.BalanceHours),
			hours.FormatBalance(mb.BalanceHours),
		}); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}

		for _, day := range mb.Days {
			cell, _ := excelize.CoordinatesToCellName(1, dayRow)
			if err := f.SetSheetRow(DaysSheet, cell, &[]interface{}{
				name, day.Date.String(), model.WeekdayOf(day.Date).String(),
				round(day.ActualHours), round(day.TheoreticalHours), round(day.BalanceHours),
			}); err != nil {
				return fmt.Errorf("failed to write day row: %w", err)
			}
			dayRow++
		}
	}

	if err := f.SetColWidth(SummarySheet, "A", "A", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(DaysSheet, "A", "A", 30); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []interface{}, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

// round keeps two decimals so cells don't show float noise.
func round(h float64) float64 {
	return math.Round(h*100) / 100
}
