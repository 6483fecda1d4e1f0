// Package cli implements the balancectl command line tool.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fichaje.balance/internal/core/model"
)

var (
	version = "dev"
	commit  = "none"
)

// Service is the part of the report service the commands use.
type Service interface {
	MonthlyBalance(ctx context.Context, employeeID string, year int, month time.Month) (model.MonthlyBalance, error)
	CompanyBalances(ctx context.Context, companyID, departmentID string, year int, month time.Month) ([]model.MonthlyBalance, error)
	CloseMonth(ctx context.Context, employeeID string, year int, month time.Month, now time.Time) (*model.MonthClose, error)
	WorkedToday(ctx context.Context, employeeID string, now time.Time) (float64, error)
}

// Opener connects to the backing services on demand so offline commands
// run without a database. The returned func releases the connections.
type Opener func(ctx context.Context) (Service, func(), error)

// SetVersion sets the version information.
func SetVersion(v, c string) {
	version, commit = v, c
}

// NewRootCmd builds the command tree. now is the clock used for live and
// close commands.
func NewRootCmd(open Opener, now func() time.Time) *cobra.Command {
	root := &cobra.Command{
		Use:   "balancectl",
		Short: "Worked hours balances from the command line",
		Long: `balancectl reconciles clock events against work schedules.
Print monthly balances, export them to Excel and close months for payroll.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newBalanceCmd(open),
		newExportCmd(open),
		newWorkedTodayCmd(open, now),
		newCloseCmd(open, now),
		newRangesCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "balancectl %s (%s)\n", version, commit)
			},
		},
	)
	return root
}

// withService opens the service for the duration of fn.
func withService(cmd *cobra.Command, open Opener, fn func(Service) error) error {
	svc, closeFn, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc)
}

func parsePeriod(yearArg, monthArg string) (int, time.Month, error) {
	year, err := strconv.Atoi(yearArg)
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("invalid year '%s'", yearArg)
	}
	month, err := strconv.Atoi(monthArg)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month '%s'", monthArg)
	}
	return year, time.Month(month), nil
}
