package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fichaje.balance/internal/core/hours"
	"fichaje.balance/internal/core/model"
	"fichaje.balance/internal/export"
)

func newBalanceCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [employee-id] [year] [month]",
		Short: "Print the monthly balance of an employee",
		Long: `Print the day by day balance of an employee for a month.

Examples:
  balancectl balance 42 2024 1`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parsePeriod(args[1], args[2])
			if err != nil {
				return err
			}
			return withService(cmd, open, func(svc Service) error {
				mb, err := svc.MonthlyBalance(cmd.Context(), args[0], year, month)
				if err != nil {
					return err
				}
				return printBalance(cmd.OutOrStdout(), mb)
			})
		},
	}
}

func printBalance(out io.Writer, mb model.MonthlyBalance) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Fecha\tDía\tTrabajadas\tTeóricas\tSaldo\n")
	for _, d := range mb.Days {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			d.Date, model.WeekdayOf(d.Date),
			hours.FormatHours(d.ActualHours), hours.FormatHours(d.TheoreticalHours), hours.FormatBalance(d.BalanceHours))
	}
	fmt.Fprintf(tw, "Total\t\t%s\t%s\t%s\n",
		hours.FormatHours(mb.ActualHours), hours.FormatHours(mb.TheoreticalHours), hours.FormatBalance(mb.BalanceHours))
	return tw.Flush()
}

func newExportCmd(open Opener) *cobra.Command {
	var output, department string

	cmd := &cobra.Command{
		Use:   "export [company-id] [year] [month]",
		Short: "Export the monthly balances of a company to an XLSX file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parsePeriod(args[1], args[2])
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("saldos-%d-%02d.xlsx", year, int(month))
			}
			return withService(cmd, open, func(svc Service) error {
				balances, err := svc.CompanyBalances(cmd.Context(), args[0], department, year, month)
				if err != nil {
					return err
				}

				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := export.WriteMonthlyBalances(f, balances); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d balances to %s\n", len(balances), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default saldos-YYYY-MM.xlsx)")
	cmd.Flags().StringVar(&department, "department", "", "restrict to a department id")
	return cmd
}

func newWorkedTodayCmd(open Opener, now func() time.Time) *cobra.Command {
	return &cobra.Command{
		Use:   "worked-today [employee-id]",
		Short: "Print the hours worked today, including a running session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(svc Service) error {
				h, err := svc.WorkedToday(cmd.Context(), args[0], now())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hours.FormatHours(h))
				return nil
			})
		},
	}
}

func newCloseCmd(open Opener, now func() time.Time) *cobra.Command {
	return &cobra.Command{
		Use:   "close [employee-id] [year] [month]",
		Short: "Close a month and queue it for payroll and e-mail",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parsePeriod(args[1], args[2])
			if err != nil {
				return err
			}
			return withService(cmd, open, func(svc Service) error {
				mc, err := svc.CloseMonth(cmd.Context(), args[0], year, month, now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Closed month %d (balance %s)\n", mc.ID, hours.FormatBalance(mc.BalanceHours))
				return nil
			})
		},
	}
}

func newRangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranges [text]",
		Short: "Print the hours of a schedule range list",
		Long: `Print the hours of a comma separated list of HH:MM-HH:MM ranges, as
stored in a specific schedule.

Examples:
  balancectl ranges "09:00-14:00,15:00-18:00"   # 8h 0m`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), hours.FormatHours(hours.ParseRanges(args[0])))
		},
	}
}
