package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tengebook-dev/tengebook/internal/ledger"
	"github.com/tengebook-dev/tengebook/internal/report"
)

func newReportCommand() *cobra.Command {
	var walletID int
	var period string
	var from string
	var to string
	var category string
	var current bool
	var monthly bool
	var year int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show balance and profit reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			rates := rateService(cfg, current)
			svc := ledger.NewService(store, rates)

			rep, err := svc.BuildReport(walletID)
			if err != nil {
				return err
			}
			switch {
			case from != "" || to != "":
				if from == "" {
					return fmt.Errorf("--to requires --from")
				}
				rep, err = rep.FilterByPeriodRange(from, to)
			case period != "":
				rep, err = rep.FilterByPeriod(period)
			}
			if err != nil {
				return err
			}
			if category != "" {
				rep = rep.FilterByCategory(category)
			}

			if monthly {
				y, rows := rep.MonthlyIncomeExpenseRows(year, 0)
				fmt.Printf("Monthly income/expense for %d:\n", y)
				for _, row := range rows {
					fmt.Printf("  %s  income %14s  expense %14s  net %14s\n",
						row.Month, row.Income, row.Expense, row.Net)
				}
				return nil
			}

			if rep.PeriodStart() != "" {
				fmt.Printf("Period: %s .. %s\n", rep.PeriodStart(), rep.PeriodEnd())
				fmt.Printf("Opening balance: %s\n", rep.InitialBalance())
			}
			fmt.Printf("Total (fixed): %s\n", rep.TotalFixed())
			fmt.Printf("Net profit: %s\n", rep.NetProfitFixed())

			if current {
				totalCurrent, err := rep.TotalCurrent(rates)
				if err != nil {
					return err
				}
				fxDiff, err := rep.FXDifference(rates)
				if err != nil {
					return err
				}
				fmt.Printf("Total (current rates): %s\n", totalCurrent)
				fmt.Printf("FX difference: %s\n", fxDiff)
			}

			if category == "" {
				for _, group := range rep.GroupedByCategory() {
					fmt.Printf("  %-24s %14s\n", group.Category, group.Report.NetProfitFixed())
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&walletID, "wallet", report.AllWallets, "scope to one wallet id (0 = all)")
	cmd.Flags().StringVar(&period, "period", "", `ISO date prefix filter ("2025", "2025-01", "2025-01-15")`)
	cmd.Flags().StringVar(&from, "from", "", "period range start prefix")
	cmd.Flags().StringVar(&to, "to", "", "period range end prefix (default today)")
	cmd.Flags().StringVar(&category, "category", "", "filter to one category")
	cmd.Flags().BoolVar(&current, "current", false, "also value at current rates (fetches the rate feed)")
	cmd.Flags().BoolVar(&monthly, "monthly", false, "monthly income/expense rows instead of totals")
	cmd.Flags().IntVar(&year, "year", 0, "year for --monthly (0 = latest in data)")

	return cmd
}
