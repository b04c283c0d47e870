package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spent/internal/model"
)

func newTotalCommand(opts *globalOptions) *cobra.Command {
	var all, verify bool

	cmd := &cobra.Command{
		Use:   "total [YYYY-MM]",
		Short: "Show the running total for a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := model.MonthKeyOf(time.Now())
			if len(args) > 0 {
				k, err := model.ParseMonthKey(args[0])
				if err != nil {
					return err
				}
				key = k
			}

			b, err := openBook(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer b.Close()

			months := []model.MonthlyTotal{b.svc.Ledger().MonthlyTotal(key)}
			if all {
				months = b.svc.Ledger().Months()
			}

			out := cmd.OutOrStdout()
			for _, mt := range months {
				if verify {
					if err := b.verifyMonth(cmd.Context(), mt); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "%s: %s (%s)\n", mt.Month, b.money(mt.Total), plural(mt.Count, "expense"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "show every month with expenses")
	cmd.Flags().BoolVar(&verify, "verify", false, "recompute each total from storage and fail on a mismatch")

	return cmd
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
