package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spent/internal/model"
)

func newAddCommand(opts *globalOptions) *cobra.Command {
	var raw model.RawExpense

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record an expense",
		Example: `  spent add --amount 45.90 --category Groceries --date 2026-02-10 --note "Food4Less run"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := openBook(ctx, opts)
			if err != nil {
				return err
			}
			defer b.Close()

			if raw.Date == "" {
				raw.Date = time.Now().Format(b.cfg.Validation.DateLayout)
			}

			b.source = "add"
			conf, err := b.svc.Submit(ctx, raw)
			b.flushActivity()
			if err != nil {
				return b.userError(err)
			}

			b.commit(ctx, fmt.Sprintf("expense: %s %s", conf.ID, conf.Month))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved %s\n", conf.ID)
			fmt.Fprintf(out, "Month: %s\n", conf.Month)
			fmt.Fprintf(out, "Total: %s\n", b.money(conf.MonthlyTotal))
			return nil
		},
	}

	cmd.Flags().StringVar(&raw.Amount, "amount", "", "amount, e.g. 45.90")
	cmd.Flags().StringVar(&raw.Category, "category", "", "category, e.g. Groceries")
	cmd.Flags().StringVar(&raw.Date, "date", "", "date the expense happened, in the book's date layout (default today)")
	cmd.Flags().StringVar(&raw.Note, "note", "", "optional note")

	return cmd
}
