package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spent/internal/model"
)

func newListCommand(opts *globalOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBook(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer b.Close()

			l := b.svc.Ledger()
			expenses := l.All()
			if month != "" {
				key, err := model.ParseMonthKey(month)
				if err != nil {
					return err
				}
				expenses = l.Entries(key)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tNOTE")
			for _, e := range expenses {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date.Format("2006-01-02"), e.Amount.StringFixed(2), e.Category, e.Note)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")

	return cmd
}
