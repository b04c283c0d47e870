package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spent/internal/importer"
	"github.com/cleared-dev/spent/internal/journal"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Record every row of the CSV files in import/",
		Long: "Each file in import/ needs a header with amount, category and date columns " +
			"(note is optional). Rows are submitted one by one; rejected rows are reported " +
			"and skipped. Processed files move to import/processed/.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := openBook(ctx, opts)
			if err != nil {
				return err
			}
			defer b.Close()

			files, err := importer.Scan(b.dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "Nothing to import")
				return nil
			}

			var res importResult
			err = b.importFiles(ctx, out, files, &res)
			b.flushActivity()
			if err != nil {
				// Whatever was recorded or moved before the failure stays.
				b.commit(ctx, fmt.Sprintf("import: %s (partial)", plural(res.recorded, "expense")))
				fmt.Fprintf(out, "Imported %s before stopping, rejected %d\n", plural(res.recorded, "expense"), res.rejected)
				return b.userError(err)
			}

			b.commit(ctx, fmt.Sprintf("import: %s from %s", plural(res.recorded, "expense"), plural(res.files, "file")))
			fmt.Fprintf(out, "Imported %s, rejected %d\n", plural(res.recorded, "expense"), res.rejected)
			return nil
		},
	}
}

type importResult struct {
	recorded int
	rejected int
	files    int
}

// importFiles submits every row of files in order. It stops at the first
// unreadable file or storage failure; the file being worked on then stays in
// import/ so it can be retried.
func (b *book) importFiles(ctx context.Context, out io.Writer, files []importer.FileInfo, res *importResult) error {
	for _, f := range files {
		b.logger.Debug("importing file", "file", f.Name, "bytes", f.Size)
		rows, err := importer.ReadFile(f.Path)
		if err != nil {
			return err
		}
		for _, row := range rows {
			b.source = fmt.Sprintf("import:%s:%d", f.Name, row.Line)
			_, err := b.svc.Submit(ctx, row.Raw)
			var verr *journal.ValidationError
			switch {
			case err == nil:
				res.recorded++
			case errors.As(err, &verr):
				res.rejected++
				fmt.Fprintf(out, "%s:%d: %v\n", f.Name, row.Line, verr)
			default:
				return err
			}
		}
		if err := importer.MarkProcessed(b.dir, f.Name); err != nil {
			return err
		}
		res.files++
		b.logger.Info("imported file", "file", f.Name, "rows", len(rows))
	}
	return nil
}
