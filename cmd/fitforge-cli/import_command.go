package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <export.csv|export.csv.gz|->",
		Short: "Import an Alpha Progression CSV export as workouts",
		Long: "Import an Alpha Progression CSV export. Each session becomes a completed\n" +
			"workout; sessions already logged at the same time are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			export, closeFn, err := openExport(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := ctx.client().ImportAlpha(cmd.Context(), 0, export)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d of %d sessions (%d sets, %d warmups skipped, %d sessions skipped)\n",
				res.WorkoutsImported, res.SessionsReceived, res.SetsImported, res.WarmupsSkipped, res.WorkoutsSkipped)
			if len(res.Unmatched) > 0 {
				fmt.Fprintln(out, "No library match, sets dropped:", strings.Join(res.Unmatched, ", "))
			}
			return nil
		},
	}
}

// openExport opens a plain or gzip-compressed export, or stdin for "-".
func openExport(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening export: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, func() { _ = f.Close() }, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return gz, func() {
		_ = gz.Close()
		_ = f.Close()
	}, nil
}
