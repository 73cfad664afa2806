package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/unvotes-crawler/internal/importer"
)

// newImportCmd creates the 'import' subcommand, which crawls the requested
// years (or the planned ones) and imports every reconciled record.
func newImportCmd() *cobra.Command {
	var years []int
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Crawl voting data and import new resolutions",
		Long: `Crawls the voting data collection for the given years and imports every
reconciled resolution. Without --years, imports the current year plus every
year the library advertises that has no stored resolutions yet.`,
		Annotations: map[string]string{annotationNeeds: needsNetwork},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, years)
		},
	}
	cmd.Flags().IntSliceVar(&years, "years", nil, "years to import, e.g. --years 2022,2023")
	return cmd
}

func runImport(cmd *cobra.Command, years []int) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := a.Logger()

	serveCtx, stopServe := context.WithCancel(cmd.Context())
	var g errgroup.Group
	g.Go(func() error { return a.Serve(serveCtx) })

	report, runErr := a.Import(cmd.Context(), years)
	stopServe()
	if err := g.Wait(); err != nil {
		logger.Warn("ops server stopped with error", zap.Error(err))
	}

	if err := writeReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("import interrupted: %w", runErr)
		}
		return fmt.Errorf("import failed: %w", runErr)
	}
	logger.Info("Import command finished.", zap.String("run_id", report.RunID))
	return nil
}

func writeReport(w io.Writer, report importer.Report) error {
	t := newTable("YEAR", "IMPORTED", "SKIPPED", "ERRORS", "UNREACHABLE")
	for _, y := range report.Years {
		t.add(
			strconv.Itoa(y.Year),
			strconv.Itoa(len(y.Result.Successes)),
			strconv.Itoa(len(y.Result.Skipped)),
			strconv.Itoa(len(y.Result.Errors)),
			strconv.Itoa(len(y.Failures)),
		)
	}
	successes, skipped, errs, failures := report.Totals()
	t.add("total", strconv.Itoa(successes), strconv.Itoa(skipped), strconv.Itoa(errs), strconv.Itoa(failures))
	if _, err := fmt.Fprintf(w, "run %s\n", report.RunID); err != nil {
		return err
	}
	if err := t.write(w); err != nil {
		return err
	}

	if errs == 0 && failures == 0 {
		return nil
	}
	details := newTable("YEAR", "ITEM", "PROBLEM")
	for _, y := range report.Years {
		for _, e := range y.Result.Errors {
			details.add(strconv.Itoa(y.Year), e.Symbol, fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err))
		}
		for _, f := range y.Failures {
			item := f.Code
			if item == "" {
				item = f.URL
			}
			details.add(strconv.Itoa(y.Year), item, fmt.Sprint(f.Err))
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return details.write(w)
}
