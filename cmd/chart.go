// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xataio/qbench/internal/charts"
	"github.com/xataio/qbench/pkg/stats"
)

func chartCmd() *cobra.Command {
	var metric string

	chartCmd := &cobra.Command{
		Use:   "chart <report> <output>",
		Short: "Render HTML charts from JSON reports written by `run --output json`",
		Long: "Render HTML charts from JSON reports. A file holding a single report gives a bar chart per query group; " +
			"a file with one report per line gives a line chart per query group across runs.",
		Example: "chart report.json report.html",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := stats.ParseMetric(metric)
			if err != nil {
				return ExitError{Code: ExitConfig, Err: err}
			}

			docs, err := charts.Load(args[0])
			if err != nil {
				return ExitError{Code: ExitConfig, Err: err}
			}

			if err := writeCharts(args[1], func(f *os.File) error {
				return charts.Render(f, docs, m)
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Charts of %d report(s) written to %s\n", len(docs), args[1])
			return nil
		},
	}

	chartCmd.Flags().StringVar(&metric, "metric", string(stats.MetricMean), "Statistic charted across runs (mean, median)")

	return chartCmd
}

func writeCharts(filename string, render func(*os.File) error) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := render(f); err != nil {
		return fmt.Errorf("rendering charts: %w", err)
	}
	return nil
}
