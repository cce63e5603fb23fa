// SPDX-License-Identifier: Apache-2.0

package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"sigs.k8s.io/yaml"

	"github.com/xataio/qbench/pkg/compare"
)

// Format is an output format for a report.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML}

type UnknownFormatError struct {
	Format string
}

func (e UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown output format %q, expected one of: table, json, yaml", e.Format)
}

// ParseFormat validates an output format name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(name) {
			return f, nil
		}
	}
	return "", UnknownFormatError{Format: name}
}

// Render writes doc to w in the given format.
func Render(w io.Writer, format Format, doc *Document) error {
	switch format {
	case FormatJSON:
		return JSON(w, doc)
	case FormatYAML:
		return YAML(w, doc)
	case FormatTable:
		return Table(w, doc)
	default:
		return UnknownFormatError{Format: string(format)}
	}
}

func JSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func YAML(w io.Writer, doc *Document) error {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

var tableHeader = []string{
	"revision", "status", "samples", "failed", "mean", "median", "stddev", "p90", "p99", "delta", "result",
}

// Table writes one table per query group followed by cleanup warnings.
func Table(w io.Writer, doc *Document) error {
	for i, g := range doc.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}

		title := g.Name
		if g.NoBaseline {
			title += " (no baseline: no revision completed)"
		}
		fmt.Fprintln(w, pterm.Bold.Sprint(title))

		data := [][]string{tableHeader}
		for _, r := range g.Revisions {
			data = append(data, revisionRow(r))
		}

		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, table)
	}

	if warnings := doc.Warnings(); len(warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range warnings {
			fmt.Fprintln(w, pterm.FgYellow.Sprintf("warning: %s/%s cleanup failed: %s", warn.Group, warn.Revision, warn.Message))
		}
	}

	if doc.Aborted {
		fmt.Fprintln(w)
		fmt.Fprintln(w, pterm.FgRed.Sprint("run aborted before all revisions completed"))
	}

	return nil
}

func revisionRow(r Revision) []string {
	row := []string{
		r.Name,
		string(r.Status),
		"-", "-", "-", "-", "-", "-", "-", "-",
		classification(r.Classification),
	}

	row[3] = strconv.Itoa(r.FailedIterations)
	if r.Stats != nil {
		row[2] = strconv.Itoa(r.Stats.Count)
		row[4] = formatDuration(r.Stats.Mean)
		row[5] = formatDuration(r.Stats.Median)
		row[6] = formatDuration(r.Stats.StdDev)
		row[7] = formatDuration(r.Stats.P90)
		row[8] = formatDuration(r.Stats.P99)
	} else {
		row[2] = "0"
	}
	if r.Delta != nil {
		row[9] = FormatDelta(*r.Delta)
	}
	if r.Interrupted {
		row[1] += " (interrupted)"
	}

	return row
}

func classification(c compare.Classification) string {
	switch c {
	case compare.Regressed:
		return pterm.FgRed.Sprint(c)
	case compare.Improved:
		return pterm.FgGreen.Sprint(c)
	case compare.Inconclusive:
		return pterm.FgYellow.Sprint(c)
	default:
		return string(c)
	}
}

func formatDuration(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64) + "ms"
}

// FormatDelta formats a relative change as a signed percentage.
func FormatDelta(delta float64) string {
	return fmt.Sprintf("%+.2f%%", delta*100)
}
