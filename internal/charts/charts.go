// SPDX-License-Identifier: Apache-2.0

package charts

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/xataio/qbench/internal/render"
	"github.com/xataio/qbench/pkg/stats"
)

const pageTitle = "qbench results"

type NoReportsError struct {
	File string
}

func (e NoReportsError) Error() string {
	return fmt.Sprintf("no reports found in %q", e.File)
}

// Load reads the run reports in filename. The file holds either a single
// indented report, as written by `run --output json`, or one report per line.
func Load(filename string) (docs []*render.Document, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	dec := json.NewDecoder(f)
	for {
		var doc render.Document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding report %d of %q: %w", len(docs)+1, filename, err)
		}
		docs = append(docs, &doc)
	}

	if len(docs) == 0 {
		return nil, NoReportsError{File: filename}
	}
	return docs, nil
}

// Build creates one chart per query group. A single run gives bar charts of
// the mean and median of each revision; several runs give line charts of the
// metric of each revision across runs, in start time order.
func Build(docs []*render.Document, metric stats.Metric) []components.Charter {
	if len(docs) == 1 {
		return barCharts(docs[0])
	}
	return lineCharts(docs, metric)
}

// Render writes an HTML page with the charts of docs to w.
func Render(w io.Writer, docs []*render.Document, metric stats.Metric) error {
	page := components.NewPage()
	page.SetPageTitle(pageTitle)
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(Build(docs, metric)...)

	return page.Render(w)
}

func barCharts(doc *render.Document) []components.Charter {
	out := make([]components.Charter, 0, len(doc.Groups))

	for _, g := range doc.Groups {
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    g.Name,
				Subtitle: subtitle(doc),
			}),
			charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
			charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
			charts.WithAnimation(false))

		names := make([]string, 0, len(g.Revisions))
		mean := make([]opts.BarData, 0, len(g.Revisions))
		median := make([]opts.BarData, 0, len(g.Revisions))
		for _, r := range g.Revisions {
			names = append(names, r.Name)
			// revisions without samples keep their slot with an empty bar
			if r.Stats == nil {
				mean = append(mean, opts.BarData{Name: r.Name, Value: nil})
				median = append(median, opts.BarData{Name: r.Name, Value: nil})
				continue
			}
			mean = append(mean, opts.BarData{Name: r.Name, Value: millis(r.Stats.Mean)})
			median = append(median, opts.BarData{Name: r.Name, Value: millis(r.Stats.Median)})
		}

		bar.SetXAxis(names).
			AddSeries(string(stats.MetricMean), mean).
			AddSeries(string(stats.MetricMedian), median)

		out = append(out, bar)
	}

	return out
}

type dataKey struct {
	group    string
	revision string
	run      string
}

func lineCharts(docs []*render.Document, metric stats.Metric) []components.Charter {
	ordered := slices.Clone(docs)
	slices.SortStableFunc(ordered, func(a, b *render.Document) int {
		return a.StartedAt.Compare(b.StartedAt)
	})

	runs := make([]string, 0, len(ordered))
	values := make(map[dataKey]float64)
	// groups and their revisions in order of first appearance
	var groups []string
	revisions := make(map[string][]string)

	for _, doc := range ordered {
		run := shortID(doc.RunID)
		runs = append(runs, run)

		for _, g := range doc.Groups {
			if _, ok := revisions[g.Name]; !ok {
				groups = append(groups, g.Name)
				revisions[g.Name] = nil
			}
			for _, r := range g.Revisions {
				if !slices.Contains(revisions[g.Name], r.Name) {
					revisions[g.Name] = append(revisions[g.Name], r.Name)
				}
				if r.Stats == nil {
					continue
				}
				values[dataKey{group: g.Name, revision: r.Name, run: run}] = millis(r.Stats.Value(metric))
			}
		}
	}

	out := make([]components.Charter, 0, len(groups))
	for _, group := range groups {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    group,
				Subtitle: fmt.Sprintf("%s latency (ms) over %d runs", metric, len(runs)),
			}),
			charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
			charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
			charts.WithAnimation(false))
		line.SetXAxis(runs)

		for _, rev := range revisions[group] {
			data := make([]opts.LineData, len(runs))
			for i, run := range runs {
				// gaps are left where the revision has no samples in a run
				if v, ok := values[dataKey{group: group, revision: rev, run: run}]; ok {
					data[i] = opts.LineData{Value: v}
				}
			}
			line.AddSeries(rev, data)
		}

		out = append(out, line)
	}

	slices.SortStableFunc(out, func(a, b components.Charter) int {
		return cmp.Compare(title(a), title(b))
	})

	return out
}

func title(c components.Charter) string {
	switch c := c.(type) {
	case *charts.Line:
		return c.Title.Title
	case *charts.Bar:
		return c.Title.Title
	}
	return ""
}

func subtitle(doc *render.Document) string {
	s := "run " + shortID(doc.RunID)
	if doc.Engine != "" {
		s += " on " + doc.Engine
		if doc.ServerVersion != "" {
			s += " " + doc.ServerVersion
		}
	}
	return s
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// First 8 characters of the run ID
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
