// SPDX-License-Identifier: Apache-2.0

package compare

import (
	"golang.org/x/perf/benchmath"

	"github.com/xataio/qbench/pkg/bench"
	"github.com/xataio/qbench/pkg/stats"
)

// DefaultThreshold is the relative change beyond which a revision is
// classified as improved or regressed.
const DefaultThreshold = 0.05

// Classification of a revision relative to the group baseline.
type Classification string

const (
	Baseline     Classification = "Baseline"
	Improved     Classification = "Improved"
	Regressed    Classification = "Regressed"
	Neutral      Classification = "Neutral"
	Inconclusive Classification = "Inconclusive"
)

// Row is the comparison of one revision against the baseline.
type Row struct {
	Revision       string
	Status         bench.Status
	Classification Classification

	// Delta is the relative change of the compared metric against the
	// baseline: 0.10 is 10% slower, -0.10 is 10% faster. It is only
	// meaningful when HasDelta is set.
	Delta    float64
	HasDelta bool

	// PValue of the significance test, set when the test was run.
	PValue    float64
	HasPValue bool

	// Stats is nil for revisions without a successful iteration.
	Stats *stats.Statistics

	// Result is the underlying run result.
	Result *bench.RevisionResult
}

// Report is the comparison of every revision of one query group.
type Report struct {
	Group string

	// Baseline is the name of the baseline revision, empty when NoBaseline
	// is set.
	Baseline string
	// NoBaseline is set when no revision of the group has statistics, in
	// which case every row is Inconclusive.
	NoBaseline bool

	Metric    stats.Metric
	Threshold float64
	Alpha     float64

	// Rows in declaration order, baseline included.
	Rows []Row
}

type options struct {
	threshold float64
	metric    stats.Metric
	alpha     float64
}

type Option func(*options)

// WithThreshold sets the relative threshold, 0.05 for 5%.
func WithThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

// WithMetric sets the statistic compared between revisions.
func WithMetric(m stats.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithSignificance requires a Mann-Whitney U test p-value at or below alpha
// before a change beyond the threshold is reported as improved or regressed.
// An alpha of 0 disables the test.
func WithSignificance(alpha float64) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}

// Compare classifies every revision of a complete group result against the
// first revision, in declaration order, that has statistics.
func Compare(group bench.GroupResult, opts ...Option) *Report {
	o := &options{
		threshold: DefaultThreshold,
		metric:    stats.MetricMean,
	}
	for _, opt := range opts {
		opt(o)
	}

	report := &Report{
		Group:     group.Group.Name,
		Metric:    o.metric,
		Threshold: o.threshold,
		Alpha:     o.alpha,
		Rows:      make([]Row, 0, len(group.Results)),
	}

	var base *bench.RevisionResult
	for _, r := range group.Results {
		if r.HasStats() {
			base = r
			break
		}
	}
	if base == nil {
		report.NoBaseline = true
	} else {
		report.Baseline = base.Revision
	}

	for _, r := range group.Results {
		row := Row{
			Revision: r.Revision,
			Status:   r.Status,
			Stats:    r.Stats,
			Result:   r,
		}

		switch {
		case !r.HasStats():
			row.Classification = Inconclusive
		case r == base:
			row.Classification = Baseline
		default:
			o.classify(&row, base.Stats, r.Stats)
		}

		report.Rows = append(report.Rows, row)
	}

	return report
}

func (o *options) classify(row *Row, base, cand *stats.Statistics) {
	b := float64(base.Value(o.metric))
	c := float64(cand.Value(o.metric))

	if b == 0 {
		// a zero baseline leaves the relative change undefined
		row.Classification = Inconclusive
		return
	}

	row.Delta = (c - b) / b
	row.HasDelta = true

	// a change of exactly the threshold counts as a change, no change never
	// does, even with a zero threshold
	switch {
	case row.Delta > 0 && row.Delta >= o.threshold:
		row.Classification = Regressed
	case row.Delta < 0 && row.Delta <= -o.threshold:
		row.Classification = Improved
	default:
		row.Classification = Neutral
		return
	}

	if o.alpha <= 0 {
		return
	}

	thresholds := benchmath.DefaultThresholds
	thresholds.CompareAlpha = o.alpha

	cmp := benchmath.AssumeNothing.Compare(
		benchmath.NewSample(base.Floats(), &thresholds),
		benchmath.NewSample(cand.Floats(), &thresholds),
	)
	row.PValue = cmp.P
	row.HasPValue = true

	if cmp.P > o.alpha {
		row.Classification = Neutral
	}
}

// HasRegression reports whether any revision is classified Regressed.
func (r *Report) HasRegression() bool {
	return len(r.Regressions()) > 0
}

// Regressions returns the rows classified Regressed.
func (r *Report) Regressions() []Row {
	var out []Row
	for _, row := range r.Rows {
		if row.Classification == Regressed {
			out = append(out, row)
		}
	}
	return out
}

// Row returns the row of the named revision.
func (r *Report) Row(revision string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Revision == revision {
			return row, true
		}
	}
	return Row{}, false
}

// CompareAll compares every group of a summary.
func CompareAll(summary *bench.Summary, opts ...Option) []*Report {
	reports := make([]*Report, 0, len(summary.Groups))
	for _, g := range summary.Groups {
		reports = append(reports, Compare(g, opts...))
	}
	return reports
}

// AnyRegression reports whether any of the reports has a regression.
func AnyRegression(reports []*Report) bool {
	for _, r := range reports {
		if r.HasRegression() {
			return true
		}
	}
	return false
}
