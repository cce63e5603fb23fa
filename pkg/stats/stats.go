// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"errors"
	"math"
	"slices"
	"time"

	"golang.org/x/perf/benchmath"
)

// ErrEmptySampleSet is returned when summarizing zero samples. Callers only
// summarize revisions with at least one successful iteration, so seeing this
// error indicates a bug rather than a user-facing condition.
var ErrEmptySampleSet = errors.New("cannot summarize an empty sample set")

// Confidence is the confidence level of the median interval.
const Confidence = 0.95

// Metric selects the statistic used to compare revisions.
type Metric string

const (
	MetricMean   Metric = "mean"
	MetricMedian Metric = "median"
)

// Statistics is a read-only distributional summary of latency samples.
type Statistics struct {
	Count  int           `json:"count"`
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	Median time.Duration `json:"median"`
	StdDev time.Duration `json:"stddev"`
	P90    time.Duration `json:"p90"`
	P99    time.Duration `json:"p99"`

	// MedianLo and MedianHi bound the median at the Confidence level. Both are
	// zero when there are too few samples to compute the interval.
	MedianLo time.Duration `json:"median_lo,omitempty"`
	MedianHi time.Duration `json:"median_hi,omitempty"`

	// Samples holds the samples in their original order.
	Samples []time.Duration `json:"samples"`
}

// Summarize computes Statistics for the given samples. The input slice is
// neither modified nor retained.
func Summarize(samples []time.Duration) (*Statistics, error) {
	n := len(samples)
	if n == 0 {
		return nil, ErrEmptySampleSet
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	mean := kahanMean(samples)

	var stddev float64
	if n > 1 {
		var sq float64
		for _, s := range samples {
			d := float64(s) - mean
			sq += d * d
		}
		stddev = math.Sqrt(sq / float64(n-1))
	}

	st := &Statistics{
		Count:   n,
		Min:     sorted[0],
		Max:     sorted[n-1],
		Mean:    time.Duration(math.Round(mean)),
		Median:  median(sorted),
		StdDev:  time.Duration(math.Round(stddev)),
		P90:     percentile(sorted, 90),
		P99:     percentile(sorted, 99),
		Samples: slices.Clone(samples),
	}

	st.MedianLo, st.MedianHi = medianInterval(sorted)

	return st, nil
}

// Value returns the statistic selected by m. Unknown metrics select the mean.
func (s *Statistics) Value(m Metric) time.Duration {
	if m == MetricMedian {
		return s.Median
	}
	return s.Mean
}

// Floats returns the samples as float64 nanoseconds.
func (s *Statistics) Floats() []float64 {
	return toFloats(s.Samples)
}

// ParseMetric converts a metric name into a Metric.
func ParseMetric(name string) (Metric, error) {
	switch Metric(name) {
	case MetricMean, MetricMedian:
		return Metric(name), nil
	}
	return "", errors.New("unknown metric " + name + ": expected mean or median")
}

func kahanMean(samples []time.Duration) float64 {
	var sum, c float64
	for _, s := range samples {
		y := float64(s) - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum / float64(len(samples))
}

func median(sorted []time.Duration) time.Duration {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	lo, hi := sorted[n/2-1], sorted[n/2]
	return lo + (hi-lo)/2
}

// percentile uses the nearest-rank method.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

func medianInterval(sorted []time.Duration) (time.Duration, time.Duration) {
	sample := benchmath.NewSample(toFloats(sorted), &benchmath.DefaultThresholds)
	summary := benchmath.AssumeNothing.Summary(sample, Confidence)
	if len(summary.Warnings) > 0 {
		return 0, 0
	}
	if math.IsInf(summary.Lo, 0) || math.IsInf(summary.Hi, 0) || math.IsNaN(summary.Lo) || math.IsNaN(summary.Hi) {
		return 0, 0
	}
	return time.Duration(summary.Lo), time.Duration(summary.Hi)
}

func toFloats(samples []time.Duration) []float64 {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = float64(s)
	}
	return values
}
