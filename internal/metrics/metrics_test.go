// SPDX-License-Identifier: Apache-2.0

package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/qbench/internal/metrics"
	"github.com/xataio/qbench/internal/render"
	"github.com/xataio/qbench/pkg/bench"
	"github.com/xataio/qbench/pkg/compare"
	"github.com/xataio/qbench/pkg/stats"
)

func ptr[T any](v T) *T {
	return &v
}

func testDocument() *render.Document {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	return &render.Document{
		RunID:         "run-1",
		StartedAt:     start,
		FinishedAt:    start.Add(90 * time.Second),
		Engine:        "postgres",
		ServerVersion: "16.2",
		Groups: []render.Group{{
			Name:     "orders",
			Baseline: "v1",
			Revisions: []render.Revision{
				{
					Name:           "v1",
					Status:         bench.StatusCompleted,
					Classification: compare.Baseline,
					Iterations:     5,
					Stats: &stats.Statistics{
						Count:  5,
						Min:    8 * time.Millisecond,
						Max:    12 * time.Millisecond,
						Mean:   10 * time.Millisecond,
						Median: 10 * time.Millisecond,
						StdDev: time.Millisecond,
						P90:    12 * time.Millisecond,
						P99:    12 * time.Millisecond,
					},
				},
				{
					Name:             "v2",
					Status:           bench.StatusCompleted,
					Classification:   compare.Regressed,
					Delta:            ptr(0.5),
					Iterations:       5,
					FailedIterations: 2,
					PostScriptError:  "post_script failed: boom",
					Stats: &stats.Statistics{
						Count:  3,
						Min:    15 * time.Millisecond,
						Max:    15 * time.Millisecond,
						Mean:   15 * time.Millisecond,
						Median: 15 * time.Millisecond,
						P90:    15 * time.Millisecond,
						P99:    15 * time.Millisecond,
					},
				},
				{
					Name:             "v3",
					Status:           bench.StatusAllIterationsFailed,
					Classification:   compare.Inconclusive,
					Iterations:       5,
					FailedIterations: 5,
				},
			},
		}},
	}
}

func TestRecord(t *testing.T) {
	t.Parallel()

	c := metrics.NewCollector()
	c.Record(testDocument())

	expected := `
# HELP qbench_revision_regressed 1 when the revision is classified as regressed, 0 otherwise
# TYPE qbench_revision_regressed gauge
qbench_revision_regressed{group="orders",revision="v1"} 0
qbench_revision_regressed{group="orders",revision="v2"} 1
qbench_revision_regressed{group="orders",revision="v3"} 0
# HELP qbench_revision_failed_iterations_total Timed iterations that failed per revision
# TYPE qbench_revision_failed_iterations_total counter
qbench_revision_failed_iterations_total{group="orders",revision="v1"} 0
qbench_revision_failed_iterations_total{group="orders",revision="v2"} 2
qbench_revision_failed_iterations_total{group="orders",revision="v3"} 5
# HELP qbench_revision_delta_ratio Relative latency change against the group baseline
# TYPE qbench_revision_delta_ratio gauge
qbench_revision_delta_ratio{group="orders",revision="v2"} 0.5
# HELP qbench_run_duration_seconds Wall-clock duration of the benchmark run
# TYPE qbench_run_duration_seconds gauge
qbench_run_duration_seconds 90
`
	err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected),
		"qbench_revision_regressed",
		"qbench_revision_failed_iterations_total",
		"qbench_revision_delta_ratio",
		"qbench_run_duration_seconds",
	)
	require.NoError(t, err)

	// seven latency statistics for each of the two revisions with stats
	assert.Equal(t, 14, testutil.CollectAndCount(c.Registry(), "qbench_revision_latency_seconds"))
	assert.Equal(t, 3, testutil.CollectAndCount(c.Registry(), "qbench_revision_cleanup_failed"))
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	filename := filepath.Join(t.TempDir(), "qbench.prom")
	require.NoError(t, metrics.WriteFile(filename, testDocument()))

	out, err := os.ReadFile(filename)
	require.NoError(t, err)

	for _, want := range []string{
		`qbench_run_info{engine="postgres",run_id="run-1",server_version="16.2"} 1`,
		`qbench_revision_latency_seconds{group="orders",revision="v1",stat="mean"} 0.01`,
		`qbench_revision_latency_seconds{group="orders",revision="v2",stat="p99"} 0.015`,
		`qbench_revision_cleanup_failed{group="orders",revision="v2"} 1`,
	} {
		assert.Contains(t, string(out), want)
	}
}
