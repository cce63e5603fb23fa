// SPDX-License-Identifier: Apache-2.0

package render_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/xataio/qbench/internal/render"
	"github.com/xataio/qbench/pkg/bench"
	"github.com/xataio/qbench/pkg/compare"
	"github.com/xataio/qbench/pkg/config"
	"github.com/xataio/qbench/pkg/stats"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func result(t *testing.T, name string, samples ...time.Duration) *bench.RevisionResult {
	t.Helper()

	st, err := stats.Summarize(samples)
	require.NoError(t, err)

	return &bench.RevisionResult{
		Group:      "orders",
		Revision:   name,
		Status:     bench.StatusCompleted,
		Samples:    samples,
		Iterations: len(samples),
		Stats:      st,
	}
}

func testDocument(t *testing.T) *render.Document {
	t.Helper()

	slow := result(t, "no_index", 100*time.Millisecond, 100*time.Millisecond)
	fast := result(t, "with_index", 10*time.Millisecond, 10*time.Millisecond)
	fast.PostScriptError = bench.ScriptExecutionError{Stage: bench.StagePostScript, Err: errors.New("index does not exist")}
	worse := result(t, "seq_scan", 200*time.Millisecond, 200*time.Millisecond)
	broken := &bench.RevisionResult{
		Group:            "orders",
		Revision:         "broken",
		Status:           bench.StatusAllIterationsFailed,
		Iterations:       2,
		FailedIterations: 2,
		LastQueryError:   bench.QueryExecutionError{Iteration: 2, Err: errors.New("syntax error")},
	}

	summary := &bench.Summary{
		RunID:      uuid.MustParse("8a0f2c1e-0b5e-4c4b-9a57-3f1d2f0e9d11"),
		StartedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt: time.Date(2025, 1, 2, 3, 4, 9, 0, time.UTC),
		Engine:     "postgres",
		Groups: []bench.GroupResult{{
			Group: config.QueryGroup{Name: "orders"},
			Results: []*bench.RevisionResult{
				slow, fast, worse, broken,
			},
		}},
	}

	return render.NewDocument(summary, compare.CompareAll(summary), false)
}

func TestNewDocument(t *testing.T) {
	t.Parallel()

	doc := testDocument(t)

	assert.Equal(t, "8a0f2c1e-0b5e-4c4b-9a57-3f1d2f0e9d11", doc.RunID)
	assert.True(t, doc.Regressed)
	assert.Equal(t, stats.MetricMean, doc.Metric)
	assert.InDelta(t, compare.DefaultThreshold, doc.Threshold, 1e-12)

	require.Len(t, doc.Groups, 1)
	g := doc.Groups[0]
	assert.Equal(t, "no_index", g.Baseline)
	require.Len(t, g.Revisions, 4)

	assert.Equal(t, compare.Baseline, g.Revisions[0].Classification)
	assert.Nil(t, g.Revisions[0].Delta)

	assert.Equal(t, compare.Improved, g.Revisions[1].Classification)
	require.NotNil(t, g.Revisions[1].Delta)
	assert.InDelta(t, -0.9, *g.Revisions[1].Delta, 1e-9)

	assert.Equal(t, compare.Regressed, g.Revisions[2].Classification)

	assert.Equal(t, compare.Inconclusive, g.Revisions[3].Classification)
	assert.Equal(t, "iteration 2 failed: syntax error", g.Revisions[3].LastQueryError)
	assert.Nil(t, g.Revisions[3].Stats)

	assert.Equal(t, []render.Warning{{
		Group:    "orders",
		Revision: "with_index",
		Message:  "post_script failed: index does not exist",
	}}, doc.Warnings())
}

func TestJSON(t *testing.T) {
	t.Parallel()

	doc := testDocument(t)

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, render.FormatJSON, doc))

	var decoded render.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, doc.RunID, decoded.RunID)
	assert.True(t, doc.StartedAt.Equal(decoded.StartedAt))
	assert.Equal(t, doc.Groups, decoded.Groups)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "postgres", raw["engine"])
	assert.Equal(t, true, raw["regressed"])
}

func TestYAML(t *testing.T) {
	t.Parallel()

	doc := testDocument(t)

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, render.FormatYAML, doc))

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "8a0f2c1e-0b5e-4c4b-9a57-3f1d2f0e9d11", raw["run_id"])

	groups, ok := raw["groups"].([]any)
	require.True(t, ok)
	require.Len(t, groups, 1)
}

func TestTable(t *testing.T) {
	t.Parallel()

	doc := testDocument(t)

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, render.FormatTable, doc))
	out := buf.String()

	for _, want := range []string{
		"orders",
		"no_index", "with_index", "seq_scan", "broken",
		"Baseline", "Improved", "Regressed", "Inconclusive",
		"AllIterationsFailed",
		"100.000ms", "-90.00%", "+100.00%",
		"warning: orders/with_index cleanup failed: post_script failed: index does not exist",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "run aborted")
}

func TestTableNoBaseline(t *testing.T) {
	t.Parallel()

	summary := &bench.Summary{
		Groups: []bench.GroupResult{{
			Group: config.QueryGroup{Name: "g"},
			Results: []*bench.RevisionResult{
				{Revision: "v1", Status: bench.StatusSetupFailed},
			},
		}},
	}
	doc := render.NewDocument(summary, compare.CompareAll(summary), true)

	var buf bytes.Buffer
	require.NoError(t, render.Table(&buf, doc))

	assert.Contains(t, buf.String(), "no baseline")
	assert.Contains(t, buf.String(), "SetupFailed")
	assert.Contains(t, buf.String(), "run aborted")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"table", "json", "yaml", "JSON"} {
		_, err := render.ParseFormat(name)
		assert.NoError(t, err, name)
	}

	_, err := render.ParseFormat("xml")
	var unknown render.UnknownFormatError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "xml", unknown.Format)
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+10.00%", render.FormatDelta(0.1))
	assert.Equal(t, "-5.00%", render.FormatDelta(-0.05))
	assert.Equal(t, "+0.00%", render.FormatDelta(0))
}
