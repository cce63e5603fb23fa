// SPDX-License-Identifier: Apache-2.0

package render

import (
	"time"

	"github.com/xataio/qbench/internal/hostinfo"
	"github.com/xataio/qbench/pkg/bench"
	"github.com/xataio/qbench/pkg/compare"
	"github.com/xataio/qbench/pkg/stats"
)

// Document is the structured report of a benchmark run. It is what the json
// and yaml formats serialize and what charts are built from.
type Document struct {
	RunID         string         `json:"run_id"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Engine        string         `json:"engine,omitempty"`
	ServerVersion string         `json:"server_version,omitempty"`
	Host          *hostinfo.Info `json:"host,omitempty"`

	Metric    stats.Metric `json:"metric"`
	Threshold float64      `json:"threshold"`
	Alpha     float64      `json:"alpha,omitempty"`

	Regressed bool `json:"regressed"`
	Aborted   bool `json:"aborted,omitempty"`

	Groups []Group `json:"groups"`
}

type Group struct {
	Name       string     `json:"name"`
	Baseline   string     `json:"baseline,omitempty"`
	NoBaseline bool       `json:"no_baseline,omitempty"`
	Revisions  []Revision `json:"revisions"`
}

type Revision struct {
	Name           string                 `json:"name"`
	Status         bench.Status           `json:"status"`
	Classification compare.Classification `json:"classification"`

	// Delta is the relative change against the baseline, nil when no
	// comparison was made.
	Delta  *float64 `json:"delta,omitempty"`
	PValue *float64 `json:"p_value,omitempty"`

	Iterations       int  `json:"iterations"`
	FailedIterations int  `json:"failed_iterations"`
	Interrupted      bool `json:"interrupted,omitempty"`

	PreScriptDuration  time.Duration `json:"pre_script_duration,omitempty"`
	PostScriptDuration time.Duration `json:"post_script_duration,omitempty"`

	SetupError      string `json:"setup_error,omitempty"`
	LastQueryError  string `json:"last_query_error,omitempty"`
	PostScriptError string `json:"post_script_error,omitempty"`
	CloseError      string `json:"close_error,omitempty"`

	Stats *stats.Statistics `json:"stats,omitempty"`
}

// Warning is a cleanup failure reported below the results.
type Warning struct {
	Group    string
	Revision string
	Message  string
}

// NewDocument builds the report of a run from its summary and the
// comparison of each of its groups, in the same order.
func NewDocument(summary *bench.Summary, reports []*compare.Report, aborted bool) *Document {
	doc := &Document{
		RunID:         summary.RunID.String(),
		StartedAt:     summary.StartedAt,
		FinishedAt:    summary.FinishedAt,
		Engine:        summary.Engine,
		ServerVersion: summary.ServerVersion,
		Host:          summary.Host,
		Metric:        stats.MetricMean,
		Threshold:     compare.DefaultThreshold,
		Regressed:     compare.AnyRegression(reports),
		Aborted:       aborted,
		Groups:        make([]Group, 0, len(reports)),
	}

	if len(reports) > 0 {
		doc.Metric = reports[0].Metric
		doc.Threshold = reports[0].Threshold
		doc.Alpha = reports[0].Alpha
	}

	for _, report := range reports {
		g := Group{
			Name:       report.Group,
			Baseline:   report.Baseline,
			NoBaseline: report.NoBaseline,
			Revisions:  make([]Revision, 0, len(report.Rows)),
		}
		for _, row := range report.Rows {
			g.Revisions = append(g.Revisions, newRevision(row))
		}
		doc.Groups = append(doc.Groups, g)
	}

	return doc
}

func newRevision(row compare.Row) Revision {
	rev := Revision{
		Name:           row.Revision,
		Status:         row.Status,
		Classification: row.Classification,
		Stats:          row.Stats,
	}

	if row.HasDelta {
		delta := row.Delta
		rev.Delta = &delta
	}
	if row.HasPValue {
		p := row.PValue
		rev.PValue = &p
	}

	if r := row.Result; r != nil {
		rev.Iterations = r.Iterations
		rev.FailedIterations = r.FailedIterations
		rev.Interrupted = r.Interrupted
		rev.PreScriptDuration = r.PreScriptDuration
		rev.PostScriptDuration = r.PostScriptDuration
		rev.SetupError = errString(r.SetupError)
		rev.LastQueryError = errString(r.LastQueryError)
		rev.PostScriptError = errString(r.PostScriptError)
		rev.CloseError = errString(r.CloseError)
	}

	return rev
}

// Warnings returns the cleanup failures of the run.
func (d *Document) Warnings() []Warning {
	var out []Warning
	for _, g := range d.Groups {
		for _, r := range g.Revisions {
			if r.PostScriptError != "" {
				out = append(out, Warning{Group: g.Name, Revision: r.Name, Message: r.PostScriptError})
			}
			if r.CloseError != "" {
				out = append(out, Warning{Group: g.Name, Revision: r.Name, Message: "closing session: " + r.CloseError})
			}
		}
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
