// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xataio/qbench/internal/render"
	"github.com/xataio/qbench/pkg/compare"
)

const namespace = "qbench"

// Collector holds the metrics of one benchmark run in its own registry.
type Collector struct {
	registry *prometheus.Registry

	runInfo     *prometheus.GaugeVec
	runDuration prometheus.Gauge

	latency     *prometheus.GaugeVec
	failed      *prometheus.CounterVec
	delta       *prometheus.GaugeVec
	regressed   *prometheus.GaugeVec
	cleanupFail *prometheus.GaugeVec
}

func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.runInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_info",
		Help:      "Metadata of the benchmark run, always 1",
	}, []string{"run_id", "engine", "server_version"})

	c.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the benchmark run",
	})

	c.latency = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "revision_latency_seconds",
		Help:      "Query latency statistics per revision",
	}, []string{"group", "revision", "stat"})

	c.failed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revision_failed_iterations_total",
		Help:      "Timed iterations that failed per revision",
	}, []string{"group", "revision"})

	c.delta = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "revision_delta_ratio",
		Help:      "Relative latency change against the group baseline",
	}, []string{"group", "revision"})

	c.regressed = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "revision_regressed",
		Help:      "1 when the revision is classified as regressed, 0 otherwise",
	}, []string{"group", "revision"})

	c.cleanupFail = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "revision_cleanup_failed",
		Help:      "1 when the post_script or session release of the revision failed",
	}, []string{"group", "revision"})

	c.registry.MustRegister(
		c.runInfo,
		c.runDuration,
		c.latency,
		c.failed,
		c.delta,
		c.regressed,
		c.cleanupFail,
	)

	return c
}

// Registry returns the registry the run metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Record sets the metrics from a run report.
func (c *Collector) Record(doc *render.Document) {
	c.runInfo.WithLabelValues(doc.RunID, doc.Engine, doc.ServerVersion).Set(1)
	c.runDuration.Set(doc.FinishedAt.Sub(doc.StartedAt).Seconds())

	for _, g := range doc.Groups {
		for _, r := range g.Revisions {
			c.failed.WithLabelValues(g.Name, r.Name).Add(float64(r.FailedIterations))

			regressed := 0.0
			if r.Classification == compare.Regressed {
				regressed = 1
			}
			c.regressed.WithLabelValues(g.Name, r.Name).Set(regressed)

			cleanup := 0.0
			if r.PostScriptError != "" || r.CloseError != "" {
				cleanup = 1
			}
			c.cleanupFail.WithLabelValues(g.Name, r.Name).Set(cleanup)

			if r.Delta != nil {
				c.delta.WithLabelValues(g.Name, r.Name).Set(*r.Delta)
			}

			if s := r.Stats; s != nil {
				for stat, d := range map[string]time.Duration{
					"min":    s.Min,
					"max":    s.Max,
					"mean":   s.Mean,
					"median": s.Median,
					"stddev": s.StdDev,
					"p90":    s.P90,
					"p99":    s.P99,
				} {
					c.latency.WithLabelValues(g.Name, r.Name, stat).Set(d.Seconds())
				}
			}
		}
	}
}

// WriteFile writes the metrics of doc to filename in the Prometheus text
// format, for collection by the node exporter textfile collector.
func WriteFile(filename string, doc *render.Document) error {
	c := NewCollector()
	c.Record(doc)
	return prometheus.WriteToTextfile(filename, c.registry)
}
