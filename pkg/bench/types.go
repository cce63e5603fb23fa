// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"time"

	"github.com/google/uuid"

	"github.com/xataio/qbench/internal/hostinfo"
	"github.com/xataio/qbench/pkg/config"
	"github.com/xataio/qbench/pkg/stats"
)

// State is a step of the revision lifecycle.
type State string

const (
	StateInit       State = "init"
	StatePreScript  State = "pre_script"
	StateTiming     State = "timing"
	StatePostScript State = "post_script"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Stage identifies the script or phase a failure happened in.
type Stage string

const (
	StagePreScript  Stage = "pre_script"
	StageTiming     Stage = "timing"
	StagePostScript Stage = "post_script"
)

// Status is the terminal outcome of a revision run.
type Status string

const (
	StatusCompleted           Status = "Completed"
	StatusSetupFailed         Status = "SetupFailed"
	StatusAllIterationsFailed Status = "AllIterationsFailed"
	StatusConnectionFailed    Status = "ConnectionFailed"
	StatusCancelled           Status = "Cancelled"
	StatusSkipped             Status = "Skipped"
)

// RevisionResult is the outcome of running one revision. The orchestrator
// sets CloseError once the session is released; nothing changes it after
// Orchestrator.Run returns.
type RevisionResult struct {
	Group    string
	Revision string
	Status   Status

	// FailedStage is set when Status is not Completed.
	FailedStage Stage

	// Samples holds the durations of the successful iterations in execution
	// order. Warm-up iterations are not included.
	Samples          []time.Duration
	Iterations       int
	FailedIterations int

	// Interrupted is set when the run was cancelled before all iterations
	// were attempted.
	Interrupted bool

	PreScriptDuration  time.Duration
	PostScriptDuration time.Duration

	// SetupError is the pre_script or connection failure that prevented
	// timing.
	SetupError error
	// LastQueryError is the most recent failed iteration.
	LastQueryError error
	// PostScriptError is a cleanup failure; it never changes Status.
	PostScriptError error
	// CloseError is a failure to release the session.
	CloseError error

	// Stats is nil unless at least one iteration succeeded.
	Stats *stats.Statistics
}

// HasStats reports whether statistics could be computed for the revision.
func (r *RevisionResult) HasStats() bool {
	return r.Stats != nil
}

// CleanupFailed reports whether the post_script or the session release
// failed.
func (r *RevisionResult) CleanupFailed() bool {
	return r.PostScriptError != nil || r.CloseError != nil
}

// GroupResult holds the results of every revision in a query group, in
// declaration order.
type GroupResult struct {
	Group   config.QueryGroup
	Results []*RevisionResult
}

// Summary is the outcome of a whole benchmark run.
type Summary struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time

	Engine        string
	ServerVersion string
	Host          *hostinfo.Info

	Groups []GroupResult
}

// Results returns every revision result of the run, group by group.
func (s *Summary) Results() []*RevisionResult {
	var out []*RevisionResult
	for _, g := range s.Groups {
		out = append(out, g.Results...)
	}
	return out
}

// CleanupFailures returns the results whose post_script or session release
// failed.
func (s *Summary) CleanupFailures() []*RevisionResult {
	var out []*RevisionResult
	for _, r := range s.Results() {
		if r.CleanupFailed() {
			out = append(out, r)
		}
	}
	return out
}

// Progress is reported after every timed iteration.
type Progress struct {
	Group      string
	Revision   string
	Iteration  int
	Iterations int
	Elapsed    time.Duration
	Err        error
}
