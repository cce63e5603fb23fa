// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/xataio/qbench/pkg/config"
	"github.com/xataio/qbench/pkg/db"
	"github.com/xataio/qbench/pkg/stats"
)

// Runner drives the lifecycle of a single revision on a session it does
// not own: pre_script, timed iterations, post_script.
type Runner struct {
	opts *options
}

func NewRunner(opts ...Option) *Runner {
	return &Runner{opts: newOptions(opts)}
}

// revisionRun tracks the state machine of one revision.
type revisionRun struct {
	*Runner
	session db.Session
	group   string
	rev     config.Revision
	state   State
	res     *RevisionResult
}

// Run benchmarks rev on session and returns its result. Failures are
// captured in the result rather than returned.
//
// Cancellation of ctx is observed between iterations only: database work
// runs on a context detached from ctx, so an in-flight query or script is
// never interrupted and post_script always runs.
func (r *Runner) Run(ctx context.Context, session db.Session, group string, rev config.Revision) *RevisionResult {
	run := &revisionRun{
		Runner:  r,
		session: session,
		group:   group,
		rev:     rev,
		state:   StateInit,
		res: &RevisionResult{
			Group:      group,
			Revision:   rev.Name,
			Iterations: r.opts.iterations,
		},
	}

	r.opts.logger.LogRevisionStart(group, rev)
	run.execute(ctx)
	r.opts.logger.LogRevisionComplete(run.res)

	return run.res
}

func (run *revisionRun) execute(ctx context.Context) {
	dbCtx := context.WithoutCancel(ctx)

	if run.rev.HasPreScript() {
		run.transition(StatePreScript)

		elapsed, err := run.script(dbCtx, StagePreScript, run.rev.PreScript)
		run.res.PreScriptDuration = elapsed
		if err != nil {
			run.res.Status = StatusSetupFailed
			run.res.FailedStage = StagePreScript
			run.res.SetupError = err
			run.transition(StateFailed)

			// best effort, to avoid leaking partially created state
			run.postScript(dbCtx)
			return
		}
	}

	run.transition(StateTiming)
	run.timing(ctx, dbCtx)

	run.postScript(dbCtx)

	switch {
	case len(run.res.Samples) > 0:
		run.res.Status = StatusCompleted
		run.res.Stats = mustSummarize(run.res.Samples)
		run.transition(StateDone)
	case run.res.Interrupted:
		run.res.Status = StatusCancelled
		run.res.FailedStage = StageTiming
		run.transition(StateFailed)
	default:
		run.res.Status = StatusAllIterationsFailed
		run.res.FailedStage = StageTiming
		run.transition(StateFailed)
	}
}

func (run *revisionRun) timing(ctx, dbCtx context.Context) {
	for i := 0; i < run.opts.warmup; i++ {
		if ctx.Err() != nil {
			run.res.Interrupted = true
			return
		}
		run.query(dbCtx)
	}

	for i := 1; i <= run.opts.iterations; i++ {
		if ctx.Err() != nil {
			run.res.Interrupted = true
			return
		}

		elapsed, err := run.query(dbCtx)
		if err != nil {
			qerr := QueryExecutionError{Iteration: i, Err: err}
			run.res.FailedIterations++
			run.res.LastQueryError = qerr
			run.opts.logger.LogIterationFailure(run.group, run.rev.Name, qerr)
		} else {
			run.res.Samples = append(run.res.Samples, elapsed)
		}

		if run.opts.progress != nil {
			run.opts.progress(Progress{
				Group:      run.group,
				Revision:   run.rev.Name,
				Iteration:  i,
				Iterations: run.opts.iterations,
				Elapsed:    elapsed,
				Err:        err,
			})
		}
	}
}

func (run *revisionRun) query(ctx context.Context) (time.Duration, error) {
	if run.opts.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, run.opts.queryTimeout)
		defer cancel()
	}
	return run.session.ExecTimedQuery(ctx, run.rev.Query)
}

func (run *revisionRun) postScript(ctx context.Context) {
	if !run.rev.HasPostScript() {
		return
	}

	// A failed revision stays in the failed state; cleanup is not a step
	// of its lifecycle.
	if run.state != StateFailed {
		run.transition(StatePostScript)
	}

	elapsed, err := run.script(ctx, StagePostScript, run.rev.PostScript)
	run.res.PostScriptDuration = elapsed
	if err != nil {
		run.res.PostScriptError = err
	}
}

func (run *revisionRun) script(ctx context.Context, stage Stage, script string) (time.Duration, error) {
	start := time.Now()
	err := run.session.ExecScript(ctx, script)
	elapsed := time.Since(start)

	if err != nil {
		serr := ScriptExecutionError{Stage: stage, Err: err}
		run.opts.logger.LogScriptFailure(run.group, run.rev.Name, serr)
		return elapsed, serr
	}
	return elapsed, nil
}

func (run *revisionRun) transition(to State) {
	run.opts.logger.LogStateTransition(run.group, run.rev.Name, run.state, to)
	run.state = to
}

// mustSummarize is only called with at least one sample; an empty sample set
// here is a bug in the runner, not a user facing condition.
func mustSummarize(samples []time.Duration) *stats.Statistics {
	s, err := stats.Summarize(samples)
	if err != nil {
		panic(fmt.Sprintf("summarizing %d samples: %s", len(samples), err))
	}
	return s
}
