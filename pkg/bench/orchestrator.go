// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/xataio/qbench/pkg/config"
	"github.com/xataio/qbench/pkg/db"
)

// SessionOpener opens a new exclusive session to the target database. It is
// called once per revision.
type SessionOpener func(ctx context.Context) (db.Session, error)

// Orchestrator runs every revision of every query group, each on its own
// session.
type Orchestrator struct {
	open   SessionOpener
	runner *Runner
	opts   *options

	callbackMu sync.Mutex
}

func New(open SessionOpener, opts ...Option) *Orchestrator {
	o := newOptions(opts)
	return &Orchestrator{
		open:   open,
		runner: &Runner{opts: o},
		opts:   o,
	}
}

// Run benchmarks groups and returns a summary holding one complete
// GroupResult per group, in input order.
//
// The run deadline of ctx is checked before each revision: revisions not yet
// started when ctx is done are marked Skipped, and a revision in flight stops
// after its current iteration and runs its post_script. Run then returns the
// partial summary together with an error wrapping ErrRunAborted.
func (o *Orchestrator) Run(ctx context.Context, groups []config.QueryGroup) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Groups:    make([]GroupResult, len(groups)),
	}

	o.opts.logger.LogRunStart(groups)

	g := new(errgroup.Group)
	g.SetLimit(o.opts.concurrency)

	for i, group := range groups {
		g.Go(func() error {
			summary.Groups[i] = o.runGroup(ctx, group)
			o.groupDone(summary.Groups[i])
			return nil
		})
	}
	// groups never return errors; failures live in the results
	_ = g.Wait()

	summary.FinishedAt = time.Now()
	o.opts.logger.LogRunComplete(summary)

	for _, r := range summary.Results() {
		if r.Status == StatusSkipped || r.Interrupted {
			return summary, fmt.Errorf("%w: %w", ErrRunAborted, context.Cause(ctx))
		}
	}

	return summary, nil
}

func (o *Orchestrator) runGroup(ctx context.Context, group config.QueryGroup) GroupResult {
	result := GroupResult{
		Group:   group,
		Results: make([]*RevisionResult, 0, len(group.Revisions)),
	}

	if ctx.Err() == nil {
		o.opts.logger.LogGroupStart(group)
	}

	for _, rev := range group.Revisions {
		result.Results = append(result.Results, o.runRevision(ctx, group.Name, rev))
	}

	return result
}

func (o *Orchestrator) runRevision(ctx context.Context, group string, rev config.Revision) *RevisionResult {
	if ctx.Err() != nil {
		return skipped(group, rev, o.opts.iterations)
	}

	session, err := o.connect(ctx, group, rev)
	if err != nil {
		if ctx.Err() != nil {
			return skipped(group, rev, o.opts.iterations)
		}
		res := &RevisionResult{
			Group:       group,
			Revision:    rev.Name,
			Status:      StatusConnectionFailed,
			FailedStage: StagePreScript,
			Iterations:  o.opts.iterations,
			SetupError:  err,
		}
		o.opts.logger.LogRevisionComplete(res)
		return res
	}

	res := o.runner.Run(ctx, session, group, rev)
	res.CloseError = session.Close()

	return res
}

// connect opens a session, retrying with exponential backoff when the
// failure is a connection error.
func (o *Orchestrator) connect(ctx context.Context, group string, rev config.Revision) (db.Session, error) {
	b := backoff.New(o.opts.retryMaxInterval, o.opts.retryInterval)

	for attempt := 1; ; attempt++ {
		session, err := o.open(ctx)
		if err == nil {
			return session, nil
		}

		var connErr db.ConnectionError
		if !errors.As(err, &connErr) || attempt > o.opts.connectRetries {
			return nil, err
		}

		wait := b.Duration()
		o.opts.logger.LogConnectionRetry(group, rev.Name, attempt, wait, err)
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (o *Orchestrator) groupDone(g GroupResult) {
	if o.opts.onGroup == nil {
		return
	}

	o.callbackMu.Lock()
	defer o.callbackMu.Unlock()

	o.opts.onGroup(g)
}

func skipped(group string, rev config.Revision, iterations int) *RevisionResult {
	return &RevisionResult{
		Group:      group,
		Revision:   rev.Name,
		Status:     StatusSkipped,
		Iterations: iterations,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
