// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"os"
	"time"

	"github.com/pterm/pterm"

	"github.com/xataio/qbench/pkg/config"
)

// Logger is responsible for logging the steps of a benchmark run.
type Logger interface {
	LogRunStart(groups []config.QueryGroup)
	LogRunComplete(s *Summary)

	LogGroupStart(g config.QueryGroup)
	LogRevisionStart(group string, r config.Revision)
	LogRevisionComplete(r *RevisionResult)
	LogStateTransition(group, revision string, from, to State)

	LogIterationFailure(group, revision string, err QueryExecutionError)
	LogScriptFailure(group, revision string, err ScriptExecutionError)
	LogConnectionRetry(group, revision string, attempt int, wait time.Duration, err error)

	Info(msg string, args ...any)
}

type benchLogger struct {
	logger *pterm.Logger
}

type noopLogger struct{}

// NewLogger returns a Logger writing to stderr at the given level.
func NewLogger(level pterm.LogLevel) Logger {
	return &benchLogger{
		logger: pterm.DefaultLogger.WithLevel(level).WithWriter(os.Stderr),
	}
}

func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *benchLogger) LogRunStart(groups []config.QueryGroup) {
	revisions := 0
	for _, g := range groups {
		revisions += len(g.Revisions)
	}
	l.logger.Info("starting benchmark run", l.logger.Args(
		"groups", len(groups),
		"revisions", revisions,
	))
}

func (l *benchLogger) LogRunComplete(s *Summary) {
	l.logger.Info("benchmark run complete", l.logger.Args(
		"run_id", s.RunID.String(),
		"duration", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond),
	))
}

func (l *benchLogger) LogGroupStart(g config.QueryGroup) {
	l.logger.Info("benchmarking query group", l.logger.Args(
		"group", g.Name,
		"revisions", len(g.Revisions),
	))
}

func (l *benchLogger) LogRevisionStart(group string, r config.Revision) {
	l.logger.Debug("starting revision", l.logger.Args(
		"group", group,
		"revision", r.Name,
		"pre_script", r.HasPreScript(),
		"post_script", r.HasPostScript(),
	))
}

func (l *benchLogger) LogRevisionComplete(r *RevisionResult) {
	args := []any{
		"group", r.Group,
		"revision", r.Revision,
		"status", r.Status,
		"samples", len(r.Samples),
		"failed", r.FailedIterations,
	}
	if r.Stats != nil {
		args = append(args, "mean", r.Stats.Mean, "median", r.Stats.Median)
	}

	if r.Status == StatusCompleted {
		l.logger.Info("revision complete", l.logger.Args(args...))
		return
	}
	if r.SetupError != nil {
		args = append(args, "error", r.SetupError.Error())
	}
	l.logger.Warn("revision did not complete", l.logger.Args(args...))
}

func (l *benchLogger) LogStateTransition(group, revision string, from, to State) {
	l.logger.Debug("revision state change", l.logger.Args(
		"group", group,
		"revision", revision,
		"from", from,
		"to", to,
	))
}

func (l *benchLogger) LogIterationFailure(group, revision string, err QueryExecutionError) {
	l.logger.Warn("query iteration failed", l.logger.Args(
		"group", group,
		"revision", revision,
		"iteration", err.Iteration,
		"error", err.Err.Error(),
	))
}

func (l *benchLogger) LogScriptFailure(group, revision string, err ScriptExecutionError) {
	args := l.logger.Args(
		"group", group,
		"revision", revision,
		"stage", err.Stage,
		"error", err.Err.Error(),
	)
	if err.Stage == StagePreScript {
		l.logger.Error("pre_script failed, skipping timing", args)
		return
	}
	l.logger.Warn("post_script failed", args)
}

func (l *benchLogger) LogConnectionRetry(group, revision string, attempt int, wait time.Duration, err error) {
	l.logger.Warn("unable to open session, retrying", l.logger.Args(
		"group", group,
		"revision", revision,
		"attempt", attempt,
		"wait", wait.Round(time.Millisecond),
		"error", err.Error(),
	))
}

func (l *benchLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args...))
}

func (l *noopLogger) LogRunStart(groups []config.QueryGroup)                                                {}
func (l *noopLogger) LogRunComplete(s *Summary)                                                             {}
func (l *noopLogger) LogGroupStart(g config.QueryGroup)                                                     {}
func (l *noopLogger) LogRevisionStart(group string, r config.Revision)                                      {}
func (l *noopLogger) LogRevisionComplete(r *RevisionResult)                                                 {}
func (l *noopLogger) LogStateTransition(group, revision string, from, to State)                             {}
func (l *noopLogger) LogIterationFailure(group, revision string, err QueryExecutionError)                   {}
func (l *noopLogger) LogScriptFailure(group, revision string, err ScriptExecutionError)                     {}
func (l *noopLogger) LogConnectionRetry(group, revision string, attempt int, wait time.Duration, err error) {}
func (l *noopLogger) Info(msg string, args ...any)                                                          {}
