// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"errors"
	"fmt"
)

// ErrRunAborted is returned by Orchestrator.Run when the run was cancelled
// before every revision could complete.
var ErrRunAborted = errors.New("benchmark run aborted")

// ScriptExecutionError is a pre_script or post_script failure.
type ScriptExecutionError struct {
	Stage Stage
	Err   error
}

func (e ScriptExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Err)
}

func (e ScriptExecutionError) Unwrap() error {
	return e.Err
}

// QueryExecutionError is a failed timed iteration. It is counted, never
// fatal for the revision.
type QueryExecutionError struct {
	Iteration int
	Err       error
}

func (e QueryExecutionError) Error() string {
	return fmt.Sprintf("iteration %d failed: %s", e.Iteration, e.Err)
}

func (e QueryExecutionError) Unwrap() error {
	return e.Err
}
