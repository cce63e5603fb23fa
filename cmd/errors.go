// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitRegressed  = 1
	ExitConfig     = 2
	ExitAborted    = 3
	ExitCleanup    = 4
	exitUnexpected = ExitConfig
)

// ExitError carries the exit code of a command to main. Err is nil when the
// outcome has already been reported, as for a regression.
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps the error returned by Execute to a process exit code.
// Errors raised by cobra itself, such as unknown flags or a missing
// argument, are configuration errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitUnexpected
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var exitErr ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return ""
	}
	return err.Error()
}

type RegressionError struct {
	Revisions []string
}

func (e RegressionError) Error() string {
	return fmt.Sprintf("%d revision(s) regressed: %v", len(e.Revisions), e.Revisions)
}

type CleanupError struct {
	Revisions []string
}

func (e CleanupError) Error() string {
	return fmt.Sprintf("cleanup failed for %d revision(s): %v", len(e.Revisions), e.Revisions)
}

type ConnectionFailureError struct {
	Revisions []string
}

func (e ConnectionFailureError) Error() string {
	return fmt.Sprintf("unable to open a session for %d revision(s): %v", len(e.Revisions), e.Revisions)
}
