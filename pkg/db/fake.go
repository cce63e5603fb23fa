// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"sync"
	"time"
)

// FakeResult is the scripted outcome of one ExecTimedQuery call on a
// FakeSession.
type FakeResult struct {
	Duration time.Duration
	Err      error
}

// FakeSession is a fake implementation of `Session` that records every call
// and replays scripted results. Query call i returns Results[i] while there
// are results left, and the last result afterwards; with no results every
// query takes one millisecond.
type FakeSession struct {
	Results      []FakeResult
	ScriptErrors map[string]error
	CloseErr     error

	mu      sync.Mutex
	scripts []string
	queries []string
	closed  bool
}

func (s *FakeSession) ExecScript(ctx context.Context, script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scripts = append(s.scripts, script)
	return s.ScriptErrors[script]
}

func (s *FakeSession) ExecTimedQuery(ctx context.Context, query string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.queries)
	s.queries = append(s.queries, query)

	if len(s.Results) == 0 {
		return time.Millisecond, nil
	}
	r := s.Results[min(i, len(s.Results)-1)]
	if r.Err != nil {
		return 0, r.Err
	}
	return r.Duration, nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return s.CloseErr
}

// Scripts returns the scripts executed so far, in order.
func (s *FakeSession) Scripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.scripts...)
}

// QueryCalls returns the number of ExecTimedQuery calls made so far.
func (s *FakeSession) QueryCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queries)
}

// Closed reports whether Close has been called.
func (s *FakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}
