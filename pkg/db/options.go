// SPDX-License-Identifier: Apache-2.0

package db

type options struct {
	// run the session in a transaction that is rolled back on Close
	rollback bool

	// postgres search_path for the session
	searchPath string
}

type Option func(*options)

// WithRollback runs the whole session inside a transaction that is rolled
// back when the session is closed, leaving the target database unchanged by
// scripts and queries that the engine executes transactionally.
func WithRollback() Option {
	return func(o *options) {
		o.rollback = true
	}
}

// WithSearchPath sets the Postgres search_path for the session. It has no
// effect on other engines.
func WithSearchPath(schema string) Option {
	return func(o *options) {
		o.searchPath = schema
	}
}
