// SPDX-License-Identifier: Apache-2.0

package bench

import "time"

const (
	DefaultIterations     = 5
	DefaultConnectRetries = 3

	defaultRetryInterval    = 200 * time.Millisecond
	defaultRetryMaxInterval = 5 * time.Second
)

type options struct {
	// number of timed iterations per revision
	iterations int

	// number of untimed iterations run before timing starts
	warmup int

	// maximum duration of one timed query, 0 for no limit
	queryTimeout time.Duration

	// number of query groups benchmarked at the same time
	concurrency int

	// number of times opening a session is retried on connection errors
	connectRetries   int
	retryInterval    time.Duration
	retryMaxInterval time.Duration

	logger   Logger
	progress func(Progress)
	onGroup  func(GroupResult)
}

type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		iterations:       DefaultIterations,
		concurrency:      1,
		connectRetries:   DefaultConnectRetries,
		retryInterval:    defaultRetryInterval,
		retryMaxInterval: defaultRetryMaxInterval,
		logger:           NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.iterations = max(o.iterations, 1)
	o.warmup = max(o.warmup, 0)
	o.concurrency = max(o.concurrency, 1)
	o.connectRetries = max(o.connectRetries, 0)

	return o
}

// WithIterations sets the number of timed iterations per revision. Values
// below one are raised to one.
func WithIterations(n int) Option {
	return func(o *options) {
		o.iterations = n
	}
}

// WithWarmup sets a number of iterations run before timing starts. Their
// durations and failures are discarded.
func WithWarmup(n int) Option {
	return func(o *options) {
		o.warmup = n
	}
}

// WithQueryTimeout bounds each timed query. A query exceeding the timeout
// counts as a failed iteration.
func WithQueryTimeout(d time.Duration) Option {
	return func(o *options) {
		o.queryTimeout = d
	}
}

// WithConcurrency sets how many query groups run at the same time. Revisions
// within a group always run one after the other.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithConnectRetries sets how many times opening a session is retried after
// a connection error, with exponential backoff between attempts.
func WithConnectRetries(n int) Option {
	return func(o *options) {
		o.connectRetries = n
	}
}

// WithRetryBackoff sets the initial and maximum wait between connection
// attempts.
func WithRetryBackoff(interval, maxInterval time.Duration) Option {
	return func(o *options) {
		o.retryInterval = interval
		o.retryMaxInterval = maxInterval
	}
}

func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithProgress registers a callback invoked after every timed iteration. It
// is called from several goroutines when groups run concurrently.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithGroupCallback registers a callback invoked once a query group is
// complete. Calls are serialized.
func WithGroupCallback(fn func(GroupResult)) Option {
	return func(o *options) {
		o.onGroup = fn
	}
}
