package graph

import (
	"log/slog"

	"reelsmith/internal/logging"
)

const defaultMaxSteps = 100

type options struct {
	logger       *slog.Logger
	checkpointer CheckpointStore
	reporter     Reporter
	sequential   bool
	totalSteps   int
	maxSteps     int
}

func defaultOptions() options {
	return options{logger: logging.NewNop(), maxSteps: defaultMaxSteps}
}

// Option configures a compiled graph.
type Option func(*options)

// WithLogger routes executor logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCheckpointer snapshots state after every node into store.
func WithCheckpointer(store CheckpointStore) Option {
	return func(o *options) { o.checkpointer = store }
}

// WithReporter notifies r after every node completes.
func WithReporter(r Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithSequentialFanOut runs fan-out branches one after another in declaration
// order instead of concurrently.
func WithSequentialFanOut() Option {
	return func(o *options) { o.sequential = true }
}

// WithTotalSteps sets the step total reported when the state carries none.
func WithTotalSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.totalSteps = n
		}
	}
}

// WithMaxSteps bounds the number of node executions per run. A run that hits
// the limit fails with an error in state.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}
