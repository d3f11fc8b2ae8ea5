package runprov

import "log/slog"

// DefaultWorkers is the default number of artifacts processed concurrently.
const DefaultWorkers = 4

// config holds configuration shared by CollectSubjects and Assemble.
type config struct {
	logger       *slog.Logger
	workers      int
	maxEntrySize uint64

	// mapper builds the statement once subjects are known.
	mapper func(*RunFacts, *WorkflowFacts, []Subject) *Statement
}

// Option configures subject collection and assembly.
type Option func(*config)

// WithLogger sets the logger used for advisory warnings and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithWorkers sets how many artifacts are fetched, extracted, and hashed
// concurrently. Values below 1 process artifacts one at a time. The
// resulting subject list does not depend on the worker count.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithMaxEntrySize limits the uncompressed size of any single archive entry.
// Zero means no limit.
func WithMaxEntrySize(n uint64) Option {
	return func(c *config) {
		c.maxEntrySize = n
	}
}

func newConfig(opts ...Option) *config {
	c := &config{
		workers: DefaultWorkers,
		mapper:  MapProvenance,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.workers < 1 {
		c.workers = 1
	}
	return c
}
