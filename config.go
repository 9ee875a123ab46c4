package depot

import (
	"runtime"

	"github.com/rs/zerolog"
)

// Config holds global configuration read when a World is created
var Config config = config{
	logger:          zerolog.Nop(),
	concurrency:     max(1, runtime.NumCPU()-2),
	initialCapacity: 4096,
	maxQueries:      4096,
}

type config struct {
	logger          zerolog.Logger
	concurrency     int
	initialCapacity int
	maxQueries      int
}

// SetLogger installs the logger new worlds derive theirs from
func (c *config) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// SetConcurrency sets how many chunks a parallel job is split into by default
func (c *config) SetConcurrency(n int) {
	c.concurrency = max(1, n)
}

// SetInitialCapacity sets the number of entity slots reserved up front
func (c *config) SetInitialCapacity(n int) {
	c.initialCapacity = max(1, n)
}

// SetMaxQueries caps how many distinct queries a world memoizes
func (c *config) SetMaxQueries(n int) {
	c.maxQueries = max(1, n)
}
