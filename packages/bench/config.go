package bench

import "fmt"

const (
	// DefaultNumber is how many iterations a run executes when unset.
	DefaultNumber = 100
	// DefaultParallel is the worker count when unset.
	DefaultParallel = 8
)

// Config holds the knobs for one benchmark run.
type Config struct {
	Number   int               // iterations of the request list
	Parallel int               // concurrent workers
	Rate     float64           // iterations per second across all workers, 0 disables the cap
	Requests []string          // request names sent in order, every iteration
	Vars     map[string]string // merged context variables
}

func (c Config) withDefaults() Config {
	if c.Number <= 0 {
		c.Number = DefaultNumber
	}
	if c.Parallel <= 0 {
		c.Parallel = DefaultParallel
	}
	return c
}

// Validate checks the run is well formed before any worker starts.
func (c Config) Validate() error {
	if len(c.Requests) == 0 {
		return fmt.Errorf("no requests to benchmark")
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate cannot be negative")
	}
	return nil
}
