package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by Config.Validate failures.
var ErrInvalidConfig = errors.New("invalid scoring config")

// Config controls the scoring engine.
type Config struct {
	// Parallelism bounds concurrent expression evaluations within one run.
	// 1 evaluates sequentially.
	// Default: 1.
	Parallelism int

	// ProgramCacheSize is the number of compiled expressions kept between runs.
	// 0 disables the cache.
	// Default: 1024.
	ProgramCacheSize int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Parallelism:      1,
		ProgramCacheSize: 1024,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be at least 1", ErrInvalidConfig)
	}
	if c.ProgramCacheSize < 0 {
		return fmt.Errorf("%w: program cache size cannot be negative", ErrInvalidConfig)
	}
	return nil
}
