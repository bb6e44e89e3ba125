// Package meta selects and drives the engine that runs a pattern.
//
// Patterns the breadth-first engine can handle are compiled to nfa bytecode
// and searched in time linear in the input, with an optional literal
// prefilter to jump over text that cannot start a match. Everything else
// is routed to a backtracking engine when the configuration allows it.
//
// The meta package also owns the conversion between Go strings and the
// code unit inputs the interpreter consumes, so callers see byte offsets.
package meta

import "time"

// Config controls engine selection and search limits.
//
// Example:
//
//	config := meta.DefaultConfig()
//	config.EnableFallback = false // Reject patterns the linear engine cannot run
//	engine, err := meta.Compile(`a(?<=a)b`, 0, config)
type Config struct {
	// EnablePrefilter enables literal-based prefiltering.
	// Default: true
	EnablePrefilter bool

	// MaxLiterals limits the number of prefix literals extracted for the
	// prefilter.
	// Default: 64
	MaxLiterals int

	// EnableFallback routes patterns the linear engine rejects to a
	// backtracking engine. When false such patterns fail to compile with
	// an error wrapping nfa.ErrUnsupported.
	// Default: true
	EnableFallback bool

	// FallbackTimeout bounds a single backtracking match attempt.
	// Zero means no limit.
	// Default: 0
	FallbackTimeout time.Duration

	// MemoryLimit aborts linear searches once the peak resident set of the
	// process exceeds this many bytes. Zero disables the check.
	// Default: 0
	MemoryLimit uint64

	// MaxRegisterArrays aborts a linear search whose live register arrays
	// exceed this count. Zero disables the check.
	// Default: 0
	MaxRegisterArrays int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnablePrefilter: true,
		MaxLiterals:     64,
		EnableFallback:  true,
	}
}

// Validate checks if the configuration is valid.
// Returns an error if any parameter is out of range.
//
// Valid ranges:
//   - MaxLiterals: 1 to 1,000 (when EnablePrefilter is set)
//   - FallbackTimeout: >= 0
//   - MaxRegisterArrays: >= 0
func (c Config) Validate() error {
	if c.EnablePrefilter {
		if c.MaxLiterals < 1 || c.MaxLiterals > 1_000 {
			return &ConfigError{
				Field:   "MaxLiterals",
				Message: "must be between 1 and 1,000",
			}
		}
	}

	if c.FallbackTimeout < 0 {
		return &ConfigError{
			Field:   "FallbackTimeout",
			Message: "must not be negative",
		}
	}

	if c.MaxRegisterArrays < 0 {
		return &ConfigError{
			Field:   "MaxRegisterArrays",
			Message: "must not be negative",
		}
	}

	return nil
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "regexp: invalid config: " + e.Field + ": " + e.Message
}
