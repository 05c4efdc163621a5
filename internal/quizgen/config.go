package quizgen

import (
	"fmt"
	"time"
)

// Config controls the generation pipeline.
type Config struct {
	// MaxAttempts bounds the number of backend calls per generation.
	MaxAttempts int `mapstructure:"max_attempts"`

	// InitialWait, MaxWait and Multiplier shape the exponential backoff
	// between attempts.
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`

	// CallTimeout bounds a single backend call. Zero disables the bound.
	CallTimeout time.Duration `mapstructure:"call_timeout"`

	// DebounceWindow is how long after a submission an identical request
	// joins the in-flight generation instead of starting a new one.
	// Zero disables debouncing.
	DebounceWindow time.Duration `mapstructure:"debounce_window"`

	// MaxAvoidPrompts caps how many accepted prompts a retry prompt lists
	// as already covered.
	MaxAvoidPrompts int `mapstructure:"max_avoid_prompts"`
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		InitialWait:     1 * time.Second,
		MaxWait:         10 * time.Second,
		Multiplier:      2.0,
		CallTimeout:     60 * time.Second,
		DebounceWindow:  3 * time.Second,
		MaxAvoidPrompts: 50,
	}
}

// Validate reports settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1, got %g", c.Multiplier)
	}
	if c.InitialWait < 0 || c.MaxWait < 0 || c.CallTimeout < 0 || c.DebounceWindow < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}
