package service

import (
	"math"
	"time"
)

const (
	DefaultBackoffBase   = 1500 * time.Millisecond
	DefaultBackoffFactor = 1.6
	DefaultBackoffCap    = 8000 * time.Millisecond
)

// BackoffConfig describes the reconnect delay schedule.
type BackoffConfig struct {
	Base   time.Duration
	Factor float64
	Cap    time.Duration
}

func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Base:   DefaultBackoffBase,
		Factor: DefaultBackoffFactor,
		Cap:    DefaultBackoffCap,
	}
}

// withDefaults fills zero or nonsensical fields with the defaults.
func (c BackoffConfig) withDefaults() BackoffConfig {
	if c.Base <= 0 {
		c.Base = DefaultBackoffBase
	}
	if c.Factor < 1 {
		c.Factor = DefaultBackoffFactor
	}
	if c.Cap <= 0 {
		c.Cap = DefaultBackoffCap
	}
	if c.Cap < c.Base {
		c.Cap = c.Base
	}
	return c
}

// Backoff is the reconnect delay. It grows by Factor per failure up to Cap
// and goes back to Base on Reset. After n calls to Grow it equals
// min(Base * Factor^n, Cap).
type Backoff struct {
	cfg     BackoffConfig
	steps   int
	current time.Duration
}

func NewBackoff(cfg BackoffConfig) *Backoff {
	cfg = cfg.withDefaults()
	return &Backoff{cfg: cfg, current: cfg.Base}
}

// Current returns the delay to use for the next reconnect attempt.
func (b *Backoff) Current() time.Duration {
	return b.current
}

// Grow advances the delay one step and returns the new value.
func (b *Backoff) Grow() time.Duration {
	if b.current < b.cfg.Cap {
		b.steps++
	}
	b.current = b.delay(b.steps)
	return b.current
}

// Reset puts the delay back to Base.
func (b *Backoff) Reset() {
	b.steps = 0
	b.current = b.cfg.Base
}

// delay is computed from the step count rather than by repeated
// multiplication, so rounding never accumulates.
func (b *Backoff) delay(n int) time.Duration {
	d := math.Round(float64(b.cfg.Base) * math.Pow(b.cfg.Factor, float64(n)))
	if d >= float64(b.cfg.Cap) {
		return b.cfg.Cap
	}
	return time.Duration(d)
}

func (b *Backoff) Config() BackoffConfig {
	return b.cfg
}
