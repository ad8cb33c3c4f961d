package expression

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// BlinkConfig configures the blink cycle.
type BlinkConfig struct {
	// ClosedPose is the eye pose shown while the eyes are shut.
	ClosedPose string `yaml:"closed_pose,omitempty"`

	// Hold is how long the eyes stay shut.
	Hold time.Duration `yaml:"hold,omitempty"`

	// MinInterval and MaxInterval bound the uniformly distributed pause
	// between blinks.
	MinInterval time.Duration `yaml:"min_interval,omitempty"`
	MaxInterval time.Duration `yaml:"max_interval,omitempty"`

	// Poll is how often a suspended cycle checks whether talking stopped.
	Poll time.Duration `yaml:"poll,omitempty"`
}

// DefaultBlinkConfig returns the stock blink timing: eyes shut for 120ms,
// every 2 to 5 seconds, polled every 100ms while talking.
func DefaultBlinkConfig() BlinkConfig {
	return BlinkConfig{
		ClosedPose:  EyesClosed,
		Hold:        120 * time.Millisecond,
		MinInterval: 2 * time.Second,
		MaxInterval: 5 * time.Second,
		Poll:        100 * time.Millisecond,
	}
}

func (c BlinkConfig) withDefaults() BlinkConfig {
	d := DefaultBlinkConfig()
	if c.ClosedPose == "" {
		c.ClosedPose = d.ClosedPose
	}
	if c.Hold <= 0 {
		c.Hold = d.Hold
	}
	if c.MinInterval <= 0 {
		c.MinInterval = d.MinInterval
	}
	if c.MaxInterval < c.MinInterval {
		c.MaxInterval = c.MinInterval
	}
	if c.Poll <= 0 {
		c.Poll = d.Poll
	}
	return c
}

// Blinker periodically closes the eyes while the character is not talking.
type Blinker struct {
	state  *State
	cfg    BlinkConfig
	rnd    *rand.Rand
	logger *slog.Logger

	blinks atomic.Int64
}

// BlinkerOption configures a Blinker.
type BlinkerOption func(*Blinker)

// WithRand sets the random source for blink intervals.
func WithRand(r *rand.Rand) BlinkerOption {
	return func(b *Blinker) {
		b.rnd = r
	}
}

// WithBlinkLogger sets the logger.
func WithBlinkLogger(l *slog.Logger) BlinkerOption {
	return func(b *Blinker) {
		b.logger = l
	}
}

// NewBlinker creates a Blinker writing to state. Zero fields in cfg take
// their DefaultBlinkConfig values.
func NewBlinker(state *State, cfg BlinkConfig, opts ...BlinkerOption) *Blinker {
	b := &Blinker{
		state:  state,
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rnd == nil {
		b.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return b
}

// Config returns the effective configuration.
func (b *Blinker) Config() BlinkConfig { return b.cfg }

// Blinks returns the number of completed blinks.
func (b *Blinker) Blinks() int64 { return b.blinks.Load() }

// Run blinks until ctx is done. It always returns ctx.Err().
// A Blinker must not be run from more than one goroutine at a time.
func (b *Blinker) Run(ctx context.Context) error {
	for {
		if b.state.Talking() {
			if err := sleep(ctx, b.cfg.Poll); err != nil {
				return err
			}
			continue
		}

		var prev string
		b.state.Update(func(s *Snapshot) {
			prev = s.Eyes
			s.Eyes = b.cfg.ClosedPose
		})
		err := sleep(ctx, b.cfg.Hold)
		// Restore only if nobody changed the eyes during the blink.
		b.state.Update(func(s *Snapshot) {
			if s.Eyes == b.cfg.ClosedPose {
				s.Eyes = prev
			}
		})
		if err != nil {
			return err
		}
		n := b.blinks.Add(1)
		next := b.interval()
		b.logger.Debug("expression: blink", "count", n, "restored", prev, "next", next)

		if err := sleep(ctx, next); err != nil {
			return err
		}
	}
}

func (b *Blinker) interval() time.Duration {
	span := b.cfg.MaxInterval - b.cfg.MinInterval
	if span <= 0 {
		return b.cfg.MinInterval
	}
	return b.cfg.MinInterval + time.Duration(b.rnd.Int64N(int64(span)))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
