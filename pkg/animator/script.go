package animator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Offset is a cue time relative to the start of a script. It is written
// as a Go duration string ("1.5s") in YAML and JSON.
type Offset time.Duration

// MarshalText implements encoding.TextMarshaler.
func (o Offset) MarshalText() ([]byte, error) {
	return []byte(time.Duration(o).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Offset) UnmarshalText(b []byte) error {
	d, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("animator: cue offset: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("animator: negative cue offset %s", b)
	}
	*o = Offset(d)
	return nil
}

// Cue is one timed expression command. Empty poses are left unchanged; a
// nil Talking leaves the talking flag alone.
type Cue struct {
	At      Offset `yaml:"at" json:"at"`
	Mouth   string `yaml:"mouth,omitempty" json:"mouth,omitempty"`
	Eyes    string `yaml:"eyes,omitempty" json:"eyes,omitempty"`
	Talking *bool  `yaml:"talking,omitempty" json:"talking,omitempty"`
}

// Script is a list of cues played against the expression state.
type Script struct {
	// Loop restarts the script after Length.
	Loop bool `yaml:"loop,omitempty" json:"loop,omitempty"`

	// Length is the duration of one pass. Zero means the offset of the last
	// cue.
	Length Offset `yaml:"length,omitempty" json:"length,omitempty"`

	Cues []Cue `yaml:"cues" json:"cues"`
}

var errEmptyLoop = errors.New("animator: looping script has zero length")

// Play applies the cues of s at their offsets. It returns nil when a
// non-looping script is done and ctx.Err() when ctx ends first.
func (a *Animator) Play(ctx context.Context, s Script) error {
	cues := slices.Clone(s.Cues)
	slices.SortStableFunc(cues, func(x, y Cue) int {
		return int(time.Duration(x.At) - time.Duration(y.At))
	})
	length := time.Duration(s.Length)
	if length == 0 && len(cues) > 0 {
		length = time.Duration(cues[len(cues)-1].At)
	}
	if s.Loop && length <= 0 {
		return errEmptyLoop
	}

	for pass := 0; ; pass++ {
		start := time.Now()
		for _, c := range cues {
			if err := sleep(ctx, time.Until(start.Add(time.Duration(c.At)))); err != nil {
				return err
			}
			a.apply(c)
		}
		if !s.Loop {
			return nil
		}
		if err := sleep(ctx, time.Until(start.Add(length))); err != nil {
			return err
		}
		a.logger.Debug("animator: script pass done", "pass", pass)
	}
}

func (a *Animator) apply(c Cue) {
	if c.Mouth != "" || c.Eyes != "" {
		a.SetExpression(c.Mouth, c.Eyes)
	}
	if c.Talking != nil {
		a.state.SetTalking(*c.Talking)
	}
}
