package animator

import (
	"fmt"
	"strings"
)

// Phase is the lifecycle state of an Animator.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSeeding
	PhaseRunning
	PhaseStopping
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSeeding:
		return "seeding"
	case PhaseRunning:
		return "running"
	case PhaseStopping:
		return "stopping"
	}
	return fmt.Sprintf("Phase(%d)", int32(p))
}

// Mode selects how frames are handed to the encoder.
type Mode int

const (
	// ModeFull writes one stream of complete frames with growing sequence
	// numbers.
	ModeFull Mode = iota

	// ModeLayered writes three sub-streams (base, mouth, eyes) that the
	// encoder overlays. Each sub-stream reuses a fixed window of slot files
	// and is only rewritten when its part changes.
	ModeLayered
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeLayered:
		return "layered"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "full" or "layered".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return ModeFull, nil
	case "layered", "layer", "3stream":
		return ModeLayered, nil
	}
	return 0, fmt.Errorf("animator: unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
