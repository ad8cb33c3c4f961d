package animator

import (
	"errors"
	"time"

	"github.com/youzoom64/RTMP-streamer/pkg/expression"
)

// Defaults for zero Config fields.
const (
	DefaultFPS          = 30
	DefaultSeedDuration = 2 * time.Second
	DefaultWindowSize   = 60
	DefaultStopTimeout  = 2 * time.Second
	DefaultPrefix       = "frame"
)

// Config configures an Animator.
type Config struct {
	// AssetRoot is the directory holding the layer images. Required.
	AssetRoot string `yaml:"asset_root"`

	// OutputDir receives the frame files. Required.
	OutputDir string `yaml:"output_dir"`

	// ImageExt is the layer file extension, ".png" by default.
	ImageExt string `yaml:"image_ext,omitempty"`

	// PositionMap is an optional JSON file mapping part names to files.
	PositionMap string `yaml:"position_map,omitempty"`

	// CacheDir holds the persistent encoded-frame cache. Empty keeps the
	// cache in memory for the lifetime of the Animator.
	CacheDir string `yaml:"cache_dir,omitempty"`

	FPS          int           `yaml:"fps,omitempty"`
	SeedDuration time.Duration `yaml:"seed_duration,omitempty"`
	StopTimeout  time.Duration `yaml:"stop_timeout,omitempty"`

	Mode Mode `yaml:"mode,omitempty"`

	// WindowSize is the slot count of each sub-stream in ModeLayered.
	WindowSize int `yaml:"window_size,omitempty"`

	// Prefix names the frame files in ModeFull.
	Prefix string `yaml:"prefix,omitempty"`

	// CanvasWidth and CanvasHeight fix the frame size. Zero takes the size
	// of the first loaded layer.
	CanvasWidth  int `yaml:"canvas_width,omitempty"`
	CanvasHeight int `yaml:"canvas_height,omitempty"`

	Blink expression.BlinkConfig `yaml:"blink,omitempty"`

	// SpeakingThreshold is the amplitude percent above which speech opens
	// the mouth.
	SpeakingThreshold float64 `yaml:"speaking_threshold,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	if c.SeedDuration <= 0 {
		c.SeedDuration = DefaultSeedDuration
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	if c.WindowSize <= 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	return c
}

func (c Config) validate() error {
	if c.AssetRoot == "" {
		return errors.New("animator: asset root is required")
	}
	if c.OutputDir == "" {
		return errors.New("animator: output dir is required")
	}
	return nil
}

// Interval returns the frame interval.
func (c Config) Interval() time.Duration {
	return time.Second / time.Duration(c.withDefaults().FPS)
}

// SeedFrames returns the number of frames written while seeding in
// ModeFull.
func (c Config) SeedFrames() int {
	c = c.withDefaults()
	return int(c.SeedDuration * time.Duration(c.FPS) / time.Second)
}
