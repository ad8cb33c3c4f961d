// Package framesink hands frames to an external video encoder through
// numbered PNG files in a directory.
//
// Every file is written to a temporary name first and renamed into place,
// so a reader polling the directory never sees a partial frame. In
// windowed mode sequence numbers wrap modulo the window size and the same
// slot files are overwritten in turn.
package framesink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sink writes numbered frame files.
type Sink struct {
	dir    string
	prefix string
	window uint64
}

// Option configures a Sink.
type Option func(*Sink)

// WithWindow makes the sink reuse n slot files modulo n.
func WithWindow(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.window = uint64(n)
		}
	}
}

// New creates dir if needed and returns a sink writing prefix_NNNNNN.png
// files into it.
func New(dir, prefix string, opts ...Option) (*Sink, error) {
	if prefix == "" {
		return nil, fmt.Errorf("framesink: empty prefix")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("framesink: create dir: %w", err)
	}
	s := &Sink{dir: dir, prefix: prefix}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the output directory.
func (s *Sink) Dir() string { return s.dir }

// Window returns the slot count, or 0 when frames are never reused.
func (s *Sink) Window() int { return int(s.window) }

// Slot maps a sequence number to its file index.
func (s *Sink) Slot(seq uint64) uint64 {
	if s.window > 0 {
		return seq % s.window
	}
	return seq
}

// Path returns the file path for seq.
func (s *Sink) Path(seq uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%06d.png", s.prefix, s.Slot(seq)))
}

// Pattern returns the printf-style input pattern for the encoder.
func (s *Sink) Pattern() string {
	return filepath.Join(s.dir, s.prefix+"_%06d.png")
}

// WriteBytes stores already encoded PNG data under seq.
func (s *Sink) WriteBytes(seq uint64, data []byte) error {
	dst := s.Path(seq)
	tmp, err := os.CreateTemp(s.dir, "."+s.prefix+"-*.tmp")
	if err != nil {
		return fmt.Errorf("framesink: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("framesink: write frame %d: %w", seq, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("framesink: write frame %d: %w", seq, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("framesink: publish frame %d: %w", seq, err)
	}
	return nil
}

// Clear removes all frame files of this sink.
func (s *Sink) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("framesink: clear: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, s.prefix+"_") || !strings.HasSuffix(name, ".png") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("framesink: clear: %w", err)
		}
	}
	return nil
}

// Files returns the names of the frame files currently on disk, sorted.
func (s *Sink) Files() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, s.prefix+"_*.png"))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = filepath.Base(m)
	}
	return names, nil
}
