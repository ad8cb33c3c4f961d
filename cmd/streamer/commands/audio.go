package commands

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/youzoom64/RTMP-streamer/pkg/audio/pcm"
)

// wavTap records the audio metered by speech into a WAV file. The header
// is written with the first chunk and patched with the final length on
// Close.
type wavTap struct {
	mu     sync.Mutex
	f      *os.File
	w      pcm.Writer
	format pcm.Format
	n      int64
}

func createWAVTap(path string) (*wavTap, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audio out: %w", err)
	}
	return &wavTap{f: f}, nil
}

func (t *wavTap) Write(c pcm.Chunk) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		t.format = c.Format()
		if err := pcm.WriteWAVHeader(t.f, t.format, 0); err != nil {
			return err
		}
		t.w = pcm.ChunkWriter(t.f)
	} else if c.Format() != t.format {
		return fmt.Errorf("audio out: format changed from %v to %v", t.format, c.Format())
	}
	if err := t.w.Write(c); err != nil {
		return err
	}
	t.n += c.Len()
	return nil
}

func (t *wavTap) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w != nil {
		if _, err := t.f.Seek(0, io.SeekStart); err != nil {
			t.f.Close()
			return err
		}
		if err := pcm.WriteWAVHeader(t.f, t.format, uint32(t.n)); err != nil {
			t.f.Close()
			return err
		}
	}
	return t.f.Close()
}
