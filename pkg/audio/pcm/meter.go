package pcm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Meter defaults.
const (
	DefaultMeterChunk     = 100 * time.Millisecond
	DefaultMeterThreshold = 1.0
)

// AmplitudeFunc receives the result of one metered chunk. speaking reports
// whether percent exceeded the threshold.
type AmplitudeFunc func(speaking bool, percent float64)

// Meter splits a PCM stream into fixed-duration chunks and reports the peak
// amplitude of each one. The zero value meters 16kHz mono audio in 100ms
// chunks with a 1% threshold, as fast as the reader delivers.
type Meter struct {
	Format Format

	// Chunk is the duration of audio per callback.
	Chunk time.Duration

	// Threshold is the amplitude percent above which a chunk counts as
	// speech.
	Threshold float64

	// Realtime paces callbacks to the audio clock, one chunk per chunk
	// duration, the way an output device consumes them.
	Realtime bool

	// Output, when set, receives every chunk before its callback, e.g. an
	// audio device.
	Output Writer

	level AtomicFloat32
}

// Level returns the percent of the last metered chunk.
func (m *Meter) Level() float64 {
	return float64(m.level.Load())
}

// Run meters r until EOF, cancellation or an output error. A short final
// chunk is metered too. Run returns nil on EOF.
func (m *Meter) Run(ctx context.Context, r io.Reader, fn AmplitudeFunc) error {
	chunk := m.Chunk
	if chunk <= 0 {
		chunk = DefaultMeterChunk
	}
	threshold := m.Threshold
	if threshold <= 0 {
		threshold = DefaultMeterThreshold
	}
	size := m.Format.BytesInDuration(chunk)
	if size <= 0 {
		return fmt.Errorf("pcm: chunk %v too short for %v", chunk, m.Format)
	}

	buf := make([]byte, size)
	next := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			c := m.Format.DataChunk(buf[:n])
			if m.Output != nil {
				if err := m.Output.Write(c); err != nil {
					return fmt.Errorf("pcm: write output: %w", err)
				}
			}
			if m.Realtime {
				next = next.Add(c.Duration())
				if err := sleepUntil(ctx, next); err != nil {
					return err
				}
			}
			pct := c.PeakPercent()
			m.level.Store(float32(pct))
			if fn != nil {
				fn(pct > threshold, pct)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
	}
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
