package animator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/youzoom64/RTMP-streamer/pkg/compositor"
	"github.com/youzoom64/RTMP-streamer/pkg/expression"
	"github.com/youzoom64/RTMP-streamer/pkg/framesink"
)

// stream is one rolling-window sub-stream. It is rewritten only when its
// pose changes.
type stream struct {
	sink *framesink.Sink
	tier compositor.Tier

	mu   sync.Mutex
	seq  uint64
	pose string
}

// update writes the next slot if pose differs from the last written pose.
// It reports whether a frame was written.
func (s *stream) update(ctx context.Context, r Renderer, pose string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pose == s.pose {
		return 0, false, nil
	}
	data, err := r.EncodeTier(ctx, s.tier, pose)
	if err != nil {
		return 0, false, err
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	seq := s.seq
	if err := s.sink.WriteBytes(seq, data); err != nil {
		return 0, false, err
	}
	s.seq++
	s.pose = pose
	return seq, true, nil
}

// fill writes pose into every slot of the window.
func (s *stream) fill(ctx context.Context, r Renderer, pose string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := r.EncodeTier(ctx, s.tier, pose)
	if err != nil {
		return err
	}
	if err := writeN(ctx, s.sink, 0, s.sink.Window(), data); err != nil {
		return err
	}
	s.seq = uint64(s.sink.Window())
	s.pose = pose
	return nil
}

func writeN(ctx context.Context, sink *framesink.Sink, from uint64, n int, data []byte) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.WriteBytes(from+uint64(i), data); err != nil {
			return err
		}
	}
	return nil
}

// seed writes the initial frames so the encoder has buffered input before
// the loop starts.
func (a *Animator) seed(ctx context.Context) error {
	snap := a.state.Snapshot()
	start := time.Now()

	if a.cfg.Mode == ModeFull {
		if err := a.full.Clear(); err != nil {
			return err
		}
		data, err := a.renderer.EncodeFrame(ctx, snap.Mouth, snap.Eyes)
		if err != nil {
			return fmt.Errorf("animator: seed: %w", err)
		}
		n := a.cfg.SeedFrames()
		if err := writeN(ctx, a.full, 0, n, data); err != nil {
			return fmt.Errorf("animator: seed: %w", err)
		}
		a.seq = uint64(n)
		a.logger.Info("animator: seeded", "frames", n, "elapsed", time.Since(start))
		return nil
	}

	for _, s := range []*framesink.Sink{a.base, a.mouths.sink, a.eyes.sink} {
		if err := s.Clear(); err != nil {
			return err
		}
	}
	base, err := a.renderer.EncodeBase(ctx)
	if err != nil {
		return fmt.Errorf("animator: seed base: %w", err)
	}
	if err := writeN(ctx, a.base, 0, a.cfg.WindowSize, base); err != nil {
		return fmt.Errorf("animator: seed base: %w", err)
	}
	if err := a.mouths.fill(ctx, a.renderer, snap.Mouth); err != nil {
		return fmt.Errorf("animator: seed mouth: %w", err)
	}
	if err := a.eyes.fill(ctx, a.renderer, snap.Eyes); err != nil {
		return fmt.Errorf("animator: seed eyes: %w", err)
	}
	a.logger.Info("animator: seeded", "window", a.cfg.WindowSize, "elapsed", time.Since(start))
	return nil
}

// renderLoop renders on a fixed schedule until ctx is done. It always
// returns nil; frame errors are logged and the loop continues.
func (a *Animator) renderLoop(ctx context.Context, log *slog.Logger) error {
	interval := a.cfg.Interval()
	next := time.Now()
	for {
		if ctx.Err() != nil {
			return nil
		}

		a.tick(ctx, log, a.state.Snapshot())

		next = next.Add(interval)
		wait := time.Until(next)
		if wait <= 0 {
			// Overrun: drop the missed ticks and continue from now.
			a.overruns.Add(1)
			log.Debug("animator: frame overrun", "late", -wait)
			next = time.Now()
			continue
		}
		if err := sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

func (a *Animator) tick(ctx context.Context, log *slog.Logger, snap expression.Snapshot) {
	if a.cfg.Mode == ModeFull {
		data, err := a.renderer.EncodeFrame(ctx, snap.Mouth, snap.Eyes)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("animator: render frame", "seq", a.seq, "error", err)
			}
			return
		}
		if ctx.Err() != nil {
			// Stopped while rendering; the frame is dropped.
			return
		}
		seq := a.seq
		if err := a.full.WriteBytes(seq, data); err != nil {
			log.Error("animator: write frame", "seq", seq, "error", err)
			return
		}
		a.seq++
		a.written(seq)
		return
	}

	if seq, ok, err := a.eyes.update(ctx, a.renderer, snap.Eyes); err != nil {
		if ctx.Err() == nil {
			log.Error("animator: eyes stream", "pose", snap.Eyes, "error", err)
		}
	} else if ok {
		log.Debug("animator: eyes stream updated", "pose", snap.Eyes, "slot", a.eyes.sink.Slot(seq))
		a.written(seq)
	}
	// Commands may change the mouth without going through MouthSync.
	if _, _, err := a.mouths.update(ctx, a.renderer, snap.Mouth); err != nil && ctx.Err() == nil {
		log.Error("animator: mouth stream", "pose", snap.Mouth, "error", err)
	}
}

func (a *Animator) written(seq uint64) {
	now := time.Now()
	a.frames.Add(1)
	a.lastFrame.Store(now.UnixNano())
	if a.observer != nil {
		a.observer(seq, now)
	}
}

// onMouthChange rewrites the mouth sub-stream as soon as speech changes
// the mouth, without waiting for the next tick.
func (a *Animator) onMouthChange(pose string) {
	if a.cfg.Mode != ModeLayered || a.Phase() != PhaseRunning {
		return
	}
	if seq, ok, err := a.mouths.update(context.Background(), a.renderer, pose); err != nil {
		a.logger.Error("animator: mouth stream", "pose", pose, "error", err)
	} else if ok {
		a.logger.Debug("animator: mouth stream updated", "pose", pose, "slot", a.mouths.sink.Slot(seq))
	}
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
