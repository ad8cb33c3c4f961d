// Package animator runs the frame render loop of the character.
//
// An Animator owns the asset index, resolver, compositor, expression state
// and behavior generators. Start seeds the output with an initial run of
// frames and then renders on a fixed schedule until Stop:
//
//	Idle -> Seeding -> Running -> Stopping -> Idle
//
// The schedule is anchored at the start of the loop. A frame that takes
// longer than one interval moves the schedule to the current time instead
// of rendering a burst of late frames.
package animator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/youzoom64/RTMP-streamer/pkg/assets"
	"github.com/youzoom64/RTMP-streamer/pkg/compositor"
	"github.com/youzoom64/RTMP-streamer/pkg/expression"
	"github.com/youzoom64/RTMP-streamer/pkg/framecache"
	"github.com/youzoom64/RTMP-streamer/pkg/framesink"
	"github.com/youzoom64/RTMP-streamer/pkg/resolver"
)

// Sentinel errors.
var (
	ErrStopTimeout    = errors.New("animator: render loop did not stop in time")
	ErrAlreadyStarted = errors.New("animator: already started")
	ErrNotRunning     = errors.New("animator: not running")
	ErrStillStopping  = errors.New("animator: previous run has not exited")
)

// Renderer produces encoded frames. *compositor.Compositor implements it.
type Renderer interface {
	EncodeFrame(ctx context.Context, mouth, eyes string) ([]byte, error)
	EncodeBase(ctx context.Context) ([]byte, error)
	EncodeTier(ctx context.Context, t compositor.Tier, pose string) ([]byte, error)
}

// FrameObserver is called after every frame the render loop writes.
type FrameObserver func(seq uint64, at time.Time)

// Animator drives the character. Its methods are safe for concurrent use.
type Animator struct {
	cfg      Config
	logger   *slog.Logger
	idx      *assets.Index
	res      *resolver.Resolver
	comp     *compositor.Compositor
	renderer Renderer
	store    framecache.Store
	cache    *framecache.Cache

	state   *expression.State
	blinker *expression.Blinker
	mouth   *expression.MouthSync

	full   *framesink.Sink
	base   *framesink.Sink
	mouths *stream
	eyes   *stream

	observer  FrameObserver
	blinkOpts []expression.BlinkerOption
	speech    speechOptions

	mu      sync.Mutex // lifecycle
	phase   atomic.Int32
	session string
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
	seq     uint64

	speaking sync.Mutex

	frames    atomic.Int64
	overruns  atomic.Int64
	lastFrame atomic.Int64
}

// Option configures an Animator.
type Option func(*Animator)

// WithLogger sets the logger shared by all components.
func WithLogger(l *slog.Logger) Option {
	return func(a *Animator) {
		a.logger = l
	}
}

// WithRenderer replaces the compositor as frame source.
func WithRenderer(r Renderer) Option {
	return func(a *Animator) {
		a.renderer = r
	}
}

// WithFrameObserver registers fn to be called after each written frame.
func WithFrameObserver(fn FrameObserver) Option {
	return func(a *Animator) {
		a.observer = fn
	}
}

// WithBlinkerOptions passes options to the blink generator.
func WithBlinkerOptions(opts ...expression.BlinkerOption) Option {
	return func(a *Animator) {
		a.blinkOpts = append(a.blinkOpts, opts...)
	}
}

// New builds the asset index and all components. An unreadable asset root
// is returned as an error.
func New(cfg Config, opts ...Option) (*Animator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	a := &Animator{
		cfg:    cfg,
		logger: slog.Default(),
		state:  expression.NewState(),
		speech: speechOptions{realtime: true},
	}
	for _, opt := range opts {
		opt(a)
	}

	idxOpts := []assets.Option{assets.WithLogger(a.logger)}
	if cfg.ImageExt != "" {
		idxOpts = append(idxOpts, assets.WithExt(cfg.ImageExt))
	}
	idx, err := assets.Build(cfg.AssetRoot, idxOpts...)
	if err != nil {
		return nil, fmt.Errorf("animator: build index: %w", err)
	}
	a.idx = idx
	a.logger.Info("animator: asset index built", "root", idx.Root(), "files", idx.Files(), "keys", idx.Len())

	// Frames depend on both the image files and the map choosing them.
	namespace := idx.Fingerprint()
	resOpts := []resolver.Option{resolver.WithLogger(a.logger)}
	if cfg.PositionMap != "" {
		pm, err := resolver.LoadPositionMap(cfg.PositionMap, idx.Root())
		if err != nil {
			return nil, fmt.Errorf("animator: %w", err)
		}
		resOpts = append(resOpts, resolver.WithPositionMap(pm))
		namespace += "+" + pm.Fingerprint()
	}
	a.res = resolver.New(idx, resOpts...)

	if err := a.openCache(namespace); err != nil {
		return nil, err
	}
	compOpts := []compositor.Option{
		compositor.WithLogger(a.logger),
		compositor.WithFrameCache(a.cache),
	}
	if cfg.CanvasWidth > 0 && cfg.CanvasHeight > 0 {
		compOpts = append(compOpts, compositor.WithCanvasSize(cfg.CanvasWidth, cfg.CanvasHeight))
	}
	a.comp = compositor.New(a.res, compOpts...)
	if a.renderer == nil {
		a.renderer = a.comp
	}

	if err := a.openSinks(); err != nil {
		a.store.Close()
		return nil, err
	}

	a.blinker = expression.NewBlinker(a.state, cfg.Blink,
		append([]expression.BlinkerOption{expression.WithBlinkLogger(a.logger)}, a.blinkOpts...)...)
	a.mouth = expression.NewMouthSync(a.state, expression.WithOnChange(a.onMouthChange))
	return a, nil
}

func (a *Animator) openCache(namespace string) error {
	if a.cfg.CacheDir == "" {
		a.store = framecache.NewMemory()
	} else {
		s, err := framecache.OpenBadger(framecache.BadgerOptions{Dir: a.cfg.CacheDir, Logger: a.logger})
		if err != nil {
			return fmt.Errorf("animator: %w", err)
		}
		a.store = s
	}
	a.cache = framecache.New(a.store, namespace)
	if n, err := a.cache.Prune(context.Background()); err != nil {
		a.logger.Warn("animator: prune frame cache", "error", err)
	} else if n > 0 {
		a.logger.Info("animator: pruned stale frames", "count", n)
	}
	return nil
}

func (a *Animator) openSinks() error {
	var err error
	if a.cfg.Mode == ModeFull {
		a.full, err = framesink.New(a.cfg.OutputDir, a.cfg.Prefix)
		return err
	}
	win := framesink.WithWindow(a.cfg.WindowSize)
	if a.base, err = framesink.New(filepath.Join(a.cfg.OutputDir, "base"), "base", win); err != nil {
		return err
	}
	ms, err := framesink.New(filepath.Join(a.cfg.OutputDir, "mouth"), "mouth", win)
	if err != nil {
		return err
	}
	es, err := framesink.New(filepath.Join(a.cfg.OutputDir, "eyes"), "eyes", win)
	if err != nil {
		return err
	}
	a.mouths = &stream{sink: ms, tier: compositor.TierMouth}
	a.eyes = &stream{sink: es, tier: compositor.TierEyes}
	return nil
}

// Start seeds the output and starts the render loop and the blink
// generator. The loop runs until Stop is called or ctx is done.
func (a *Animator) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if Phase(a.phase.Load()) != PhaseIdle {
		return ErrAlreadyStarted
	}
	if a.exiting() {
		return ErrStillStopping
	}
	a.session = uuid.NewString()
	log := a.logger.With("session", a.session)
	a.phase.Store(int32(PhaseSeeding))

	if err := a.seed(ctx); err != nil {
		a.phase.Store(int32(PhaseIdle))
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return a.renderLoop(gctx, log) })
	g.Go(func() error {
		if err := a.blinker.Run(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	done := make(chan struct{})
	go func() {
		err := g.Wait()
		a.mu.Lock()
		a.runErr = err
		a.mu.Unlock()
		close(done)
	}()

	a.cancel, a.done = cancel, done
	a.phase.Store(int32(PhaseRunning))
	log.Info("animator: running", "mode", a.cfg.Mode, "fps", a.cfg.FPS, "output", a.cfg.OutputDir)
	return nil
}

// exiting reports whether goroutines of a previous run are still alive.
// a.mu must be held.
func (a *Animator) exiting() bool {
	if a.done == nil {
		return false
	}
	select {
	case <-a.done:
		return false
	default:
		return true
	}
}

// Stop cancels the render loop and waits up to timeout for it to exit. A
// non-positive timeout uses the configured StopTimeout. The Animator is
// Idle afterwards. After ErrStopTimeout, Start and Close return
// ErrStillStopping until Done is closed.
func (a *Animator) Stop(timeout time.Duration) error {
	a.mu.Lock()
	if Phase(a.phase.Load()) != PhaseRunning {
		a.mu.Unlock()
		return ErrNotRunning
	}
	a.phase.Store(int32(PhaseStopping))
	cancel, done, session := a.cancel, a.done, a.session
	a.mu.Unlock()

	if timeout <= 0 {
		timeout = a.cfg.StopTimeout
	}
	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var err error
	select {
	case <-done:
		a.mu.Lock()
		if a.runErr != nil && !errors.Is(a.runErr, context.Canceled) {
			err = a.runErr
		}
		a.mu.Unlock()
	case <-timer.C:
		a.logger.Warn("animator: render loop unresponsive", "session", session, "timeout", timeout)
		err = ErrStopTimeout
	}

	a.phase.Store(int32(PhaseIdle))
	a.logger.Info("animator: stopped", "session", session, "frames", a.frames.Load())
	return err
}

// Done returns a channel closed when the current run's goroutines have
// exited, or nil before the first Start.
func (a *Animator) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Close releases the frame cache. The Animator must be stopped.
func (a *Animator) Close() error {
	if Phase(a.phase.Load()) != PhaseIdle {
		return fmt.Errorf("animator: close while %s", a.Phase())
	}
	a.mu.Lock()
	busy := a.exiting()
	a.mu.Unlock()
	if busy {
		return ErrStillStopping
	}
	return a.store.Close()
}

// SetExpression applies a mouth and eye pose in one update. An empty
// argument leaves that part unchanged.
func (a *Animator) SetExpression(mouth, eyes string) {
	a.state.Update(func(s *expression.Snapshot) {
		if mouth != "" {
			s.Mouth = mouth
		}
		if eyes != "" {
			s.Eyes = eyes
		}
	})
	a.logger.Debug("animator: expression set", "mouth", mouth, "eyes", eyes)
}

// State returns the expression state.
func (a *Animator) State() *expression.State { return a.state }

// MouthSync returns the amplitude-driven mouth generator.
func (a *Animator) MouthSync() *expression.MouthSync { return a.mouth }

// Resolver returns the layer resolver.
func (a *Animator) Resolver() *resolver.Resolver { return a.res }

// Compositor returns the compositor.
func (a *Animator) Compositor() *compositor.Compositor { return a.comp }

// Config returns the effective configuration.
func (a *Animator) Config() Config { return a.cfg }

// Phase returns the current lifecycle phase.
func (a *Animator) Phase() Phase { return Phase(a.phase.Load()) }

// Pattern returns the encoder input pattern of each stream, keyed by
// stream name.
func (a *Animator) Pattern() map[string]string {
	if a.cfg.Mode == ModeFull {
		return map[string]string{a.cfg.Prefix: a.full.Pattern()}
	}
	return map[string]string{
		"base":  a.base.Pattern(),
		"mouth": a.mouths.sink.Pattern(),
		"eyes":  a.eyes.sink.Pattern(),
	}
}

// Stats is a point-in-time view of an Animator.
type Stats struct {
	Session   string    `json:"session" yaml:"session"`
	Phase     string    `json:"phase" yaml:"phase"`
	Frames    int64     `json:"frames" yaml:"frames"`
	Overruns  int64     `json:"overruns" yaml:"overruns"`
	LastFrame time.Time `json:"last_frame" yaml:"last_frame"`
	Warnings  int       `json:"warnings" yaml:"warnings"`
	CacheHits int64     `json:"cache_hits" yaml:"cache_hits"`
	CacheMiss int64     `json:"cache_misses" yaml:"cache_misses"`
}

// Stats returns counters of the current or last run.
func (a *Animator) Stats() Stats {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	hits, misses := a.cache.Stats()
	s := Stats{
		Session:   session,
		Phase:     a.Phase().String(),
		Frames:    a.frames.Load(),
		Overruns:  a.overruns.Load(),
		Warnings:  a.res.Warnings(),
		CacheHits: hits,
		CacheMiss: misses,
	}
	if ns := a.lastFrame.Load(); ns != 0 {
		s.LastFrame = time.Unix(0, ns)
	}
	return s
}
