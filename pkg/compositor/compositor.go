// Package compositor builds character frames from layer images.
//
// A frame is a fixed stack of tiers (see Tier). Each tier has a chain of
// candidates that are resolved through a resolver.Resolver; the first hit
// wins. Resolved images are drawn with Porter-Duff "over" at the origin, in
// tier order, onto a transparent canvas whose size is fixed by the first
// image the compositor loads.
package compositor

import (
	"image"
	"image/draw"
	_ "image/png"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/youzoom64/RTMP-streamer/pkg/expression"
	"github.com/youzoom64/RTMP-streamer/pkg/framecache"
	"github.com/youzoom64/RTMP-streamer/pkg/resolver"
)

// Layer is one resolved tier.
type Layer struct {
	Tier      Tier      `json:"tier" yaml:"tier"`
	Pose      string    `json:"pose,omitempty" yaml:"pose,omitempty"`
	Candidate Candidate `json:"-" yaml:"-"`
	Path      string    `json:"path" yaml:"path"`
}

// LayerSet is an ordered list of resolved layers, bottom first.
type LayerSet []Layer

// Paths returns the file paths of the layers.
func (ls LayerSet) Paths() []string {
	ps := make([]string, len(ls))
	for i, l := range ls {
		ps[i] = l.Path
	}
	return ps
}

// Compositor composes frames. It is safe for concurrent use.
type Compositor struct {
	res    *resolver.Resolver
	logger *slog.Logger
	frames *framecache.Cache
	enc    *encoder

	images sync.Map // path -> *loaded

	mu    sync.Mutex
	size  image.Point
	sized bool

	composed atomic.Int64
}

type loaded struct {
	img image.Image
	err error
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compositor) {
		c.logger = l
	}
}

// WithCanvasSize fixes the canvas size instead of taking it from the first
// loaded image.
func WithCanvasSize(width, height int) Option {
	return func(c *Compositor) {
		if width > 0 && height > 0 {
			c.size = image.Pt(width, height)
			c.sized = true
		}
	}
}

// WithFrameCache stores encoded frames in fc.
func WithFrameCache(fc *framecache.Cache) Option {
	return func(c *Compositor) {
		c.frames = fc
	}
}

// New creates a Compositor resolving layers through res.
func New(res *resolver.Resolver, opts ...Option) *Compositor {
	c := &Compositor{
		res:    res,
		logger: slog.Default(),
		enc:    newEncoder(defaultCompression),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolve walks the chain of tier t for pose and returns the first hit.
// Misses of required, eye and mouth tiers are reported to the resolver's
// warn-once set.
func (c *Compositor) resolve(t Tier, pose string) (Layer, bool) {
	chain := Chain(t, pose)
	if len(chain) == 0 {
		return Layer{}, false
	}
	for _, cand := range chain {
		var (
			p  string
			ok bool
		)
		if cand.Path != "" {
			p, ok = c.res.Find(cand.Path)
		} else {
			p, ok = c.res.ResolveByKeywords(cand.Keywords...)
		}
		if ok {
			return Layer{Tier: t, Pose: pose, Candidate: cand, Path: p}, true
		}
	}
	switch {
	case t.Required():
		c.res.ReportMissing(t.String())
	case t == TierEyes || t == TierMouth:
		c.res.ReportMissing(t.String() + "/" + pose)
	}
	return Layer{}, false
}

func (c *Compositor) layers(tiers []Tier, mouth, eyes string) LayerSet {
	var ls LayerSet
	for _, t := range tiers {
		pose := ""
		switch t {
		case TierEyeWhite, TierEyes:
			pose = eyes
		case TierMouth:
			pose = mouth
		}
		if l, ok := c.resolve(t, pose); ok {
			ls = append(ls, l)
		}
	}
	return ls
}

var (
	baseTiers = []Tier{TierBody, TierEdamame, TierOutfit, TierLeftArm, TierRightArm, TierEyebrows}
	eyeTiers  = []Tier{TierEyeWhite, TierEyes}
)

// Layers returns the layers of a full frame with the given poses.
func (c *Compositor) Layers(mouth, eyes string) LayerSet {
	return c.layers(Tiers(), mouth, eyes)
}

// BaseLayers returns the layers below the eyes.
func (c *Compositor) BaseLayers() LayerSet {
	return c.layers(baseTiers, "", "")
}

// TierLayers returns the layers of a sub-stream part. The eyes part
// includes the eye-white tier.
func (c *Compositor) TierLayers(t Tier, pose string) LayerSet {
	switch t {
	case TierEyes, TierEyeWhite:
		return c.layers(eyeTiers, "", pose)
	case TierMouth:
		return c.layers([]Tier{TierMouth}, pose, "")
	}
	return c.layers([]Tier{t}, "", "")
}

// Compose renders a full frame.
func (c *Compositor) Compose(mouth, eyes string) *image.RGBA {
	return c.render(c.Layers(mouth, eyes))
}

// ComposeBase renders the tiers below the eyes.
func (c *Compositor) ComposeBase() *image.RGBA {
	return c.render(c.BaseLayers())
}

// ComposeTier renders one part on a transparent canvas of the frame size.
func (c *Compositor) ComposeTier(t Tier, pose string) *image.RGBA {
	ls := c.TierLayers(t, pose)
	c.ensureCanvas()
	return c.render(ls)
}

// ensureCanvas fixes the canvas from the base layers when nothing has been
// drawn yet, so that parts line up with full frames.
func (c *Compositor) ensureCanvas() {
	c.mu.Lock()
	sized := c.sized
	c.mu.Unlock()
	if sized {
		return
	}
	for _, l := range c.Layers(expression.MouthClosed, expression.EyesOpen) {
		if img := c.load(l.Path); img != nil {
			c.fixSize(img.Bounds().Size())
			return
		}
	}
}

func (c *Compositor) fixSize(sz image.Point) image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sized {
		c.size, c.sized = sz, true
		c.logger.Debug("compositor: canvas fixed", "width", sz.X, "height", sz.Y)
	}
	return c.size
}

// CanvasSize returns the fixed canvas size and whether it has been fixed.
func (c *Compositor) CanvasSize() (image.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size, c.sized
}

func (c *Compositor) render(ls LayerSet) *image.RGBA {
	imgs := make([]image.Image, 0, len(ls))
	for _, l := range ls {
		if img := c.load(l.Path); img != nil {
			imgs = append(imgs, img)
		}
	}

	size, sized := c.CanvasSize()
	if !sized {
		if len(imgs) == 0 {
			return image.NewRGBA(image.Rect(0, 0, 1, 1))
		}
		size = c.fixSize(imgs[0].Bounds().Size())
	}

	canvas := image.NewRGBA(image.Rectangle{Max: size})
	for _, img := range imgs {
		b := img.Bounds()
		draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Over)
	}
	c.composed.Add(1)
	return canvas
}

// load returns the decoded image at path, loading it on first use.
// Undecodable files are logged once and skipped.
func (c *Compositor) load(path string) image.Image {
	if v, ok := c.images.Load(path); ok {
		return v.(*loaded).img
	}
	l := &loaded{}
	l.img, l.err = decode(path)
	v, dup := c.images.LoadOrStore(path, l)
	if l.err != nil && !dup {
		c.logger.Warn("compositor: layer image unreadable", "path", path, "error", l.err)
	}
	return v.(*loaded).img
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// Images returns the number of cached images.
func (c *Compositor) Images() int {
	n := 0
	c.images.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Composed returns the number of rasters composed so far.
func (c *Compositor) Composed() int64 {
	return c.composed.Load()
}
