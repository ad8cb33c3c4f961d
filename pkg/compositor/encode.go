package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/youzoom64/RTMP-streamer/pkg/framecache"
)

const defaultCompression = png.BestSpeed

type encoder struct {
	png  png.Encoder
	bufs sync.Pool
}

type bufferPool struct{ p sync.Pool }

func (b *bufferPool) Get() *png.EncoderBuffer {
	v, _ := b.p.Get().(*png.EncoderBuffer)
	return v
}

func (b *bufferPool) Put(buf *png.EncoderBuffer) { b.p.Put(buf) }

func newEncoder(level png.CompressionLevel) *encoder {
	return &encoder{png: png.Encoder{CompressionLevel: level, BufferPool: &bufferPool{}}}
}

func (e *encoder) encode(img image.Image) ([]byte, error) {
	buf, _ := e.bufs.Get().(*bytes.Buffer)
	if buf == nil {
		buf = new(bytes.Buffer)
	}
	buf.Reset()
	defer e.bufs.Put(buf)
	if err := e.png.Encode(buf, img); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// WithCompression sets the PNG compression level of encoded frames.
func WithCompression(level png.CompressionLevel) Option {
	return func(c *Compositor) {
		c.enc = newEncoder(level)
	}
}

// Frame kinds used as frame cache namespaces.
const (
	KindFull = "full"
	KindBase = "base"
)

// EncodeFrame returns the PNG encoding of a full frame.
func (c *Compositor) EncodeFrame(ctx context.Context, mouth, eyes string) ([]byte, error) {
	return c.encodeCached(ctx, func() LayerSet { return c.Layers(mouth, eyes) }, KindFull, mouth, eyes)
}

// EncodeBase returns the PNG encoding of the base part.
func (c *Compositor) EncodeBase(ctx context.Context) ([]byte, error) {
	return c.encodeCached(ctx, c.BaseLayers, KindBase)
}

// EncodeTier returns the PNG encoding of one part.
func (c *Compositor) EncodeTier(ctx context.Context, t Tier, pose string) ([]byte, error) {
	return c.encodeCached(ctx, func() LayerSet {
		ls := c.TierLayers(t, pose)
		c.ensureCanvas()
		return ls
	}, t.String(), pose)
}

func (c *Compositor) encodeCached(ctx context.Context, layers func() LayerSet, kind string, poses ...string) ([]byte, error) {
	if c.frames != nil {
		e, err := c.frames.Load(ctx, kind, poses...)
		if err == nil {
			// A cached entry only matches once the canvas agrees with it.
			esz := image.Pt(e.Width, e.Height)
			sz, ok := c.CanvasSize()
			if !ok || sz == esz {
				if !ok && len(e.Layers) > 0 {
					c.fixSize(esz)
				}
				return e.PNG, nil
			}
		} else if !errors.Is(err, framecache.ErrNotFound) {
			c.logger.Warn("compositor: frame cache read failed", "kind", kind, "error", err)
		}
	}

	ls := layers()
	img := c.render(ls)
	data, err := c.enc.encode(img)
	if err != nil {
		return nil, fmt.Errorf("compositor: encode %s: %w", kind, err)
	}
	if c.frames != nil {
		b := img.Bounds()
		e := &framecache.Entry{Width: b.Dx(), Height: b.Dy(), Layers: ls.Paths(), PNG: data}
		if err := c.frames.Save(ctx, e, kind, poses...); err != nil {
			c.logger.Warn("compositor: frame cache write failed", "kind", kind, "error", err)
		}
	}
	return data, nil
}
