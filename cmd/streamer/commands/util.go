package commands

import (
	"fmt"
	"log/slog"

	"github.com/youzoom64/RTMP-streamer/pkg/animator"
	"github.com/youzoom64/RTMP-streamer/pkg/assets"
	"github.com/youzoom64/RTMP-streamer/pkg/compositor"
	"github.com/youzoom64/RTMP-streamer/pkg/resolver"
)

// character is the asset pipeline of a profile without the render loop.
type character struct {
	idx  *assets.Index
	res  *resolver.Resolver
	comp *compositor.Compositor
}

func loadCharacter(ac animator.Config) (*character, error) {
	if ac.AssetRoot == "" {
		return nil, fmt.Errorf("asset root is not set")
	}
	logger := slog.Default()

	opts := []assets.Option{assets.WithLogger(logger)}
	if ac.ImageExt != "" {
		opts = append(opts, assets.WithExt(ac.ImageExt))
	}
	idx, err := assets.Build(ac.AssetRoot, opts...)
	if err != nil {
		return nil, err
	}

	resOpts := []resolver.Option{resolver.WithLogger(logger)}
	if ac.PositionMap != "" {
		pm, err := resolver.LoadPositionMap(ac.PositionMap, idx.Root())
		if err != nil {
			return nil, err
		}
		resOpts = append(resOpts, resolver.WithPositionMap(pm))
	}
	res := resolver.New(idx, resOpts...)

	compOpts := []compositor.Option{compositor.WithLogger(logger)}
	if ac.CanvasWidth > 0 && ac.CanvasHeight > 0 {
		compOpts = append(compOpts, compositor.WithCanvasSize(ac.CanvasWidth, ac.CanvasHeight))
	}
	return &character{idx: idx, res: res, comp: compositor.New(res, compOpts...)}, nil
}
