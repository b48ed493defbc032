package pipeline

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/matzehuels/nestree/pkg/cache"
	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
	"github.com/matzehuels/nestree/pkg/observability"
	"github.com/matzehuels/nestree/pkg/render/nodelink"
)

// RenderOptions configures [Runner.Render].
type RenderOptions struct {
	Format string
	nodelink.Options
}

// Render draws an indexed collection, caching the artifact under the hash
// of the indexed nodes. It reports whether the artifact came from the cache.
func (r *Runner) Render(ctx context.Context, nodes []nestedset.Node, opts RenderOptions) ([]byte, bool, error) {
	if opts.Format == "" {
		opts.Format = nodelink.FormatSVG
	}
	if !slices.Contains(nodelink.Formats, opts.Format) {
		return nil, false, errors.New(errors.ErrCodeInvalidFormat, "unsupported render format %q", opts.Format)
	}

	indexed, err := json.Marshal(nodes)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash nodes")
	}
	key := r.Keyer.RenderKey(cache.Hash(indexed), cache.RenderKeyOpts{
		Format:    opts.Format,
		Direction: opts.Direction,
		Labels:    opts.Labels,
		Intervals: opts.Intervals,
	})
	cacheHooks := observability.Cache()

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		cacheHooks.OnCacheHit(ctx, "render")
		return data, true, nil
	}
	cacheHooks.OnCacheMiss(ctx, "render")

	start := time.Now()
	data, err := nodelink.Render(ctx, nodes, opts.Format, opts.Options)
	r.hooks().OnRenderComplete(ctx, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render %s", opts.Format)
	}
	r.Logger.Debug("rendered", "format", opts.Format, "bytes", len(data), "duration", time.Since(start))

	if err := r.Cache.Set(ctx, key, data, r.ttl()); err == nil {
		cacheHooks.OnCacheSet(ctx, "render", len(data))
	}
	return data, false, nil
}
