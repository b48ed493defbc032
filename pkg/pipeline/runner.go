package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestree/pkg/cache"
	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
	"github.com/matzehuels/nestree/pkg/observability"
)

// DefaultTTL is how long cached results live.
const DefaultTTL = 7 * 24 * time.Hour

// Runner executes rebuilds with caching.
//
// The Runner holds no per-call state; multiple goroutines can share one
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Hooks receives pipeline events. Nil uses the globally registered hooks.
	Hooks observability.PipelineHooks

	// TTL for cache writes. Zero uses DefaultTTL.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses DefaultKeyer and a nil logger uses log.Default.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedResult is the cache encoding of a rebuild.
type cachedResult struct {
	Nodes        []nestedset.Node `json:"nodes"`
	UnfoldPasses int              `json:"unfold_passes"`
	WasDAG       bool             `json:"was_dag"`
}

// Rebuild validates nodes and produces their indexed nested set. The input
// slice is never modified.
//
// Errors carry a [errors.Code]: INVALID_INPUT for bad options, a structural
// code (ROOT_NOT_FOUND, MULTIPLE_ROOTS, PARENT_NOT_FOUND, CYCLE_DETECTED,
// UNRESOLVED_DAG, TOO_LARGE) when the hierarchy cannot be indexed.
func (r *Runner) Rebuild(ctx context.Context, nodes []nestedset.Node, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	hooks := r.hooks()
	start := time.Now()
	hooks.OnRebuildStart(ctx, len(nodes))

	res, err := r.rebuildCached(ctx, nodes, opts, hooks)
	ev := observability.RebuildEvent{Duration: time.Since(start)}
	if res != nil {
		res.Stats.Duration = ev.Duration
		ev.InputNodes = res.Stats.InputNodes
		ev.OutputNodes = res.Stats.OutputNodes
		ev.UnfoldPasses = res.Stats.UnfoldPasses
		ev.WasDAG = res.Stats.WasDAG
		ev.CacheHit = res.CacheHit
	}
	hooks.OnRebuildComplete(ctx, ev, err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("indexed hierarchy",
		"input", res.Stats.InputNodes,
		"output", res.Stats.OutputNodes,
		"passes", res.Stats.UnfoldPasses,
		"cached", res.CacheHit,
		"duration", res.Stats.Duration)
	return res, nil
}

func (r *Runner) rebuildCached(ctx context.Context, nodes []nestedset.Node, opts Options, hooks observability.PipelineHooks) (*Result, error) {
	inputHash := HashInput(nodes)
	key := r.Keyer.IndexKey(inputHash, opts.IndexKeyOpts())
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err != nil {
			opts.Logger.Warn("cache read failed", "error", err)
		} else if hit {
			var cached cachedResult
			if err := json.Unmarshal(data, &cached); err == nil {
				cacheHooks.OnCacheHit(ctx, "index")
				return &Result{
					Nodes:     cached.Nodes,
					InputHash: inputHash,
					CacheHit:  true,
					Stats: Stats{
						InputNodes:   len(nodes),
						OutputNodes:  len(cached.Nodes),
						UnfoldPasses: cached.UnfoldPasses,
						WasDAG:       cached.WasDAG,
					},
				}, nil
			}
			opts.Logger.Debug("discarding undecodable cache entry", "key", key)
		}
		cacheHooks.OnCacheMiss(ctx, "index")
	}

	out, stats, err := rebuild(ctx, nodes, opts, hooks)
	if err != nil {
		return nil, classify(err)
	}

	if data, err := json.Marshal(cachedResult{Nodes: out, UnfoldPasses: stats.UnfoldPasses, WasDAG: stats.WasDAG}); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.ttl()); err != nil {
			opts.Logger.Warn("cache write failed", "error", err)
		} else {
			cacheHooks.OnCacheSet(ctx, "index", len(data))
		}
	}

	return &Result{Nodes: out, InputHash: inputHash, Stats: stats}, nil
}

// HashInput returns the content hash of the fields that determine a rebuild.
// Indexing fields are ignored, so re-submitting an indexed collection hashes
// the same as the raw records.
func HashInput(nodes []nestedset.Node) string {
	type rec struct {
		ID     string `json:"i"`
		Label  string `json:"l"`
		Parent string `json:"p"`
		Leaf   bool   `json:"f"`
		Origin string `json:"o"`
	}
	recs := make([]rec, len(nodes))
	for i, n := range nodes {
		recs[i] = rec{n.ID, n.Label, n.Parent, n.Leaf, n.Origin}
	}
	data, _ := json.Marshal(recs)
	return cache.Hash(data)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) hooks() observability.PipelineHooks {
	if r.Hooks != nil {
		return r.Hooks
	}
	return observability.Pipeline()
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return DefaultTTL
}
