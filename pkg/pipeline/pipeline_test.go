package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestree/pkg/cache"
	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
	"github.com/matzehuels/nestree/pkg/observability"
)

func nodes(spec ...string) []nestedset.Node {
	var out []nestedset.Node
	for _, s := range spec {
		f := strings.Fields(s)
		n := nestedset.Node{ID: f[0], Label: strings.ToUpper(f[0])}
		if f[1] != "-" {
			n.Parent = f[1]
		}
		n.Leaf = len(f) > 2 && f[2] == "leaf"
		out = append(out, n)
	}
	return out
}

func sharedBranch() []nestedset.Node {
	return nodes("r -", "a r", "b r", "x a", "x b", "y x leaf")
}

func quietRunner(c cache.Cache) *Runner {
	r := NewRunner(c, nil, log.New(&strings.Builder{}))
	r.Hooks = observability.NoopPipelineHooks{}
	return r
}

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		order   string
		wantErr bool
	}{
		{"emission", false},
		{"preorder", false},
		{"Preorder", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateOrder(tt.order)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateOrder(%q) error = %v, wantErr %v", tt.order, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if o.Order != OrderEmission {
		t.Errorf("Order = %q, want %q", o.Order, OrderEmission)
	}
	if o.MaxUnfoldPasses != DefaultMaxUnfoldPasses {
		t.Errorf("MaxUnfoldPasses = %d, want %d", o.MaxUnfoldPasses, DefaultMaxUnfoldPasses)
	}
	if o.MaxNodes != DefaultMaxNodes {
		t.Errorf("MaxNodes = %d, want %d", o.MaxNodes, DefaultMaxNodes)
	}
	if o.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call error: %v", err)
	}

	bad := Options{MaxUnfoldPasses: -1}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("negative MaxUnfoldPasses should fail")
	}
}

func TestRebuild_Tree(t *testing.T) {
	in := nodes("root -", "a root", "b a leaf", "c root leaf")
	res, err := quietRunner(nil).Rebuild(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	if res.Stats.WasDAG || res.Stats.UnfoldPasses != 0 {
		t.Errorf("Stats = %+v, want no unfolding", res.Stats)
	}
	if res.Stats.InputNodes != 4 || res.Stats.OutputNodes != 4 {
		t.Errorf("Stats = %+v, want 4 in, 4 out", res.Stats)
	}
	root := res.Nodes[0]
	if root.Left != 1 || root.Right != 8 || root.Count != 2 {
		t.Errorf("root = %+v, want [1,8] count 2", root)
	}
	if in[0].Left != 0 {
		t.Error("Rebuild() modified its input")
	}
}

func TestRebuild_SharedBranch(t *testing.T) {
	res, err := quietRunner(nil).Rebuild(context.Background(), sharedBranch(), Options{})
	if err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	if !res.Stats.WasDAG || res.Stats.UnfoldPasses != 1 {
		t.Errorf("Stats = %+v, want one unfold pass", res.Stats)
	}
	if len(res.Nodes) != 7 {
		t.Fatalf("len = %d, want 7", len(res.Nodes))
	}
	var copies []nestedset.Node
	for _, n := range res.Nodes {
		if n.Origin != "" {
			copies = append(copies, n)
		}
	}
	if len(copies) != 1 || copies[0].ID != "x__1" || copies[0].Origin != "x" {
		t.Errorf("copies = %+v, want one x__1 from x", copies)
	}
}

func TestRebuild_Preorder(t *testing.T) {
	res, err := quietRunner(nil).Rebuild(context.Background(), sharedBranch(), Options{Order: OrderPreorder})
	if err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	want := []string{"r", "a", "x", "y", "b", "x__1", "y"}
	for i, n := range res.Nodes {
		if n.ID != want[i] {
			t.Errorf("Nodes[%d].ID = %q, want %q", i, n.ID, want[i])
		}
		if n.PositionID != i+1 {
			t.Errorf("Nodes[%d].PositionID = %d, want %d", i, n.PositionID, i+1)
		}
		if i > 0 && n.Left <= res.Nodes[i-1].Left {
			t.Errorf("Nodes not sorted by lft at %d", i)
		}
	}
}

func TestRebuild_Complement(t *testing.T) {
	res, err := quietRunner(nil).Rebuild(context.Background(), nodes("r -", "a r", "b a leaf"), Options{Complement: true})
	if err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	if len(res.Nodes) != 6 {
		t.Fatalf("len = %d, want 6", len(res.Nodes))
	}
	if res.Nodes[0].ID != "c__r" || res.Nodes[0].Right != 12 {
		t.Errorf("root = %+v, want c__r with rgt 12", res.Nodes[0])
	}
	for _, n := range res.Nodes {
		if !strings.HasPrefix(n.ID, "c__") && !n.Leaf {
			t.Errorf("original node %q should be a leaf", n.ID)
		}
	}
}

func TestRebuild_MultiplePasses(t *testing.T) {
	// The renamed copy of x collides with the literal x__1, so a second
	// pass is needed.
	in := nodes("r -", "a r", "b r", "x a", "x b", "x__1 r")

	res, err := quietRunner(nil).Rebuild(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	if res.Stats.UnfoldPasses != 2 {
		t.Errorf("UnfoldPasses = %d, want 2", res.Stats.UnfoldPasses)
	}
	if nestedset.IsDAG(res.Nodes) {
		t.Error("result is still a DAG")
	}

	_, err = quietRunner(nil).Rebuild(context.Background(), in, Options{MaxUnfoldPasses: 1})
	if !errors.Is(err, errors.ErrCodeUnresolvedDAG) {
		t.Errorf("error = %v, want UNRESOLVED_DAG", err)
	}
	if err != nil && !strings.Contains(err.Error(), "x__1") {
		t.Errorf("error %q should name the shared identity", err)
	}
}

func TestRebuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   []nestedset.Node
		opts Options
		code errors.Code
	}{
		{"no root", nodes("a b", "b a"), Options{}, errors.ErrCodeRootNotFound},
		{"two roots", nodes("a -", "b -"), Options{}, errors.ErrCodeMultipleRoots},
		{"missing parent", nodes("r -", "a zz"), Options{}, errors.ErrCodeParentNotFound},
		{"leaf parent", nodes("r -", "a r leaf", "b a"), Options{}, errors.ErrCodeParentNotFound},
		{"cycle", nodes("r -", "a b", "b a"), Options{}, errors.ErrCodeCycle},
		{"too large", sharedBranch(), Options{MaxNodes: 6}, errors.ErrCodeTooLarge},
		{"complement too large", nodes("r -", "a r"), Options{Complement: true, MaxNodes: 3}, errors.ErrCodeTooLarge},
		{"bad order", sharedBranch(), Options{Order: "random"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietRunner(nil).Rebuild(context.Background(), tt.in, tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %v, want %v (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestRebuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := quietRunner(nil).Rebuild(ctx, sharedBranch(), Options{})
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRebuild_Cache(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)

	first, err := r.Rebuild(ctx, sharedBranch(), Options{})
	if err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	if first.CacheHit {
		t.Error("first rebuild should miss")
	}

	second, err := r.Rebuild(ctx, sharedBranch(), Options{})
	if err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	if !second.CacheHit {
		t.Error("second rebuild should hit")
	}
	if second.Stats.UnfoldPasses != 1 || !second.Stats.WasDAG {
		t.Errorf("cached Stats = %+v", second.Stats)
	}
	for i := range first.Nodes {
		if first.Nodes[i] != second.Nodes[i] {
			t.Errorf("Nodes[%d] = %+v, cached %+v", i, first.Nodes[i], second.Nodes[i])
		}
	}

	other, _ := r.Rebuild(ctx, sharedBranch(), Options{Order: OrderPreorder})
	if other.CacheHit {
		t.Error("different options should miss")
	}

	refreshed, _ := r.Rebuild(ctx, sharedBranch(), Options{Refresh: true})
	if refreshed.CacheHit {
		t.Error("Refresh should bypass cache reads")
	}

	// A result cached under the default limit must not satisfy a smaller one.
	_, err = r.Rebuild(ctx, sharedBranch(), Options{MaxNodes: 6})
	if !errors.Is(err, errors.ErrCodeTooLarge) {
		t.Errorf("Rebuild(MaxNodes: 6) after warm cache = %v, want TOO_LARGE", err)
	}
	if _, err := r.Rebuild(ctx, sharedBranch(), Options{MaxNodes: 100}); err != nil {
		t.Fatal(err)
	}
	limited, err := r.Rebuild(ctx, sharedBranch(), Options{MaxNodes: 100})
	if err != nil || !limited.CacheHit {
		t.Errorf("repeat with same MaxNodes: hit = %v, err = %v", limited != nil && limited.CacheHit, err)
	}
}

func TestHashInput(t *testing.T) {
	a := sharedBranch()
	b := sharedBranch()
	if HashInput(a) != HashInput(b) {
		t.Error("HashInput should be deterministic")
	}
	indexed := nodes("r -", "a r")
	raw := nodes("r -", "a r")
	if err := nestedset.Index(indexed); err != nil {
		t.Fatal(err)
	}
	if HashInput(indexed) != HashInput(raw) {
		t.Error("indexing fields should not affect HashInput")
	}
	b[1].Label = "changed"
	if HashInput(a) == HashInput(b) {
		t.Error("label change should change HashInput")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu       sync.Mutex
	starts   int
	passes   []int
	complete []observability.RebuildEvent
	errs     []error
}

func (h *recordingHooks) OnRebuildStart(ctx context.Context, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
}

func (h *recordingHooks) OnUnfoldPass(ctx context.Context, pass, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.passes = append(h.passes, pass)
}

func (h *recordingHooks) OnRebuildComplete(ctx context.Context, ev observability.RebuildEvent, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.complete = append(h.complete, ev)
	h.errs = append(h.errs, err)
}

func TestRebuild_Hooks(t *testing.T) {
	h := &recordingHooks{}
	r := quietRunner(nil)
	r.Hooks = h

	if _, err := r.Rebuild(context.Background(), sharedBranch(), Options{}); err != nil {
		t.Fatal(err)
	}
	_, _ = r.Rebuild(context.Background(), nodes("a -", "b -"), Options{})

	if h.starts != 2 || len(h.complete) != 2 {
		t.Fatalf("starts = %d, completes = %d, want 2 each", h.starts, len(h.complete))
	}
	if len(h.passes) != 1 || h.passes[0] != 1 {
		t.Errorf("passes = %v, want [1]", h.passes)
	}
	if ev := h.complete[0]; ev.InputNodes != 6 || ev.OutputNodes != 7 || !ev.WasDAG {
		t.Errorf("event = %+v", ev)
	}
	if h.errs[0] != nil || h.errs[1] == nil {
		t.Errorf("errs = %v, want [nil, error]", h.errs)
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)
	res, err := r.Rebuild(ctx, sharedBranch(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	dot, hit, err := r.Render(ctx, res.Nodes, RenderOptions{Format: "dot"})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if hit {
		t.Error("first render should miss")
	}
	if !strings.Contains(string(dot), "n3 -> n5;") {
		t.Errorf("DOT missing edge b -> x__1:\n%s", dot)
	}

	if _, hit, _ := r.Render(ctx, res.Nodes, RenderOptions{Format: "dot"}); !hit {
		t.Error("second render should hit")
	}

	if _, _, err := r.Render(ctx, res.Nodes, RenderOptions{Format: "gif"}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Render(gif) error = %v, want INVALID_FORMAT", err)
	}
}

func TestRunnerTTL(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.ttl() != DefaultTTL {
		t.Errorf("ttl() = %v, want %v", r.ttl(), DefaultTTL)
	}
	r.TTL = time.Minute
	if r.ttl() != time.Minute {
		t.Errorf("ttl() = %v, want 1m", r.ttl())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
