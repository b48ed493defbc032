package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
	"github.com/matzehuels/nestree/pkg/nestedset/transform"
	"github.com/matzehuels/nestree/pkg/observability"
)

// ErrUnresolvedDAG is returned when the collection still has shared non-leaf
// identities after the maximum number of unfold passes.
var ErrUnresolvedDAG = stderrors.New("hierarchy is still a DAG after unfolding")

// rebuild runs the stages on a copy of nodes. opts must have defaults
// applied. Errors are the core sentinels; the caller attaches codes.
func rebuild(ctx context.Context, nodes []nestedset.Node, opts Options, hooks observability.PipelineHooks) ([]nestedset.Node, Stats, error) {
	start := time.Now()
	stats := Stats{InputNodes: len(nodes)}
	logger := opts.Logger

	if _, err := nestedset.Validate(nodes); err != nil {
		return nil, stats, err
	}
	if err := nestedset.DetectCycle(nodes); err != nil {
		return nil, stats, err
	}

	work := nestedset.Clone(nodes)
	if opts.Complement {
		var err error
		if work, err = transform.Complement(work); err != nil {
			return nil, stats, err
		}
		if len(work) > opts.MaxNodes {
			return nil, stats, transform.ErrLimitExceeded
		}
		logger.Debug("complemented leaves", "nodes", len(work))
	}

	stats.WasDAG = nestedset.IsDAG(work)
	for nestedset.IsDAG(work) {
		if stats.UnfoldPasses == opts.MaxUnfoldPasses {
			shared := nestedset.SharedIdentities(work)
			return nil, stats, fmt.Errorf("%w: %d passes, shared: %s", ErrUnresolvedDAG, stats.UnfoldPasses, summarize(shared, 5))
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		next, err := transform.Unfold(work, opts.MaxNodes)
		if err != nil {
			return nil, stats, err
		}
		stats.UnfoldPasses++
		hooks.OnUnfoldPass(ctx, stats.UnfoldPasses, len(next))
		logger.Debug("unfolded shared branches",
			"pass", stats.UnfoldPasses,
			"before", len(work),
			"after", len(next))
		work = next
	}

	if err := nestedset.Index(work); err != nil {
		return nil, stats, err
	}
	if opts.Order == OrderPreorder {
		nestedset.SortPreorder(work)
	}

	stats.OutputNodes = len(work)
	stats.Duration = time.Since(start)
	return work, stats, nil
}

func summarize(ids []string, max int) string {
	if len(ids) <= max {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(ids[:max], ", "), len(ids)-max)
}

// codes maps core sentinels to boundary error codes.
var codes = []struct {
	err  error
	code errors.Code
}{
	{nestedset.ErrRootNotFound, errors.ErrCodeRootNotFound},
	{nestedset.ErrMultipleRoots, errors.ErrCodeMultipleRoots},
	{nestedset.ErrParentNodeNotFound, errors.ErrCodeParentNotFound},
	{nestedset.ErrCycle, errors.ErrCodeCycle},
	{ErrUnresolvedDAG, errors.ErrCodeUnresolvedDAG},
	{transform.ErrLimitExceeded, errors.ErrCodeTooLarge},
}

// classify wraps err with the matching error code. Context errors and
// errors that already carry a code pass through unchanged.
func classify(err error) error {
	if err == nil || errors.GetCode(err) != "" ||
		stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	for _, c := range codes {
		if stderrors.Is(err, c.err) {
			return errors.Wrap(c.code, err, "cannot index hierarchy")
		}
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "rebuild")
}
