package transform

import (
	"errors"
	"strconv"

	"github.com/matzehuels/nestree/pkg/nestedset"
)

// Separator joins a duplicated identity and its occurrence number.
const Separator = "__"

// ErrLimitExceeded is returned by [Unfold] when the unfolded collection would
// grow beyond the caller's limit.
var ErrLimitExceeded = errors.New("unfolded hierarchy exceeds node limit")

// Unfold rewrites a DAG into an equivalent tree.
//
// Starting at the root, Unfold walks parent→child edges breadth-first and
// emits one copy of the child per edge, parented to the emitted copy of the
// parent. A per-identity occurrence counter, shared across all parents,
// decides naming: the first non-leaf copy keeps its identity, the k-th
// following copy is renamed identity + [Separator] + k with Origin set to the
// pre-rename identity. A node that already carries an Origin keeps it, so
// repeated passes always point back to the input identity. Leaves are copied
// unchanged.
//
// The result is in breadth-first emission order with the root at position 0.
// Indexing fields are not copied.
//
// Unfold fails with the errors of [nestedset.Validate] and
// [nestedset.DetectCycle], since cyclic input would unfold forever. If limit
// is positive and the output would exceed limit nodes, Unfold returns
// [ErrLimitExceeded].
func Unfold(nodes []nestedset.Node, limit int) ([]nestedset.Node, error) {
	rel, err := nestedset.Validate(nodes)
	if err != nil {
		return nil, err
	}
	if err := nestedset.DetectCycle(nodes); err != nil {
		return nil, err
	}

	children := make(map[string][]int)
	for i, n := range nodes {
		if !n.IsRoot() {
			children[n.Parent] = append(children[n.Parent], i)
		}
	}

	type pending struct {
		emitted int    // position in out
		source  string // identity whose children are copied below it
	}

	root := nodes[rel.Root]
	out := make([]nestedset.Node, 0, len(nodes))
	out = append(out, nestedset.Node{ID: root.ID, Label: root.Label, Leaf: root.Leaf, Origin: root.Origin})

	var queue []pending
	if !root.Leaf {
		queue = append(queue, pending{emitted: 0, source: root.ID})
	}
	seen := make(map[string]int)

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		parentID := out[p.emitted].ID

		for _, c := range children[p.source] {
			src := nodes[c]
			cp := nestedset.Node{
				ID:     src.ID,
				Label:  src.Label,
				Parent: parentID,
				Leaf:   src.Leaf,
				Origin: src.Origin,
			}
			if !src.Leaf {
				if k := seen[src.ID]; k > 0 {
					cp.ID = src.ID + Separator + strconv.Itoa(k)
					if cp.Origin == "" {
						cp.Origin = src.ID
					}
				}
				seen[src.ID]++
			}
			if limit > 0 && len(out) >= limit {
				return nil, ErrLimitExceeded
			}
			out = append(out, cp)
			if !src.Leaf {
				queue = append(queue, pending{emitted: len(out) - 1, source: src.ID})
			}
		}
	}
	return out, nil
}
