package nestedset

import (
	"cmp"
	"slices"
)

// Index assigns nested-set coordinates to nodes in place.
//
// Index performs, in order:
//  1. PositionID = i+1 for the node at position i, in collection order.
//  2. A child list per parent position, in collection order. This order
//     becomes the left-to-right sibling order of the nested set.
//  3. A depth-first numbering from the root starting at 1: a node receives
//     Left when first visited and Right one past the last number used by
//     its subtree, so a leaf has Right == Left+1.
//  4. ParentPositionID for every non-root node.
//
// Index returns [ErrRootNotFound] or [ErrMultipleRoots] when the root cannot
// be determined, a [ParentNotFoundError] when a parent identity does not
// resolve, and [ErrDisconnected] if a node is unreachable from the root. On
// error the indexing fields of nodes are left in an unspecified state.
//
// The collection must already be a tree: when a non-leaf identity occurs
// more than once only its first occurrence can be a parent. Unfold DAGs
// first.
func Index(nodes []Node) error {
	rel, err := BuildRelations(nodes)
	if err != nil {
		return err
	}

	children := make([][]int, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		n.PositionID = i + 1
		n.ParentPositionID = 0
		n.Left, n.Right, n.Count = 0, 0, 0
		if n.IsRoot() {
			continue
		}
		p, ok := rel.Parent(n.Parent)
		if !ok {
			return &ParentNotFoundError{Identity: n.Parent}
		}
		n.ParentPositionID = p + 1
		children[p] = append(children[p], i)
	}

	if visited := number(nodes, children, rel.Root); visited != len(nodes) {
		return ErrDisconnected
	}
	return nil
}

// number walks the tree below root with an explicit stack and returns the
// number of nodes it visited. Every node sits in at most one child list, so
// each is pushed at most once; nodes on a cycle are never reached.
func number(nodes []Node, children [][]int, root int) int {
	type frame struct {
		pos  int
		next int // index into children[pos] of the next child to visit
	}

	n := 1
	visited := 1
	nodes[root].Left = n
	stack := []frame{{pos: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		kids := children[top.pos]
		if top.next < len(kids) {
			c := kids[top.next]
			top.next++
			n++
			nodes[c].Left = n
			visited++
			stack = append(stack, frame{pos: c})
			continue
		}
		n++
		nodes[top.pos].Right = n
		nodes[top.pos].Count = len(kids)
		stack = stack[:len(stack)-1]
	}
	return visited
}

// SortPreorder reorders an indexed collection by Left, giving depth-first
// order, then renumbers PositionID and ParentPositionID so both remain a
// contiguous 1-based sequence consistent with the new order.
//
// Unfolding emits nodes breadth-first; SortPreorder restores a canonical
// order in which every subtree is contiguous.
func SortPreorder(nodes []Node) {
	slices.SortStableFunc(nodes, func(a, b Node) int { return cmp.Compare(a.Left, b.Left) })

	remap := make(map[int]int, len(nodes))
	for i := range nodes {
		remap[nodes[i].PositionID] = i + 1
	}
	for i := range nodes {
		nodes[i].PositionID = i + 1
		if nodes[i].ParentPositionID != 0 {
			nodes[i].ParentPositionID = remap[nodes[i].ParentPositionID]
		}
	}
}

// Depths returns the depth of each node in an indexed collection, with the
// root at depth 0. Depths are derived from the intervals alone.
func Depths(nodes []Node) []int {
	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(nodes[a].Left, nodes[b].Left) })

	depths := make([]int, len(nodes))
	var open []int // Right values of the ancestors of the current node
	for _, i := range order {
		for len(open) > 0 && open[len(open)-1] < nodes[i].Left {
			open = open[:len(open)-1]
		}
		depths[i] = len(open)
		open = append(open, nodes[i].Right)
	}
	return depths
}
