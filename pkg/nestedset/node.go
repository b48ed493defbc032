package nestedset

import "errors"

var (
	// ErrRootNotFound is returned when no node lacks a parent identity.
	ErrRootNotFound = errors.New("root node not found: remove \"parent\" from the root node or set it to null")

	// ErrMultipleRoots is returned when more than one node lacks a parent identity.
	ErrMultipleRoots = errors.New("multiple nodes without a parent were found")

	// ErrParentNodeNotFound is matched by [ParentNotFoundError] via errors.Is.
	ErrParentNodeNotFound = errors.New("parent node not found")

	// ErrCycle is matched by [CycleError] via errors.Is.
	ErrCycle = errors.New("hierarchy contains a cycle")

	// ErrDisconnected is returned by [Index] when some node cannot be reached
	// from the root. Validated, acyclic input never triggers it.
	ErrDisconnected = errors.New("node not reachable from root")
)

// ParentNotFoundError reports a parent identity with no matching non-leaf node.
type ParentNotFoundError struct {
	Identity string
}

func (e *ParentNotFoundError) Error() string {
	return "parent node not found: " + e.Identity
}

// Is makes errors.Is(err, ErrParentNodeNotFound) hold.
func (e *ParentNotFoundError) Is(target error) bool { return target == ErrParentNodeNotFound }

// CycleError reports an identity that is transitively its own ancestor.
type CycleError struct {
	Identity string
}

func (e *CycleError) Error() string {
	return "hierarchy contains a cycle through " + e.Identity
}

// Is makes errors.Is(err, ErrCycle) hold.
func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// Node is one record of the hierarchy.
//
// The first four fields come from the input boundary. Origin is set only by
// unfolding. The remaining fields are zero until [Index] runs.
type Node struct {
	ID     string // Lookup key among non-leaf nodes
	Label  string // Display text
	Parent string // Parent identity; empty for the root
	Leaf   bool   // Leaves never have children

	// Origin is the pre-duplication identity of a node renamed by unfolding.
	Origin string

	PositionID       int // 1-based ordinal in the final collection
	ParentPositionID int // PositionID of the parent; 0 for the root
	Left             int
	Right            int
	Count            int // Number of direct children
}

// IsRoot reports whether the node has no parent identity.
func (n Node) IsRoot() bool { return n.Parent == "" }

// IsIndexed reports whether [Index] has assigned an interval to the node.
func (n Node) IsIndexed() bool { return n.Left > 0 && n.Right > n.Left }

// Descendants returns the number of nodes below n, derived from its interval.
func (n Node) Descendants() int {
	if !n.IsIndexed() {
		return 0
	}
	return (n.Right - n.Left - 1) / 2
}

// Contains reports whether other lies strictly inside n's subtree.
func (n Node) Contains(other Node) bool {
	return n.Left < other.Left && other.Right < n.Right
}

// EffectiveID returns Origin if set, otherwise the node's ID. Copies made by
// unfolding therefore share the effective identity of their source node.
func (n Node) EffectiveID() string {
	if n.Origin != "" {
		return n.Origin
	}
	return n.ID
}

// Clone returns a copy of nodes with indexing fields cleared.
func Clone(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Node{ID: n.ID, Label: n.Label, Parent: n.Parent, Leaf: n.Leaf, Origin: n.Origin}
	}
	return out
}
