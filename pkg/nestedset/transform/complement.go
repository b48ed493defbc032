package transform

import "github.com/matzehuels/nestree/pkg/nestedset"

// Prefix marks the identity of a wrapper node inserted by [Complement].
const Prefix = "c__"

// Complement inserts a non-leaf wrapper above every node.
//
// For each node N, Complement emits a wrapper W with identity Prefix+N.ID,
// N's label, and parent Prefix+N.Parent (none if N is the root), followed by
// a copy of N forced to be a leaf and parented to W. The root's pair is
// emitted first; the others follow in input order.
//
// A node whose (identity, parent identity) pair was already emitted is
// skipped. This keeps two sibling leaves with the same identity from
// producing two wrappers, and keeps a shared branch from repeating its leaf
// below the shared wrapper.
//
// Wrapper identities are derived from node identities alone. A leaf that
// shares its identity with a non-leaf therefore gets the same wrapper
// identity as that non-leaf, and unfolding later copies the non-leaf's
// subtree below the leaf's wrapper as well. Callers that need the two kept
// apart must give them distinct identities before complementing.
//
// Complement fails with the errors of [nestedset.BuildRelations].
func Complement(nodes []nestedset.Node) ([]nestedset.Node, error) {
	rel, err := nestedset.BuildRelations(nodes)
	if err != nil {
		return nil, err
	}

	out := make([]nestedset.Node, 0, 2*len(nodes))
	seen := make(map[[2]string]struct{}, 2*len(nodes))
	emit := func(n nestedset.Node) {
		key := [2]string{n.ID, n.Parent}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	wrap := func(n nestedset.Node) {
		w := nestedset.Node{ID: Prefix + n.ID, Label: n.Label}
		if !n.IsRoot() {
			w.Parent = Prefix + n.Parent
		}
		if n.Origin != "" {
			w.Origin = Prefix + n.Origin
		}
		emit(w)
		emit(nestedset.Node{ID: n.ID, Label: n.Label, Parent: w.ID, Leaf: true, Origin: n.Origin})
	}

	wrap(nodes[rel.Root])
	for i, n := range nodes {
		if i != rel.Root {
			wrap(n)
		}
	}
	return out, nil
}
