package nestedset

// Relations is the identity lookup derived from a node collection.
// It is rebuilt by every stage that needs it, since transforms change
// identities and positions.
type Relations struct {
	// Lookup maps each non-leaf identity to its 0-based position. When an
	// identity occurs more than once (a DAG), the first position wins.
	Lookup map[string]int
	// Root is the position of the only node without a parent identity.
	Root int
}

// BuildRelations indexes non-leaf identities and locates the root.
//
// It returns [ErrRootNotFound] if no node lacks a parent identity and
// [ErrMultipleRoots] if more than one does. Leaf nodes never enter the
// lookup because they cannot be parents.
func BuildRelations(nodes []Node) (*Relations, error) {
	rel := &Relations{
		Lookup: make(map[string]int, len(nodes)),
		Root:   -1,
	}
	for i, n := range nodes {
		if n.IsRoot() {
			if rel.Root >= 0 {
				return nil, ErrMultipleRoots
			}
			rel.Root = i
		}
		if n.Leaf {
			continue
		}
		if _, ok := rel.Lookup[n.ID]; !ok {
			rel.Lookup[n.ID] = i
		}
	}
	if rel.Root < 0 {
		return nil, ErrRootNotFound
	}
	return rel, nil
}

// Parent returns the position of the non-leaf node named id.
func (r *Relations) Parent(id string) (int, bool) {
	i, ok := r.Lookup[id]
	return i, ok
}

// Validate checks the input invariants: exactly one root, and every parent
// identity resolves to a non-leaf node. The first violation is returned.
func Validate(nodes []Node) (*Relations, error) {
	rel, err := BuildRelations(nodes)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.IsRoot() {
			continue
		}
		if _, ok := rel.Lookup[n.Parent]; !ok {
			return nil, &ParentNotFoundError{Identity: n.Parent}
		}
	}
	return rel, nil
}
