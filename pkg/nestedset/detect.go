package nestedset

// IsDAG reports whether some non-leaf identity occurs more than once among
// the non-leaf nodes, meaning it is shared by several parents and the
// collection must be unfolded before indexing. IsDAG does not modify nodes.
func IsDAG(nodes []Node) bool {
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.Leaf {
			continue
		}
		if _, ok := seen[n.ID]; ok {
			return true
		}
		seen[n.ID] = struct{}{}
	}
	return false
}

// SharedIdentities returns the non-leaf identities that occur more than once,
// in order of their second occurrence.
func SharedIdentities(nodes []Node) []string {
	count := make(map[string]int, len(nodes))
	var shared []string
	for _, n := range nodes {
		if n.Leaf {
			continue
		}
		count[n.ID]++
		if count[n.ID] == 2 {
			shared = append(shared, n.ID)
		}
	}
	return shared
}

// DetectCycle returns a [CycleError] if some non-leaf identity is
// transitively its own parent, or nil otherwise.
//
// Identities are colored white/gray/black during an iterative depth-first
// search over parent→child identity edges; reaching a gray identity closes a
// cycle. Leaves cannot have children and are ignored.
func DetectCycle(nodes []Node) error {
	const (
		white = iota
		gray
		black
	)

	children := make(map[string][]string)
	var order []string
	known := make(map[string]bool)
	for _, n := range nodes {
		if n.Leaf {
			continue
		}
		if !known[n.ID] {
			known[n.ID] = true
			order = append(order, n.ID)
		}
		if !n.IsRoot() {
			children[n.Parent] = append(children[n.Parent], n.ID)
		}
	}

	type frame struct {
		id   string
		next int
	}
	color := make(map[string]int, len(order))
	for _, start := range order {
		if color[start] != white {
			continue
		}
		color[start] = gray
		stack := []frame{{id: start}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := children[top.id]
			if top.next == len(kids) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := kids[top.next]
			top.next++
			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frame{id: child})
			case gray:
				return &CycleError{Identity: child}
			}
		}
	}
	return nil
}
