// Package transform provides the structural rewrites that prepare a node
// collection for nested-set indexing.
//
// # Overview
//
// The nested set model encodes a tree. Real hierarchies sometimes share a
// branch between several parents, and some consumers want structural
// ("classification") nodes kept apart from terminal ones. This package
// rewrites a collection into the shape the indexer expects. Every function
// returns a new collection and leaves its input untouched.
//
// # Unfolding
//
// [Unfold] turns a DAG into a tree by copying every branch once per parent
// edge that reaches it. Copies are emitted breadth-first from the root. The
// first copy of a non-leaf identity keeps its name; later copies get the
// occurrence number appended after [Separator] and record the pre-rename
// identity in Origin:
//
//	Before:              After:
//	  root                 root
//	  ├── a                ├── a
//	  │   └── x            │   └── x
//	  └── b                └── b
//	      └── x                └── x__1  (origin x)
//
// Leaves keep their identity no matter how often they are copied; the
// indexer still tells them apart by their intervals.
//
// # Complementing
//
// [Complement] inserts a non-leaf wrapper above every node. The wrapper is
// named [Prefix] + identity and hangs off the wrapper of the original parent;
// the original node becomes a leaf below its wrapper. Node pairs that would
// repeat an (identity, parent) combination are emitted once.
//
//	Before:      After:
//	  a            c__a
//	  └── b        ├── a (leaf)
//	               └── c__b
//	                   └── b (leaf)
//
// # Usage
//
// Complementing, when wanted, runs first because it can introduce shared
// wrappers that unfolding must then resolve:
//
//	nodes, err := transform.Complement(nodes)
//	for err == nil && nestedset.IsDAG(nodes) {
//	    nodes, err = transform.Unfold(nodes, 0)
//	}
package transform
