// Package nestedset converts a flat parent-referencing hierarchy into the
// nested set model.
//
// # Overview
//
// Each input [Node] names its parent by identity. After indexing, every node
// carries a [Node.Left] / [Node.Right] interval such that the interval of an
// ancestor strictly contains the intervals of all its descendants. Subtree,
// ancestor and descendant-count queries then become numeric comparisons:
//
//	| id | parent_id | Node          | Lft | Rgt |
//	|----|-----------|---------------|-----|-----|
//	|  1 |           | Clothing      |   1 |  22 |
//	|  2 |         1 | Men's         |   2 |   9 |
//	|  3 |         1 | Women's       |  10 |  21 |
//	|  4 |         2 | Suits         |   3 |   8 |
//	|  5 |         4 | Slacks        |   4 |   5 |
//	|  6 |         4 | Jackets       |   6 |   7 |
//	|  7 |         3 | Dresses       |  11 |  16 |
//	|  8 |         3 | Skirts        |  17 |  18 |
//	|  9 |         3 | Blouses       |  19 |  20 |
//	| 10 |         7 | Evening Gowns |  12 |  13 |
//	| 11 |         7 | Sun Dresses   |  14 |  15 |
//
// # Building Blocks
//
// [BuildRelations] finds the single root and indexes non-leaf identities by
// position. [Validate] additionally checks that every parent reference
// resolves. [IsDAG] reports whether a non-leaf identity is shared by more than
// one parent, in which case the collection must be unfolded (see the
// [transform] subpackage) before it can be indexed. [DetectCycle] guards
// against cyclic input, which can be neither unfolded nor indexed.
//
// [Index] is the terminal pass. It assigns 1-based position IDs in collection
// order, numbers the tree depth-first with an explicit stack, and resolves
// numeric parent references. [SortPreorder] optionally reorders an indexed
// collection into depth-first order.
//
// # Identity
//
// Non-leaf identities are lookup keys and must be unique once the collection
// is a tree. Leaf identities are never looked up, so sibling leaves may share
// one. An empty [Node.Parent] marks the root; an empty [Node.Origin] means the
// node was not produced by unfolding.
//
// # Concurrency
//
// All functions are synchronous. Only [Index] and [SortPreorder] modify their
// argument; callers must not share the slice across goroutines while they run.
//
// [transform]: github.com/matzehuels/nestree/pkg/nestedset/transform
package nestedset
