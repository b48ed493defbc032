// Package nodelink draws an indexed nested set as a node-and-edge diagram
// using Graphviz.
//
// Graphviz computes the layout and renders in one step, so the DOT text is
// the only intermediate form:
//
//	nodes → ToDOT() → DOT → RenderSVG() / RenderPNG()
//
// Nodes are boxes; leaves are ellipses. Copies introduced by unfolding a
// shared branch carry an origin and are drawn dashed on a grey fill, which
// makes duplicated subtrees easy to spot.
//
// # Usage
//
//	dot := nodelink.ToDOT(nodes, nodelink.Options{Labels: true, Intervals: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
package nodelink
