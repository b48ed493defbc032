// Package render groups the diagram renderers for indexed nested sets.
//
// The [nodelink] subpackage is the only renderer: it writes a Graphviz DOT
// graph of the tree and lets Graphviz lay it out as SVG or PNG. Rendering is
// usually reached through [pipeline.Runner.Render], which caches artifacts by
// the hash of the indexed nodes.
//
// [nodelink]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/render/nodelink
// [pipeline.Runner.Render]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/pipeline#Runner.Render
package render
