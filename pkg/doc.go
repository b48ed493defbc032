// Package pkg provides the core libraries for nestree, a nested-set indexer
// for hierarchies.
//
// # Overview
//
// Nestree turns flat parent/child records into a nested-set index: every
// node gets a position, its parent's position, a [lft, rgt] interval that
// encloses its whole subtree, and a direct child count. Records that list a
// node under several parents describe a DAG; those shared branches are
// unfolded into copies first so the result is always a tree.
//
// # Architecture
//
// The typical data flow:
//
//	CSV / TSV / JSON / YAML records
//	         ↓
//	    [io] package (decode records)
//	         ↓
//	    [nestedset/transform] package (unfold shared branches, complement)
//	         ↓
//	    [nestedset] package (validate, index)
//	         ↓
//	    [io] / [render/nodelink] / [store] (tables, diagrams, MongoDB)
//
// # Quick Start
//
//	nodes, _ := io.ImportFile("products.csv", io.FormatCSV)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Rebuild(ctx, nodes, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	_ = io.Write(os.Stdout, io.FormatTable, res.Nodes)
//
// # Main Packages
//
// [nestedset] - The Node type, parent lookup and validation, cycle and DAG
// detection, and interval numbering.
//
// [nestedset/transform] - Unfolding of shared branches and the leaf
// complement.
//
// [pipeline] - Runner that chains transforms and indexing behind a cache;
// shared by the CLI and the HTTP server.
//
// [io] - Record readers and writers for the supported formats.
//
// [render/nodelink] - Graphviz diagrams of indexed sets.
//
// [cache] - File, Redis and no-op result caches with scoped keys.
//
// [store] - MongoDB persistence of indexed sets.
//
// [observability] - Hook registry with a Prometheus implementation.
//
// [config] - TOML configuration. [errors] - Coded errors. [buildinfo] - Version
// stamping.
//
// [nestedset]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/nestedset
// [nestedset/transform]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/nestedset/transform
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/io
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/observability
// [config]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/nestree/pkg/buildinfo
package pkg
