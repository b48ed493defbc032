// Package pipeline turns flat hierarchy records into an indexed nested set.
//
// This package is shared by the CLI and the HTTP server so both apply the
// same stages, defaults, caching and error codes.
//
// # Stages
//
//  1. Validate: exactly one root, every parent resolves, no cycles
//  2. Complement (optional): wrap every node so each also appears as a leaf
//  3. Unfold: while a non-leaf identity repeats, duplicate shared branches
//  4. Index: assign position ids, parent position ids, lft/rgt and counts
//  5. Order (optional): reorder depth-first and renumber positions
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Rebuild(ctx, nodes, pipeline.Options{Complement: true})
//	if err != nil {
//	    return err
//	}
//	io.Write(os.Stdout, io.FormatCSV, res.Nodes)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestree/pkg/cache"
	"github.com/matzehuels/nestree/pkg/nestedset"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMaxUnfoldPasses bounds the unfold loop. One pass resolves every
	// input whose renamed copies do not collide with existing identities.
	DefaultMaxUnfoldPasses = 8

	// DefaultMaxNodes caps the size of the unfolded collection. Unfolding
	// can grow the input exponentially in the depth of shared branches.
	DefaultMaxNodes = 1_000_000
)

// Order values.
const (
	// OrderEmission keeps the order produced by the last transformation
	// (breadth-first after unfolding, input order otherwise).
	OrderEmission = "emission"

	// OrderPreorder sorts by lft so every subtree is contiguous.
	OrderPreorder = "preorder"
)

// ValidOrders lists the accepted Order values.
var ValidOrders = []string{OrderEmission, OrderPreorder}

// ValidateOrder checks that an order is valid.
func ValidateOrder(order string) error {
	if !slices.Contains(ValidOrders, order) {
		return fmt.Errorf("invalid order: %q (must be one of: emission, preorder)", order)
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a rebuild. It supports JSON for API requests.
type Options struct {
	Complement      bool   `json:"complement,omitempty"`
	Order           string `json:"order,omitempty"`
	MaxUnfoldPasses int    `json:"max_unfold_passes,omitempty"`
	MaxNodes        int    `json:"max_nodes,omitempty"`

	// Refresh skips cache reads; the fresh result is still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks fields and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Order == "" {
		o.Order = OrderEmission
	}
	if err := ValidateOrder(o.Order); err != nil {
		return err
	}
	if o.MaxUnfoldPasses < 0 {
		return fmt.Errorf("max_unfold_passes must not be negative")
	}
	if o.MaxUnfoldPasses == 0 {
		o.MaxUnfoldPasses = DefaultMaxUnfoldPasses
	}
	if o.MaxNodes < 0 {
		return fmt.Errorf("max_nodes must not be negative")
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// IndexKeyOpts returns the cache key options for a rebuild. MaxNodes is
// part of the key so a result cached under a larger limit never satisfies a
// call that must fail with TOO_LARGE.
func (o *Options) IndexKeyOpts() cache.IndexKeyOpts {
	return cache.IndexKeyOpts{
		Complement:      o.Complement,
		Order:           o.Order,
		MaxUnfoldPasses: o.MaxUnfoldPasses,
		MaxNodes:        o.MaxNodes,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of a rebuild.
type Result struct {
	// Nodes is the indexed collection.
	Nodes []nestedset.Node

	// InputHash is the content hash of the input records.
	InputHash string

	Stats Stats

	// CacheHit reports whether Nodes came from the cache.
	CacheHit bool
}

// Stats describes a rebuild.
type Stats struct {
	InputNodes   int
	OutputNodes  int
	UnfoldPasses int
	WasDAG       bool
	Duration     time.Duration
}
