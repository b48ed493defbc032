package cache

// schemaVersion is bumped whenever the encoding of cached values changes.
const schemaVersion = 1

// IndexKeyOpts are the rebuild options that change an index result.
type IndexKeyOpts struct {
	Complement      bool   `json:"complement"`
	Order           string `json:"order"`
	MaxUnfoldPasses int    `json:"max_unfold_passes"`
	MaxNodes        int    `json:"max_nodes"`
}

// RenderKeyOpts are the render options that change a rendered artifact.
type RenderKeyOpts struct {
	Format    string `json:"format"`
	Direction string `json:"direction"`
	Labels    bool   `json:"labels"`
	Intervals bool   `json:"intervals"`
}

// Keyer produces cache keys.
type Keyer interface {
	// IndexKey keys a rebuild result by the hash of its input records.
	IndexKey(inputHash string, opts IndexKeyOpts) string

	// RenderKey keys a rendered artifact by the hash of its indexed nodes.
	RenderKey(indexHash string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes its inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() *DefaultKeyer { return &DefaultKeyer{} }

// IndexKey implements [Keyer].
func (DefaultKeyer) IndexKey(inputHash string, opts IndexKeyOpts) string {
	return hashKey("index", schemaVersion, inputHash, opts)
}

// RenderKey implements [Keyer].
func (DefaultKeyer) RenderKey(indexHash string, opts RenderKeyOpts) string {
	return hashKey("render", schemaVersion, indexHash, opts)
}

var _ Keyer = (*DefaultKeyer)(nil)
