package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving callers that share
// a backend separate namespaces:
//
//	api := NewScopedKeyer(NewDefaultKeyer(), "api:")
//	cli := NewScopedKeyer(NewDefaultKeyer(), "cli:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) *ScopedKeyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// IndexKey implements [Keyer].
func (k *ScopedKeyer) IndexKey(inputHash string, opts IndexKeyOpts) string {
	return k.prefix + k.inner.IndexKey(inputHash, opts)
}

// RenderKey implements [Keyer].
func (k *ScopedKeyer) RenderKey(indexHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(indexHash, opts)
}

var _ Keyer = (*ScopedKeyer)(nil)
