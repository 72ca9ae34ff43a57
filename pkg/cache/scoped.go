package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving each workspace
// its own namespace in a shared backend.
//
//	keys := NewScopedKeyer(NewDefaultKeyer(), "ws:hangar-2:")
//	keys.StateKey("tank", "left") // "ws:hangar-2:state:tank:left"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// StateKey returns the prefixed state key.
func (k *ScopedKeyer) StateKey(part, instance string) string {
	return k.prefix + k.inner.StateKey(part, instance)
}

// SnapshotKey returns the prefixed snapshot key.
func (k *ScopedKeyer) SnapshotKey(stateHash string) string {
	return k.prefix + k.inner.SnapshotKey(stateHash)
}

// ExportKey returns the prefixed export key.
func (k *ScopedKeyer) ExportKey(stateHash string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(stateHash, opts)
}
