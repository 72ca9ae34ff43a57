package cache

import "strings"

// Keyer builds cache keys.
type Keyer interface {
	// StateKey addresses the persisted state of one part instance.
	StateKey(part, instance string) string

	// SnapshotKey addresses derived outputs computed from a state hash.
	SnapshotKey(stateHash string) string

	// ExportKey addresses an exported mesh of a state hash.
	ExportKey(stateHash string, opts ExportKeyOpts) string
}

// ExportKeyOpts are the export settings that change the produced bytes.
type ExportKeyOpts struct {
	Format string `json:"format"`
	Cells  int    `json:"cells"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// StateKey returns "state:<part>:<instance>". Instance names are lowercased.
func (DefaultKeyer) StateKey(part, instance string) string {
	return "state:" + part + ":" + strings.ToLower(instance)
}

// SnapshotKey returns "snapshot:<hash>".
func (DefaultKeyer) SnapshotKey(stateHash string) string {
	return "snapshot:" + stateHash
}

// ExportKey hashes the options so new settings never collide with old entries.
func (DefaultKeyer) ExportKey(stateHash string, opts ExportKeyOpts) string {
	return hashKey("export", stateHash, opts)
}

var _ Keyer = DefaultKeyer{}
