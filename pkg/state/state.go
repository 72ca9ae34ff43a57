package state

import (
	"encoding/json"

	"github.com/matzehuels/stackwright/pkg/cache"
	"github.com/matzehuels/stackwright/pkg/errors"
)

// Segment is the persisted selection of one segment.
type Segment struct {
	Model   string `json:"model" yaml:"model" toml:"model" msgpack:"model" bson:"model"`
	Texture string `json:"texture,omitempty" yaml:"texture,omitempty" toml:"texture,omitempty" msgpack:"texture,omitempty" bson:"texture,omitempty"`
	Colors  string `json:"colors,omitempty" yaml:"colors,omitempty" toml:"colors,omitempty" msgpack:"colors,omitempty" bson:"colors,omitempty"`
}

// State is the persisted per-instance state of an assembly. Everything else
// is derived from it and the catalogs on load.
type State struct {
	Part        string  `json:"part" yaml:"part" toml:"part" msgpack:"part" bson:"part"`
	Diameter    float64 `json:"diameter" yaml:"diameter" toml:"diameter" msgpack:"diameter" bson:"diameter"`
	VScale      float64 `json:"vscale" yaml:"vscale" toml:"vscale" msgpack:"vscale" bson:"vscale"`
	Variant     string  `json:"variant" yaml:"variant" toml:"variant" msgpack:"variant" bson:"variant"`
	Nose        Segment `json:"nose" yaml:"nose" toml:"nose" msgpack:"nose" bson:"nose"`
	Core        Segment `json:"core" yaml:"core" toml:"core" msgpack:"core" bson:"core"`
	Mount       Segment `json:"mount" yaml:"mount" toml:"mount" msgpack:"mount" bson:"mount"`
	Initialized bool    `json:"initialized" yaml:"initialized" toml:"initialized" msgpack:"initialized" bson:"initialized"`
}

// Validate checks value ranges. Names are checked by the catalogs on load.
func (s State) Validate() error {
	if err := errors.ValidateName("part", s.Part); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("diameter", s.Diameter); err != nil {
		return err
	}
	return errors.ValidateRange("vscale", s.VScale, -1, 1)
}

// Hash returns a stable digest of s, used to key derived outputs.
func (s State) Hash() string {
	data, _ := json.Marshal(s)
	return cache.Hash(data)
}
