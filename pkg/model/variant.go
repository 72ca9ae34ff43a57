package model

// DefaultVariant is the variant name used when a CORE block names none.
const DefaultVariant = "Default"

// VariantSet is a named, ordered group of interchangeable core options.
// Entries are unique by pointer identity.
type VariantSet struct {
	Name    string
	options []*LayoutOptions
}

// NewVariantSet creates an empty set.
func NewVariantSet(name string) *VariantSet {
	return &VariantSet{Name: name}
}

// Add appends options not already in the set.
func (v *VariantSet) Add(opts ...*LayoutOptions) {
	v.options = AppendUnique(v.options, opts...)
}

// At returns the option at index i, clamped to [0, Len()-1]. It returns nil
// only for an empty set.
func (v *VariantSet) At(i int) *LayoutOptions {
	if len(v.options) == 0 {
		return nil
	}
	if i < 0 {
		i = 0
	}
	if i >= len(v.options) {
		i = len(v.options) - 1
	}
	return v.options[i]
}

// IndexOf returns the index of o, or -1.
func (v *VariantSet) IndexOf(o *LayoutOptions) int {
	return indexOf(v.options, o)
}

// Contains reports whether o is in the set.
func (v *VariantSet) Contains(o *LayoutOptions) bool {
	return v.IndexOf(o) >= 0
}

// Options returns a copy of the set's options.
func (v *VariantSet) Options() []*LayoutOptions {
	return append([]*LayoutOptions(nil), v.options...)
}

// Len returns the number of options.
func (v *VariantSet) Len() int { return len(v.options) }
