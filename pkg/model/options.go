package model

import (
	"fmt"

	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/layout"
)

// LayoutOptions binds a definition to the layouts valid for it.
// It always holds at least one layout.
type LayoutOptions struct {
	Definition *Definition
	layouts    []*layout.Layout
}

// NewLayoutOptions pairs def with layouts. Nil entries are dropped; if none
// remain it fails with NO_LAYOUTS.
func NewLayoutOptions(def *Definition, layouts []*layout.Layout) (*LayoutOptions, error) {
	if def == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "model definition was nil when creating layout options")
	}
	kept := make([]*layout.Layout, 0, len(layouts))
	for _, l := range layouts {
		if l != nil {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return nil, errors.New(errors.ErrCodeNoLayouts, "no valid layout data for model %s", def.Name)
	}
	return &LayoutOptions{Definition: def, layouts: kept}, nil
}

// Name returns the definition name.
func (o *LayoutOptions) Name() string { return o.Definition.Name }

// Layouts returns a copy of the bound layouts.
func (o *LayoutOptions) Layouts() []*layout.Layout {
	return append([]*layout.Layout(nil), o.layouts...)
}

// Layout returns the named layout or nil.
func (o *LayoutOptions) Layout(name string) *layout.Layout {
	for _, l := range o.layouts {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// DefaultLayout returns the first bound layout.
func (o *LayoutOptions) DefaultLayout() *layout.Layout { return o.layouts[0] }

// IsValidLayout reports whether name is bound.
func (o *LayoutOptions) IsValidLayout(name string) bool { return o.Layout(name) != nil }

// LayoutNames returns bound layout names in order.
func (o *LayoutOptions) LayoutNames() []string {
	names := make([]string, len(o.layouts))
	for i, l := range o.layouts {
		names[i] = l.Name
	}
	return names
}

// LayoutTitles returns bound layout titles in order.
func (o *LayoutOptions) LayoutTitles() []string {
	titles := make([]string, len(o.layouts))
	for i, l := range o.layouts {
		titles[i] = l.Title
	}
	return titles
}

func (o *LayoutOptions) String() string {
	return fmt.Sprintf("%s%v", o.Definition.Name, o.LayoutNames())
}

// Names returns the definition names of opts.
func Names(opts []*LayoutOptions) []string {
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = o.Name()
	}
	return names
}

// Titles returns the definition titles of opts.
func Titles(opts []*LayoutOptions) []string {
	titles := make([]string, len(opts))
	for i, o := range opts {
		titles[i] = o.Definition.Title
	}
	return titles
}

// Find returns the option whose definition is named name, or nil.
func Find(opts []*LayoutOptions, name string) *LayoutOptions {
	for _, o := range opts {
		if o.Name() == name {
			return o
		}
	}
	return nil
}

// AppendUnique appends each option not already present (by pointer identity).
func AppendUnique(dst []*LayoutOptions, opts ...*LayoutOptions) []*LayoutOptions {
	for _, o := range opts {
		if o == nil || indexOf(dst, o) >= 0 {
			continue
		}
		dst = append(dst, o)
	}
	return dst
}

func indexOf(opts []*LayoutOptions, o *LayoutOptions) int {
	for i, x := range opts {
		if x == o {
			return i
		}
	}
	return -1
}
