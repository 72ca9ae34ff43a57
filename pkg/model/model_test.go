package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/layout"
)

const catalogDoc = `
layout "default" {
  position {}
}
layout "pair" {
  position { position = [ 1, 0, 0] }
  position { position = [-1, 0, 0] }
}

model "core-a" {
  title    = "Core A"
  diameter = 2.5
  height   = 5
  mass     = 2
  cost     = 100
  volume   = 20
  vscale   = true
  layouts  = ["default", "pair"]
  body_node {
    position    = [1.25, 0, 0]
    orientation = [1, 0, 0]
  }
  fairing {
    top    = 2
    bottom = -2
  }
  texture "white" { colors = ["1,1,1,1"] }
  texture "black" { colors = ["0,0,0,1", "1,0,0,1"] }
  default_texture = "black"
}

model "nose-cone" {
  orientation    = "top"
  diameter       = 2.5
  upper_diameter = 0.5
  lower_diameter = 2.5
  height         = 2
}

model "bad" {
  diameter = -1
}
`

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	src := cfgtree.Bytes([]byte(catalogDoc), "catalog.hcl")
	r := NewRegistry(src, layout.NewCatalog(src, nil), nil)
	require.NoError(t, r.Load())
	return r
}

func TestLazyLoadRetriesAfterError(t *testing.T) {
	calls := 0
	src := cfgtree.SourceFunc(func() (*cfgtree.Node, error) {
		calls++
		if calls == 1 {
			return nil, errors.New(errors.ErrCodeFileNotFound, "catalog unavailable")
		}
		return cfgtree.Parse([]byte(catalogDoc), "catalog.hcl")
	})
	r := NewRegistry(src, layout.NewCatalog(cfgtree.Bytes([]byte(catalogDoc), "catalog.hcl"), nil), nil)

	assert.Nil(t, r.Find("core-a"))
	assert.NotNil(t, r.Find("core-a"), "a failed lazy load must be retried")
	assert.Equal(t, 2, calls)

	r.Find("nose-cone")
	assert.Equal(t, 2, calls)
}

func TestFromNodeDefaults(t *testing.T) {
	r := newRegistry(t)

	nose := r.Find("nose-cone")
	require.NotNil(t, nose)
	assert.Equal(t, Top, nose.Orientation)
	assert.Equal(t, 0.5, nose.UpperDiameter)
	assert.Equal(t, 2.0, nose.ActualHeight)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, nose.TopNode.Position)
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, nose.BottomNode.Position)
	assert.False(t, nose.Fairing.Enabled)
	assert.Equal(t, []string{"default"}, nose.Layouts)
	assert.Equal(t, "default", nose.DefaultTexture().Name)

	core := r.Find("core-a")
	require.NotNil(t, core)
	assert.True(t, core.VerticalScale)
	assert.True(t, core.Fairing.Enabled)
	assert.Equal(t, 2.0, core.Fairing.Top)
	require.Len(t, core.BodyNodes, 1)
	assert.Equal(t, []string{"white", "black"}, core.TextureNames())
	assert.Equal(t, "black", core.DefaultTexture().Name)
	assert.Len(t, core.TextureSet("black").Colors, 2)
	assert.Nil(t, core.TextureSet("missing"))

	_, ok := r.Lookup("bad")
	assert.False(t, ok, "invalid model should be skipped")
}

func TestOrientation(t *testing.T) {
	tests := []struct {
		in   string
		want Orientation
		err  bool
	}{
		{"top", Top, false},
		{"BOTTOM", Bottom, false},
		{"", Central, false},
		{"sideways", Central, true},
	}
	for _, tt := range tests {
		got, err := ParseOrientation(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseOrientation(%q) = %v, %v", tt.in, got, err)
		}
	}

	assert.True(t, Top.Inverts(Bottom))
	assert.True(t, Bottom.Inverts(Top))
	assert.False(t, Central.Inverts(Top))
	assert.False(t, Top.Inverts(Top))
	assert.False(t, Top.Inverts(Central))
}

func TestNodeTemplateInverted(t *testing.T) {
	n := NodeTemplate{Position: mgl64.Vec3{1, 2, 3}, Orientation: mgl64.Vec3{0, 1, 0}, Size: 2}
	inv := n.Inverted()
	assert.Equal(t, mgl64.Vec3{1, -2, 3}, inv.Position)
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, inv.Orientation)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, n.Position, "Inverted must not modify receiver")
}

func TestOptionsIdentity(t *testing.T) {
	r := newRegistry(t)

	a, err := r.Options("core-a")
	require.NoError(t, err)
	b, err := r.Options("core-a")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, []string{"default", "pair"}, a.LayoutNames())

	c, err := r.Options("core-a", "pair")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, "pair", c.DefaultLayout().Name)

	_, err = r.Options("missing")
	assert.True(t, errors.Is(err, errors.ErrCodeModelNotFound))

	_, err = r.Options("core-a", "nope")
	assert.True(t, errors.Is(err, errors.ErrCodeNoLayouts))
}

func TestNewLayoutOptionsRequiresLayout(t *testing.T) {
	_, err := NewLayoutOptions(&Definition{Name: "x"}, []*layout.Layout{nil})
	if !errors.Is(err, errors.ErrCodeNoLayouts) {
		t.Errorf("NewLayoutOptions() error = %v, want %v", err, errors.ErrCodeNoLayouts)
	}
	_, err = NewLayoutOptions(nil, []*layout.Layout{layout.Default()})
	if err == nil {
		t.Error("NewLayoutOptions(nil) should fail")
	}
}

func TestOptionsFromNodes(t *testing.T) {
	r := newRegistry(t)
	root, err := cfgtree.Parse([]byte(`
NOSE { model = ["nose-cone", "missing", "nose-cone"] }
NOSE { model = ["core-a"] }
`), "part.hcl")
	require.NoError(t, err)

	opts := r.OptionsFromNodes(root.Blocks("NOSE"))
	assert.Equal(t, []string{"nose-cone", "core-a"}, Names(opts))
}

func TestVariantSet(t *testing.T) {
	opts := make([]*LayoutOptions, 4)
	for i := range opts {
		o, err := NewLayoutOptions(&Definition{Name: string(rune('a' + i))}, []*layout.Layout{layout.Default()})
		require.NoError(t, err)
		opts[i] = o
	}

	v := NewVariantSet("Long")
	assert.Nil(t, v.At(0), "empty set")

	v.Add(opts[0], opts[1], opts[0], nil)
	v.Add(opts[2])
	assert.Equal(t, 3, v.Len())

	tests := []struct {
		index int
		want  *LayoutOptions
	}{
		{-5, opts[0]},
		{0, opts[0]},
		{2, opts[2]},
		{3, opts[2]},
		{100, opts[2]},
	}
	for _, tt := range tests {
		if got := v.At(tt.index); got != tt.want {
			t.Errorf("At(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}

	assert.Equal(t, 1, v.IndexOf(opts[1]))
	assert.Equal(t, -1, v.IndexOf(opts[3]))
	assert.True(t, v.Contains(opts[2]))

	cp := v.Options()
	cp[0] = opts[3]
	assert.Same(t, opts[0], v.At(0), "Options() must return a copy")
}
