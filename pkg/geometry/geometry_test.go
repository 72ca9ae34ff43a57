package geometry

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackwright/pkg/assembly"
	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/layout"
	"github.com/matzehuels/stackwright/pkg/model"
	"github.com/matzehuels/stackwright/pkg/part"
)

const catalog = `
layout "default" {
  position {}
}

model "tube" {
  diameter = 2
  height   = 4
}
model "cone" {
  orientation    = "top"
  diameter       = 2
  upper_diameter = 0
  lower_diameter = 2
  height         = 2
}
model "skirt" {
  orientation    = "bottom"
  diameter       = 2
  upper_diameter = 2
  lower_diameter = 3
  height         = 1
}

part "stack" {
  diameter = 2
  NOSE  { model = ["cone"] }
  CORE  { model = ["tube"] }
  MOUNT { model = ["skirt"] }
}
`

func newAssembly(t *testing.T) *assembly.Assembly {
	t.Helper()
	src := cfgtree.Bytes([]byte(catalog), "catalog.hcl")
	reg := model.NewRegistry(src, layout.NewCatalog(src, nil), nil)
	require.NoError(t, reg.Load())

	root, err := cfgtree.Parse([]byte(catalog), "catalog.hcl")
	require.NoError(t, err)
	cfg, err := assembly.LoadConfig(root, "stack")
	require.NoError(t, err)

	a := assembly.New(part.New("stack", nil), cfg, reg, nil)
	require.NoError(t, a.Start())
	return a
}

func TestFrusta(t *testing.T) {
	a := newAssembly(t)
	fs := Frusta(a)
	require.Len(t, fs, 3)

	nose, core, mount := fs[0], fs[1], fs[2]
	assert.Equal(t, "nose", nose.Segment)
	assert.InDelta(t, 2.5, nose.Center.Y(), 1e-9)
	assert.InDelta(t, 1.0, nose.LowerRadius, 1e-9)
	assert.InDelta(t, 0.0, nose.UpperRadius, 1e-9)

	assert.InDelta(t, -0.5, core.Center.Y(), 1e-9)
	assert.InDelta(t, 4.0, core.Height, 1e-9)

	assert.InDelta(t, -3.0, mount.Center.Y(), 1e-9)
	assert.InDelta(t, 1.5, mount.LowerRadius, 1e-9)
	assert.InDelta(t, 1.0, mount.UpperRadius, 1e-9)
}

func TestFrustaFollowDiameter(t *testing.T) {
	a := newAssembly(t)
	require.NoError(t, a.SetDiameter(4))

	for _, f := range Frusta(a) {
		if f.Segment == "core" {
			assert.InDelta(t, 2.0, f.LowerRadius, 1e-9)
			assert.InDelta(t, 8.0, f.Height, 1e-9)
		}
	}
}

func TestSolidBounds(t *testing.T) {
	a := newAssembly(t)
	s, err := Solid(a)
	require.NoError(t, err)

	min, max := Bounds(s)
	assert.InDelta(t, -a.TotalLength()/2, min.Y(), 1e-6)
	assert.InDelta(t, a.TotalLength()/2, max.Y(), 1e-6)
	assert.InDelta(t, 1.5, max.X(), 1e-6)
	assert.InDelta(t, -1.5, min.Z(), 1e-6)
}

func TestWriteSTL(t *testing.T) {
	a := newAssembly(t)
	var buf bytes.Buffer
	n, err := WriteSTL(&buf, a, 24)
	require.NoError(t, err)
	require.Positive(t, n)

	b := buf.Bytes()
	assert.Equal(t, 84+50*n, len(b))
	assert.Equal(t, uint32(n), binary.LittleEndian.Uint32(b[80:84]))
	assert.True(t, bytes.HasPrefix(b, []byte("stackwright stack")))
}

func TestSaveSTL(t *testing.T) {
	a := newAssembly(t)
	path := filepath.Join(t.TempDir(), "stack.stl")
	n, err := SaveSTL(path, a, 16)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(84+50*n), info.Size())
}
