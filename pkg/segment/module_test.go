package segment

import (
	"bytes"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/layout"
	"github.com/matzehuels/stackwright/pkg/model"
	"github.com/matzehuels/stackwright/pkg/part"
	"github.com/matzehuels/stackwright/pkg/recolor"
)

const testModels = `
layout "default" {
  position {}
}
layout "twin" {
  position {
    position = [ 0.5, 0, 0]
    scale    = [0.5, 1, 0.5]
  }
  position {
    position = [-0.5, 0, 0]
    scale    = [0.5, 1, 0.5]
  }
}

model "core-25" {
  diameter = 2.5
  height   = 4
  mass     = 2
  cost     = 100
  volume   = 10
  vscale   = true
  layouts  = ["default", "twin"]
  body_node {
    position    = [1.25, 1, 0]
    orientation = [1, 0, 0]
  }
  fairing {
    top    = 2
    bottom = -2
  }
  texture "white" { colors = ["1,1,1,1"] }
  texture "red"   { colors = ["1,0,0,1", "0.5,0,0,1"] }
}

model "nose-cone" {
  orientation    = "top"
  diameter       = 2.5
  upper_diameter = 1
  lower_diameter = 2.5
  height         = 2
  mass           = 0.5
  fairing {
    top    = 1
    bottom = -1
  }
}

model "mount-skirt" {
  orientation    = "bottom"
  diameter       = 1.25
  upper_diameter = 1.25
  lower_diameter = 2
  height         = 1
}
`

type fixture struct {
	reg  *model.Registry
	part *part.Part
	rec  *part.Recorder
	logs *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	src := cfgtree.Bytes([]byte(testModels), "models.hcl")
	reg := model.NewRegistry(src, layout.NewCatalog(src, nil), nil)
	require.NoError(t, reg.Load())
	rec := &part.Recorder{}
	return &fixture{reg: reg, part: part.New("tank", rec), rec: rec, logs: &bytes.Buffer{}}
}

func (f *fixture) module(t *testing.T, role Role, cfg Config, names ...string) *Module {
	t.Helper()
	m := New(role, f.part, cfg, log.NewWithOptions(f.logs, log.Options{Level: log.DebugLevel}))
	require.NoError(t, m.SetupModelList(f.reg.OptionsFor(names)))
	m.SetupModel()
	return m
}

func TestScalingLaw(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		cfg   Config
		scale float64
	}{
		{"cubic double", DefaultConfig(), 2},
		{"cubic half", DefaultConfig(), 0.5},
		{"square", Config{MassScalar: 2, VolumeScalar: 2.5}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := f.module(t, Core, tt.cfg, "core-25")
			m.SetScaleForDiameter(2.5*tt.scale, 0)

			p := tt.cfg.MassScalar
			costP := tt.cfg.CostScalar
			if costP == 0 {
				costP = p
			}
			assert.InDelta(t, 2*math.Pow(tt.scale, p), m.Mass(), 1e-9)
			assert.InDelta(t, 100*math.Pow(tt.scale, costP), m.Cost(), 1e-9)
			assert.InDelta(t, 10*math.Pow(tt.scale, tt.cfg.VolumeScalar), m.Volume(), 1e-9)
			assert.InDelta(t, 4*tt.scale, m.Height(), 1e-9)
		})
	}
}

func TestVerticalScale(t *testing.T) {
	f := newFixture(t)
	core := f.module(t, Core, DefaultConfig(), "core-25")
	core.SetScaleForDiameter(5, 0.5)
	assert.InDelta(t, 2, core.HorizontalScale(), 1e-12)
	assert.InDelta(t, 3, core.VerticalScale(), 1e-12)
	assert.InDelta(t, 12, core.Height(), 1e-12)
	// mass = M·h^(p-1)·v
	assert.InDelta(t, 2*4*3, core.Mass(), 1e-9)

	// Models without vertical scaling ignore vScale.
	nose := f.module(t, Nose, DefaultConfig(), "nose-cone")
	nose.SetDiameterFromBelow(5, 0.5)
	assert.InDelta(t, nose.HorizontalScale(), nose.VerticalScale(), 1e-12)
}

func TestDiameterScenario(t *testing.T) {
	f := newFixture(t)
	core := f.module(t, Core, DefaultConfig(), "core-25")
	nose := f.module(t, Nose, DefaultConfig(), "nose-cone")

	core.SetScaleForDiameter(5.0, 0)
	require.InDelta(t, 2.0, core.HorizontalScale(), 1e-12)

	nose.SetDiameterFromBelow(core.UpperDiameter(), 0)
	assert.InDelta(t, core.UpperDiameter(), nose.LowerDiameter(), 1e-9)
	assert.InDelta(t, 5.0, nose.LowerDiameter(), 1e-9)
	assert.InDelta(t, 2.0, nose.UpperDiameter(), 1e-9)
}

func TestInversion(t *testing.T) {
	f := newFixture(t)

	// A bottom-authored model in the nose slot is flipped.
	nose := f.module(t, Nose, DefaultConfig(), "mount-skirt")
	require.True(t, nose.Inverted())
	assert.Equal(t, 2.0, nose.UpperDiameter())
	assert.Equal(t, 1.25, nose.LowerDiameter())

	nose.SetDiameterFromBelow(2.5, 0)
	assert.InDelta(t, 2.5, nose.LowerDiameter(), 1e-9)
	assert.InDelta(t, 4.0, nose.UpperDiameter(), 1e-9)

	mount := f.module(t, Mount, DefaultConfig(), "mount-skirt")
	assert.False(t, mount.Inverted())

	// Fairing offsets mirror through the centre.
	cone := f.module(t, Mount, DefaultConfig(), "nose-cone")
	require.True(t, cone.Inverted())
	cone.SetPosition(10)
	assert.InDelta(t, 11, cone.FairingTop(), 1e-9)
	assert.InDelta(t, 9, cone.FairingBottom(), 1e-9)
}

func TestAttachNodes(t *testing.T) {
	f := newFixture(t)
	core := f.module(t, Core, DefaultConfig(), "core-25")
	core.SetScaleForDiameter(5, 0)
	core.SetPosition(1)

	core.UpdateAttachNodeTop("top", false)
	core.UpdateAttachNodeBottom("bottom", false)

	top := f.part.FindNode("top")
	require.NotNil(t, top)
	assert.Equal(t, mgl64.Vec3{0, 5, 0}, top.Position)
	assert.Equal(t, 5, top.Size) // round(5/1.25)+1
	bottom := f.part.FindNode("bottom")
	assert.Equal(t, mgl64.Vec3{0, -3, 0}, bottom.Position)
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, bottom.Orientation)

	// User-initiated moves drag attached parts along.
	require.NoError(t, f.part.Attach("top", &part.Child{Name: "probe", Position: mgl64.Vec3{0, 6, 0}}))
	core.SetScaleForDiameter(2.5, 0)
	core.UpdateAttachNodeTop("top", true)
	assert.Equal(t, mgl64.Vec3{0, 3, 0}, top.Position)
	assert.Equal(t, mgl64.Vec3{0, 4, 0}, top.Attached.Position)
}

func TestNodeSize(t *testing.T) {
	m := New(Core, part.New("x", nil), Config{MinNodeSize: 2}, nil)
	tests := []struct {
		d    float64
		want int
	}{
		{0.625, 2},
		{1.25, 2},
		{2.5, 3},
		{3.75, 4},
		{10, 9},
	}
	for _, tt := range tests {
		if got := m.NodeSize(tt.d); got != tt.want {
			t.Errorf("NodeSize(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestBodyNodes(t *testing.T) {
	f := newFixture(t)
	core := f.module(t, Core, DefaultConfig(), "core-25")
	core.UpdateAttachNodeBody([]string{"side", "extra"}, false)

	side := f.part.FindNode("side")
	require.NotNil(t, side)
	assert.Equal(t, mgl64.Vec3{1.25, 1, 0}, side.Position)
	assert.Nil(t, f.part.FindNode("extra"), "names beyond templates are not created")

	f.part.CreateNode("extra", mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, 1)
	core.UpdateAttachNodeBody([]string{"side", "extra"}, false)
	assert.Nil(t, f.part.FindNode("extra"), "free surplus nodes are destroyed")
}

func TestSurfaceAttach(t *testing.T) {
	f := newFixture(t)
	core := f.module(t, Core, DefaultConfig(), "core-25")
	child := &part.Child{Name: "fin", Position: mgl64.Vec3{0, 0, 1.25}}
	f.part.AttachSurface(child)

	core.SetScaleForDiameter(5, 0)
	core.UpdateSurfaceAttachNode(f.part.SurfaceNode(), 2.5, true)

	assert.InDelta(t, 2.5, f.part.SurfaceNode().Position[0], 1e-9)
	assert.InDelta(t, 2.5, child.Position[2], 1e-9)

	// Programmatic updates leave children alone.
	core.SetScaleForDiameter(2.5, 0)
	core.UpdateSurfaceAttachNode(f.part.SurfaceNode(), 5, false)
	assert.InDelta(t, 2.5, child.Position[2], 1e-9)
}

func TestSetupModelListFallback(t *testing.T) {
	f := newFixture(t)
	m := New(Nose, f.part, DefaultConfig(), log.NewWithOptions(f.logs, log.Options{}))
	m.Restore("gone", "", "")
	require.NoError(t, m.SetupModelList(f.reg.OptionsFor([]string{"nose-cone", "mount-skirt"})))
	m.SetupModel()
	assert.Equal(t, "nose-cone", m.Name())
	assert.Contains(t, f.logs.String(), "substituting first option")

	assert.Error(t, New(Nose, f.part, DefaultConfig(), nil).SetupModelList(nil))
}

func TestSetupModelTextureFallback(t *testing.T) {
	f := newFixture(t)
	m := New(Core, f.part, DefaultConfig(), log.NewWithOptions(f.logs, log.Options{Level: log.WarnLevel}))
	m.Restore("core-25", "gone", "")
	require.NoError(t, m.SetupModelList(f.reg.OptionsFor([]string{"core-25"})))
	m.SetupModel()

	assert.Equal(t, "white", m.Texture())
	assert.Equal(t, "1,1,1,1,0,0,1", m.RecolorString())
	assert.Contains(t, f.logs.String(), "WARN")
	assert.Contains(t, f.logs.String(), "substituting default")
}

func TestModelSelected(t *testing.T) {
	f := newFixture(t)
	opts := f.reg.OptionsFor([]string{"core-25", "nose-cone"})

	m := f.module(t, Core, DefaultConfig(), "core-25", "nose-cone")
	m.Options = OptionsFunc(func() []*model.LayoutOptions { return opts[:1] })

	m.ModelSelected("nose-cone")
	assert.Equal(t, "core-25", m.Name(), "name outside valid options falls back to first valid")
	assert.Contains(t, f.logs.String(), "falling back")

	m.Options = nil
	m.ModelSelected("nose-cone")
	assert.Equal(t, "nose-cone", m.Name())
	assert.Equal(t, "default", m.Texture())
}

func TestRecolorPersistence(t *testing.T) {
	custom := []recolor.Color{{R: 0.2, G: 0.3, B: 0.4, A: 1, Detail: 1}}
	tests := []struct {
		name    string
		persist bool
		want    string
	}{
		{"reset on texture change", false, "1,0,0,1,0,0,1;0.5,0,0,1,0,0,1"},
		{"persist across texture change", true, "0.2,0.3,0.4,1,0,0,1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			cfg := DefaultConfig()
			cfg.PersistRecolor = tt.persist
			m := f.module(t, Core, cfg, "core-25")
			assert.Equal(t, "white", m.Texture())

			m.SetSectionColors(custom)
			m.TextureSetSelected("red")
			assert.Equal(t, "red", m.Texture())
			assert.Equal(t, tt.want, m.RecolorString())
		})
	}
}

func TestSymmetryPropagation(t *testing.T) {
	f := newFixture(t)
	a := f.module(t, Core, DefaultConfig(), "core-25", "nose-cone")
	b := f.module(t, Core, DefaultConfig(), "core-25", "nose-cone")
	a.Symmetry = CounterpartsFunc(func() []*Module { return []*Module{a, b} })

	a.ModelSelected("nose-cone")
	assert.Equal(t, "nose-cone", b.Name())

	a.ModelSelected("core-25")
	a.TextureSetSelected("red")
	assert.Equal(t, "red", b.Texture())

	a.SetSectionColors([]recolor.Color{recolor.White})
	assert.Equal(t, a.RecolorString(), b.RecolorString())
}

func TestUpdateSelections(t *testing.T) {
	f := newFixture(t)
	single := f.module(t, Nose, DefaultConfig(), "nose-cone")
	single.UpdateSelections()
	assert.False(t, single.ModelSelectable())
	assert.False(t, single.TextureSelectable())
	assert.Equal(t, []string{"nose-cone"}, single.ModelChoices())

	multi := f.module(t, Core, DefaultConfig(), "core-25", "nose-cone")
	multi.UpdateSelections()
	assert.True(t, multi.ModelSelectable())
	assert.True(t, multi.TextureSelectable())
}

func TestUpdateModelMeshes(t *testing.T) {
	f := newFixture(t)
	m := f.module(t, Core, DefaultConfig(), "core-25")
	m.ModelSelected("core-25")
	m.SetScaleForDiameter(5, 0)
	m.SetPosition(-1)
	m.UpdateModelMeshes()

	root := f.part.Transform(Core.Root())
	require.NotNil(t, root)
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, root.Position)
	children := f.part.Children(Core.Root())
	require.Len(t, children, 1)
	assert.Equal(t, mgl64.Vec3{2, 2, 2}, children[0].Scale)

	e, ok := f.rec.Last("mesh")
	require.True(t, ok)
	assert.Equal(t, Core.Root(), e.Target)

	// Idempotent: a second pass leaves the same tree.
	before := len(f.part.Transforms())
	m.UpdateModelMeshes()
	assert.Equal(t, before, len(f.part.Transforms()))
}
