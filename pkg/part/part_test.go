package part

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/stackwright/pkg/errors"
)

func TestMoveNode(t *testing.T) {
	tests := []struct {
		name          string
		userInitiated bool
		wantChild     mgl64.Vec3
	}{
		{"user edit drags child", true, mgl64.Vec3{0, 4, 0}},
		{"programmatic leaves child", false, mgl64.Vec3{0, 3, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Recorder{}
			p := New("tank", rec)
			n := p.CreateNode("top", mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, 1, 0}, 1)
			if err := p.Attach("top", &Child{ID: "c1", Position: mgl64.Vec3{0, 3, 0}}); err != nil {
				t.Fatalf("Attach() error = %v", err)
			}

			p.MoveNode(n, mgl64.Vec3{0, 3, 0}, mgl64.Vec3{0, 1, 0}, 2, tt.userInitiated)

			if n.Position != (mgl64.Vec3{0, 3, 0}) || n.Size != 2 {
				t.Errorf("node = %+v", n)
			}
			if got := n.Attached.Position; got != tt.wantChild {
				t.Errorf("child position = %v, want %v", got, tt.wantChild)
			}
			if rec.Count("node:moved") != 1 {
				t.Errorf("node:moved events = %d, want 1", rec.Count("node:moved"))
			}
		})
	}
}

func TestCreateDestroyNode(t *testing.T) {
	p := New("tank", nil)
	a := p.CreateNode("a", mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, 1)
	if again := p.CreateNode("a", mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}, 3); again != a {
		t.Error("CreateNode() with existing name should return existing node")
	}

	if err := p.Attach("a", &Child{Name: "c"}); err != nil {
		t.Fatal(err)
	}
	if err := p.Attach("a", &Child{Name: "d"}); !errors.Is(err, errors.ErrCodeInvalidSelection) {
		t.Errorf("Attach() to occupied node error = %v", err)
	}
	if err := p.DestroyNode("a"); !errors.Is(err, errors.ErrCodeInvalidSelection) {
		t.Errorf("DestroyNode() with child error = %v", err)
	}
	if c := p.Detach("a"); c == nil || c.Name != "c" {
		t.Errorf("Detach() = %v", c)
	}
	if err := p.DestroyNode("a"); err != nil {
		t.Errorf("DestroyNode() error = %v", err)
	}
	if err := p.DestroyNode("a"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("DestroyNode() missing error = %v", err)
	}
	if len(p.Nodes()) != 0 {
		t.Errorf("Nodes() = %v, want empty", p.Nodes())
	}
}

func TestRootTransformDropsSubtree(t *testing.T) {
	p := New("tank", nil)
	p.RootTransform("NOSE")
	p.SetTransform(&Transform{Name: "NOSE-0", Parent: "NOSE"})
	p.SetTransform(&Transform{Name: "NOSE-0-detail", Parent: "NOSE-0"})
	p.SetTransform(&Transform{Name: "CORE"})

	if got := len(p.Children("NOSE")); got != 1 {
		t.Fatalf("Children(NOSE) = %d, want 1", got)
	}

	root := p.RootTransform("NOSE")
	if root.Scale != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("root scale = %v", root.Scale)
	}
	if p.Transform("NOSE-0") != nil || p.Transform("NOSE-0-detail") != nil {
		t.Error("RootTransform() should remove the previous subtree")
	}
	if p.Transform("CORE") == nil {
		t.Error("RootTransform() removed an unrelated transform")
	}
}

func TestSelectableNodes(t *testing.T) {
	p := New("tank", nil)
	p.AddSelectableNode("noseinterstage", false, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0})
	p.AddSelectableNode("mountinterstage", true, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, -1, 0})

	p.StartSelectableNodes()
	if p.FindNode("noseinterstage") != nil {
		t.Error("disabled toggle should not create node")
	}
	mount := p.FindNode("mountinterstage")
	if mount == nil || mount.Size != selectableNodeSize {
		t.Fatalf("enabled toggle should create node, got %+v", mount)
	}

	p.UpdateSelectableNodePosition("noseinterstage", mgl64.Vec3{0, 5, 0})
	if !p.ToggleNode("noseinterstage") {
		t.Error("ToggleNode() on missing node should enable")
	}
	if got := p.FindNode("noseinterstage").Position; got != (mgl64.Vec3{0, 5, 0}) {
		t.Errorf("toggled node position = %v, want updated default", got)
	}

	_ = p.Attach("mountinterstage", &Child{Name: "decoupler"})
	if !p.ToggleNode("mountinterstage") {
		t.Error("ToggleNode() must not disable an occupied node")
	}

	p.Detach("mountinterstage")
	if p.ToggleNode("mountinterstage") {
		t.Error("ToggleNode() on free node should disable")
	}

	// Restart keeps persisted state rather than StartsEnabled.
	p.StartSelectableNodes()
	if p.FindNode("mountinterstage") != nil {
		t.Error("restart re-created a disabled node")
	}
}

func TestFairingApply(t *testing.T) {
	p := New("tank", nil)
	i := p.AddFairing("central")
	f := p.Fairing(i)
	f.Apply(FairingUpdate{Enabled: true, TopY: Float(2), BottomRadius: Float(1.25)})
	f.Apply(FairingUpdate{Enabled: true, BottomY: Float(-2)})

	want := Fairing{Name: "central", Enabled: true, TopY: 2, BottomY: -2, BottomRadius: 1.25}
	if *f != want {
		t.Errorf("fairing = %+v, want %+v", *f, want)
	}
	if p.Fairing(5) != nil || p.Fairing(-1) != nil {
		t.Error("Fairing() out of range should be nil")
	}
}

func TestMultiEvents(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, b}
	m.GeometryChanged()
	m.VolumeChanged(1000)
	if a.Count("geometry") != 1 || b.Count("volume") != 1 {
		t.Errorf("Multi did not fan out: %v / %v", a.Kinds(), b.Kinds())
	}
	if e, ok := b.Last("volume"); !ok || e.Value != 1000 {
		t.Errorf("Last(volume) = %v, %v", e, ok)
	}
}
