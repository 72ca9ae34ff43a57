package layout

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/stackwright/pkg/cfgtree"
)

// DefaultName is the layout every model falls back to.
const DefaultName = "default"

// Position places one sub-model relative to its segment.
type Position struct {
	Position mgl64.Vec3 // local offset
	Scale    mgl64.Vec3 // local scale
	Rotation mgl64.Vec3 // euler angles in degrees
}

// Identity returns the zero-offset, unit-scale position.
func Identity() Position {
	return Position{Scale: mgl64.Vec3{1, 1, 1}}
}

// ScaledPosition returns the local offset multiplied component-wise by s.
func (p Position) ScaledPosition(s mgl64.Vec3) mgl64.Vec3 {
	return Hadamard(p.Position, s)
}

// ScaledScale returns the local scale multiplied component-wise by s.
func (p Position) ScaledScale(s mgl64.Vec3) mgl64.Vec3 {
	return Hadamard(p.Scale, s)
}

// Layout is an immutable named set of positions.
type Layout struct {
	Name      string
	Title     string
	Positions []Position
}

// ModelScalarAverage returns the mean magnitude of the position scales, or 0
// for a layout with no positions.
func (l *Layout) ModelScalarAverage() float64 {
	if l == nil || len(l.Positions) == 0 {
		return 0
	}
	var sum float64
	for _, p := range l.Positions {
		sum += p.Scale.Len()
	}
	return sum / float64(len(l.Positions))
}

// Default returns a layout with a single identity position.
func Default() *Layout {
	return &Layout{Name: DefaultName, Title: "Default", Positions: []Position{Identity()}}
}

// FromNode builds a layout from a `layout "<name>" { ... }` block. The name is
// taken from the block label, or from a `name` attribute when unlabelled.
func FromNode(n *cfgtree.Node) *Layout {
	name := n.Name()
	if name == "" {
		name = n.String("name", "")
	}
	l := &Layout{
		Name:  name,
		Title: n.String("title", name),
	}
	for _, pn := range n.Blocks("position") {
		l.Positions = append(l.Positions, Position{
			Position: vec3(pn, "position", mgl64.Vec3{}),
			Scale:    vec3(pn, "scale", mgl64.Vec3{1, 1, 1}),
			Rotation: vec3(pn, "rotation", mgl64.Vec3{}),
		})
	}
	return l
}

func vec3(n *cfgtree.Node, key string, def mgl64.Vec3) mgl64.Vec3 {
	f := n.FloatsOr(key, 3, def[:])
	return mgl64.Vec3{f[0], f[1], f[2]}
}

// Hadamard multiplies two vectors component-wise.
func Hadamard(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
