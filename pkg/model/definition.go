package model

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/layout"
	"github.com/matzehuels/stackwright/pkg/recolor"
)

// Orientation is the stack slot a model was authored for.
type Orientation int

const (
	Central Orientation = iota
	Top
	Bottom
)

func (o Orientation) String() string {
	switch o {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return "central"
	}
}

// ParseOrientation parses "top", "central" or "bottom" (case-insensitive).
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top":
		return Top, nil
	case "central", "center", "":
		return Central, nil
	case "bottom":
		return Bottom, nil
	}
	return Central, errors.New(errors.ErrCodeInvalidValue, "unknown orientation %q", s)
}

// Inverts reports whether a model authored for o must be flipped to sit in slot.
func (o Orientation) Inverts(slot Orientation) bool {
	return (o == Top && slot == Bottom) || (o == Bottom && slot == Top)
}

// NodeTemplate is an attach node in model-local, unscaled coordinates.
type NodeTemplate struct {
	Position    mgl64.Vec3
	Orientation mgl64.Vec3
	Size        int
}

// Inverted mirrors the template through the XZ plane.
func (t NodeTemplate) Inverted() NodeTemplate {
	t.Position[1] = -t.Position[1]
	t.Orientation[1] = -t.Orientation[1]
	return t
}

// Fairing holds the vertical fairing attach offsets of a model.
type Fairing struct {
	Enabled bool
	Top     float64
	Bottom  float64
}

// TextureSet is a named material set with its default recolor channels.
type TextureSet struct {
	Name   string
	Title  string
	Colors []recolor.Color
}

// Definition is an immutable model description shared by all segments that
// select it.
type Definition struct {
	Name        string
	Title       string
	Orientation Orientation

	Diameter      float64 // reference diameter used for user-driven scaling
	UpperDiameter float64
	LowerDiameter float64
	Height        float64
	ActualHeight  float64 // structural height; equals Height unless set
	Booster       bool    // total length uses ActualHeight

	VerticalScale bool // supports independent vertical scaling

	Mass   float64
	Cost   float64
	Volume float64 // cubic metres at scale 1

	TopNode     NodeTemplate
	BottomNode  NodeTemplate
	SurfaceNode NodeTemplate
	BodyNodes   []NodeTemplate

	Fairing Fairing

	TextureSets       []TextureSet
	DefaultTextureSet string

	Layouts []string
}

// TextureSet returns the named texture set, or nil.
func (d *Definition) TextureSet(name string) *TextureSet {
	for i := range d.TextureSets {
		if d.TextureSets[i].Name == name {
			return &d.TextureSets[i]
		}
	}
	return nil
}

// TextureNames returns texture set names in definition order.
func (d *Definition) TextureNames() []string {
	names := make([]string, len(d.TextureSets))
	for i, ts := range d.TextureSets {
		names[i] = ts.Name
	}
	return names
}

// DefaultTexture returns the default texture set, falling back to the first.
func (d *Definition) DefaultTexture() *TextureSet {
	if ts := d.TextureSet(d.DefaultTextureSet); ts != nil {
		return ts
	}
	if len(d.TextureSets) > 0 {
		return &d.TextureSets[0]
	}
	return nil
}

var (
	up   = mgl64.Vec3{0, 1, 0}
	down = mgl64.Vec3{0, -1, 0}
)

// FromNode decodes a `model "<name>" { ... }` block.
//
// Missing diameters default to the reference diameter, missing node templates
// default to the centre of the top and bottom faces, and a model without
// texture sets gets a single white "default" set.
func FromNode(n *cfgtree.Node) (*Definition, error) {
	name := n.Name()
	if name == "" {
		name = n.String("name", "")
	}
	if err := errors.ValidateName("model", name); err != nil {
		return nil, err
	}

	orient, err := ParseOrientation(n.String("orientation", "central"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "model %s", name)
	}

	d := &Definition{
		Name:          name,
		Title:         n.String("title", name),
		Orientation:   orient,
		Diameter:      n.Float("diameter", 1),
		Height:        n.Float("height", 1),
		Booster:       n.Bool("booster", false),
		VerticalScale: n.Bool("vscale", false),
		Mass:          n.Float("mass", 0),
		Cost:          n.Float("cost", 0),
		Volume:        n.Float("volume", 0),
		Layouts:       n.Strings("layouts"),
	}
	d.UpperDiameter = n.Float("upper_diameter", d.Diameter)
	d.LowerDiameter = n.Float("lower_diameter", d.Diameter)
	d.ActualHeight = n.Float("actual_height", d.Height)

	if err := errors.ValidatePositive(name+".diameter", d.Diameter); err != nil {
		return nil, err
	}
	if err := errors.ValidatePositive(name+".height", d.Height); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		field string
		v     float64
	}{
		{"upper_diameter", d.UpperDiameter}, {"lower_diameter", d.LowerDiameter},
		{"mass", d.Mass}, {"cost", d.Cost}, {"volume", d.Volume},
	} {
		if err := errors.ValidateNonNegative(name+"."+f.field, f.v); err != nil {
			return nil, err
		}
	}

	half := d.Height / 2
	d.TopNode = nodeTemplate(n.Block("top_node"), NodeTemplate{Position: mgl64.Vec3{0, half, 0}, Orientation: up})
	d.BottomNode = nodeTemplate(n.Block("bottom_node"), NodeTemplate{Position: mgl64.Vec3{0, -half, 0}, Orientation: down})
	d.SurfaceNode = nodeTemplate(n.Block("surface_node"), NodeTemplate{Position: mgl64.Vec3{d.Diameter / 2, 0, 0}, Orientation: mgl64.Vec3{1, 0, 0}})
	for _, bn := range n.Blocks("body_node") {
		d.BodyNodes = append(d.BodyNodes, nodeTemplate(bn, NodeTemplate{Orientation: up}))
	}

	if fn := n.Block("fairing"); fn != nil {
		d.Fairing = Fairing{
			Enabled: fn.Bool("enabled", true),
			Top:     fn.Float("top", half),
			Bottom:  fn.Float("bottom", -half),
		}
	} else {
		d.Fairing = Fairing{Top: half, Bottom: -half}
	}

	for _, tn := range n.Blocks("texture") {
		ts := TextureSet{Name: tn.Name(), Title: tn.String("title", tn.Name())}
		for _, cs := range tn.Strings("colors") {
			c, err := recolor.ParseColor(cs)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "model %s texture %s", name, ts.Name)
			}
			ts.Colors = append(ts.Colors, c)
		}
		d.TextureSets = append(d.TextureSets, ts)
	}
	if len(d.TextureSets) == 0 {
		d.TextureSets = []TextureSet{{Name: "default", Title: "Default", Colors: []recolor.Color{recolor.White}}}
	}
	d.DefaultTextureSet = n.String("default_texture", d.TextureSets[0].Name)

	if len(d.Layouts) == 0 {
		d.Layouts = []string{layout.DefaultName}
	}
	return d, nil
}

func nodeTemplate(n *cfgtree.Node, def NodeTemplate) NodeTemplate {
	if n == nil {
		return def
	}
	pos := n.FloatsOr("position", 3, def.Position[:])
	orient := n.FloatsOr("orientation", 3, def.Orientation[:])
	return NodeTemplate{
		Position:    mgl64.Vec3{pos[0], pos[1], pos[2]},
		Orientation: mgl64.Vec3{orient[0], orient[1], orient[2]},
		Size:        n.Int("size", def.Size),
	}
}
