package segment

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/layout"
	"github.com/matzehuels/stackwright/pkg/model"
	"github.com/matzehuels/stackwright/pkg/observability"
	"github.com/matzehuels/stackwright/pkg/part"
	"github.com/matzehuels/stackwright/pkg/recolor"
)

// OptionsProvider returns the options currently selectable for a segment.
// The set may change between calls, e.g. with the active core variant.
type OptionsProvider interface {
	ValidOptions() []*model.LayoutOptions
}

// OptionsFunc adapts a function to [OptionsProvider].
type OptionsFunc func() []*model.LayoutOptions

// ValidOptions calls f.
func (f OptionsFunc) ValidOptions() []*model.LayoutOptions { return f() }

// Counterparts returns the matching segments on symmetry-linked parts,
// excluding the segment itself.
type Counterparts interface {
	Counterparts() []*Module
}

// CounterpartsFunc adapts a function to [Counterparts].
type CounterpartsFunc func() []*Module

// Counterparts calls f.
func (f CounterpartsFunc) Counterparts() []*Module { return f() }

// Config holds the scaling exponents and behaviour flags for a module.
type Config struct {
	MassScalar     float64
	CostScalar     float64
	VolumeScalar   float64
	MinNodeSize    int
	PersistRecolor bool // keep custom colors across model and texture changes
}

// DefaultConfig returns volumetric (cubic) scaling and a minimum node size of 1.
func DefaultConfig() Config {
	return Config{MassScalar: 3, CostScalar: 3, VolumeScalar: 3, MinNodeSize: 1}
}

// Module is one stack segment.
type Module struct {
	// Options supplies the valid selection set. Nil means every model passed
	// to SetupModelList.
	Options OptionsProvider
	// Symmetry reaches the same role on symmetry-linked parts. Nil means none.
	Symmetry Counterparts

	role   Role
	part   *part.Part
	cfg    Config
	logger *log.Logger

	models  []*model.LayoutOptions
	current *model.LayoutOptions
	layout  *layout.Layout

	selected string
	texture  string
	colors   []recolor.Color

	hScale   float64
	vScale   float64
	position float64

	modelChoices   []string
	textureChoices []string
}

// New creates a module for role on p. A nil logger discards output.
func New(role Role, p *part.Part, cfg Config, logger *log.Logger) *Module {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.CostScalar == 0 {
		cfg.CostScalar = cfg.MassScalar
	}
	return &Module{
		role:   role,
		part:   p,
		cfg:    cfg,
		logger: logger.With("segment", role.String()),
		hScale: 1,
		vScale: 1,
	}
}

// Restore seeds persisted selection state before SetupModelList. Unparseable
// colors are logged and dropped, so defaults apply on setup.
func (m *Module) Restore(modelName, textureName, colors string) {
	m.selected = modelName
	m.texture = textureName
	cs, err := recolor.Parse(colors)
	if err != nil {
		m.logger.Warn("Discarding persisted recolor data", "err", err)
		cs = nil
	}
	m.colors = cs
}

// SetupModelList installs the candidate models. If the persisted selection is
// not among them the first candidate is substituted and a warning logged.
func (m *Module) SetupModelList(candidates []*model.LayoutOptions) error {
	if len(candidates) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: no model options", m.role)
	}
	m.models = append([]*model.LayoutOptions(nil), candidates...)
	if model.Find(m.models, m.selected) == nil {
		first := m.models[0].Name()
		if m.selected != "" {
			m.logger.Warn("Persisted model not in option list, substituting first option",
				"model", m.selected, "substitute", first)
			observability.Engine().OnSubstitution(context.Background(), "model", m.selected, first)
		}
		m.selected = first
	}
	return nil
}

// SetupModel activates the current selection, resolving texture and colors.
// Must follow SetupModelList.
func (m *Module) SetupModel() {
	m.current = model.Find(m.models, m.selected)
	if m.current == nil {
		m.current = m.models[0]
		m.selected = m.current.Name()
	}
	m.layout = m.current.DefaultLayout()

	def := m.current.Definition
	if ts := def.TextureSet(m.texture); ts == nil {
		fallback := def.DefaultTexture()
		if m.texture != "" {
			m.logger.Warn("Persisted texture set not valid for model, substituting default",
				"texture", m.texture, "model", def.Name, "default", fallback.Name)
			observability.Engine().OnSubstitution(context.Background(), "texture", m.texture, fallback.Name)
		}
		m.texture = fallback.Name
		if len(m.colors) == 0 || !m.cfg.PersistRecolor {
			m.colors = recolor.Clone(fallback.Colors)
		}
	} else if len(m.colors) == 0 {
		m.colors = recolor.Clone(ts.Colors)
	}
	m.part.RootTransform(m.role.Root())
}

// =============================================================================
// Selection
// =============================================================================

// ModelSelected switches this module and its symmetry counterparts to name.
func (m *Module) ModelSelected(name string) {
	m.Select(name)
	for _, c := range m.counterparts() {
		c.Select(name)
	}
}

// Select switches this module alone to name. A name outside the valid options
// falls back to the first valid option.
func (m *Module) Select(name string) {
	valid := m.validOptions()
	opt := model.Find(valid, name)
	if opt == nil {
		if len(valid) == 0 {
			m.logger.Error("No valid model options, keeping current selection", "model", name)
			return
		}
		opt = valid[0]
		m.logger.Error("Could not find model option, falling back to first valid option",
			"model", name, "substitute", opt.Name())
		observability.Engine().OnSubstitution(context.Background(), "model", name, opt.Name())
	}

	m.current = opt
	m.selected = opt.Name()
	if m.layout == nil || !opt.IsValidLayout(m.layout.Name) {
		m.layout = opt.DefaultLayout()
	} else {
		m.layout = opt.Layout(m.layout.Name)
	}

	def := opt.Definition
	ts := def.TextureSet(m.texture)
	if ts == nil {
		ts = def.DefaultTexture()
		m.texture = ts.Name
	}
	if !m.cfg.PersistRecolor || len(m.colors) == 0 {
		m.colors = recolor.Clone(ts.Colors)
	}
	m.part.RootTransform(m.role.Root())
	m.part.Events.TexturesChanged(m.role.Section())
}

// TextureSetSelected applies a texture set to this module and its counterparts.
func (m *Module) TextureSetSelected(name string) {
	m.applyTexture(name)
	for _, c := range m.counterparts() {
		c.applyTexture(name)
	}
}

func (m *Module) applyTexture(name string) {
	def := m.Definition()
	ts := def.TextureSet(name)
	if ts == nil {
		ts = def.DefaultTexture()
		m.logger.Error("Could not find texture set, using default", "texture", name, "default", ts.Name)
	}
	m.texture = ts.Name
	if !m.cfg.PersistRecolor || len(m.colors) == 0 {
		m.colors = recolor.Clone(ts.Colors)
	}
	m.part.Events.TexturesChanged(m.role.Section())
}

// SetSectionColors replaces the recolor channels on this module and its counterparts.
func (m *Module) SetSectionColors(colors []recolor.Color) {
	for _, x := range append([]*Module{m}, m.counterparts()...) {
		x.colors = recolor.Clone(colors)
		x.part.Events.TexturesChanged(x.role.Section())
	}
}

// UpdateSelections refreshes the user-visible choice lists. A slot with a
// single option stays selectable programmatically but is not offered.
func (m *Module) UpdateSelections() {
	m.modelChoices = model.Names(m.validOptions())
	m.textureChoices = m.Definition().TextureNames()
}

// ModelChoices returns the names offered by the last UpdateSelections.
func (m *Module) ModelChoices() []string { return append([]string(nil), m.modelChoices...) }

// TextureChoices returns the texture sets offered by the last UpdateSelections.
func (m *Module) TextureChoices() []string { return append([]string(nil), m.textureChoices...) }

// ModelSelectable reports whether more than one model is offered.
func (m *Module) ModelSelectable() bool { return len(m.modelChoices) > 1 }

// TextureSelectable reports whether more than one texture set is offered.
func (m *Module) TextureSelectable() bool { return len(m.textureChoices) > 1 }

// ValidOptions returns the options currently offered to this segment.
func (m *Module) ValidOptions() []*model.LayoutOptions {
	return append([]*model.LayoutOptions(nil), m.validOptions()...)
}

func (m *Module) validOptions() []*model.LayoutOptions {
	if m.Options != nil {
		return m.Options.ValidOptions()
	}
	return m.models
}

func (m *Module) counterparts() []*Module {
	if m.Symmetry == nil {
		return nil
	}
	var out []*Module
	for _, c := range m.Symmetry.Counterparts() {
		if c != nil && c != m {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// Scaling
// =============================================================================

// SetScaleForDiameter scales the model so its reference diameter equals d.
func (m *Module) SetScaleForDiameter(d, vScale float64) {
	m.setScale(d/m.Definition().Diameter, vScale)
}

// SetDiameterFromBelow scales the model so its lower face matches the upper
// diameter of the segment below it.
func (m *Module) SetDiameterFromBelow(upper, vScale float64) {
	base := m.baseLower()
	if base <= 0 {
		base = m.Definition().Diameter
	}
	m.setScale(upper/base, vScale)
}

// SetDiameterFromAbove scales the model so its upper face matches the lower
// diameter of the segment above it.
func (m *Module) SetDiameterFromAbove(lower, vScale float64) {
	base := m.baseUpper()
	if base <= 0 {
		base = m.Definition().Diameter
	}
	m.setScale(lower/base, vScale)
}

func (m *Module) setScale(h, vScale float64) {
	if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
		m.logger.Error("Invalid scale, keeping previous", "scale", h)
		return
	}
	m.hScale = h
	m.vScale = h
	if m.Definition().VerticalScale {
		m.vScale = h * (1 + vScale)
	}
}

func (m *Module) baseUpper() float64 {
	if m.Inverted() {
		return m.Definition().LowerDiameter
	}
	return m.Definition().UpperDiameter
}

func (m *Module) baseLower() float64 {
	if m.Inverted() {
		return m.Definition().UpperDiameter
	}
	return m.Definition().LowerDiameter
}

// =============================================================================
// Derived geometry
// =============================================================================

// Role returns the module's slot.
func (m *Module) Role() Role { return m.role }

// Name returns the selected model name.
func (m *Module) Name() string { return m.selected }

// Definition returns the selected model definition.
func (m *Module) Definition() *model.Definition { return m.current.Definition }

// LayoutOptions returns the selected option.
func (m *Module) LayoutOptions() *model.LayoutOptions { return m.current }

// Layout returns the active layout.
func (m *Module) Layout() *layout.Layout { return m.layout }

// Texture returns the selected texture set name.
func (m *Module) Texture() string { return m.texture }

// Colors returns a copy of the recolor channels.
func (m *Module) Colors() []recolor.Color { return recolor.Clone(m.colors) }

// RecolorString returns the persisted form of the recolor channels.
func (m *Module) RecolorString() string { return recolor.Format(m.colors) }

// Inverted reports whether the model is flipped to fit this slot.
func (m *Module) Inverted() bool {
	return m.Definition().Orientation.Inverts(m.role.Slot())
}

// HorizontalScale returns the radial scale factor.
func (m *Module) HorizontalScale() float64 { return m.hScale }

// VerticalScale returns the axial scale factor.
func (m *Module) VerticalScale() float64 { return m.vScale }

// Height returns the scaled nominal height.
func (m *Module) Height() float64 { return m.Definition().Height * m.vScale }

// ActualHeight returns the scaled structural height.
func (m *Module) ActualHeight() float64 { return m.Definition().ActualHeight * m.vScale }

// Diameter returns the scaled reference diameter.
func (m *Module) Diameter() float64 { return m.Definition().Diameter * m.hScale }

// UpperDiameter returns the scaled diameter of the upward face.
func (m *Module) UpperDiameter() float64 { return m.baseUpper() * m.hScale }

// LowerDiameter returns the scaled diameter of the downward face.
func (m *Module) LowerDiameter() float64 { return m.baseLower() * m.hScale }

// Mass returns the scaled mass.
func (m *Module) Mass() float64 { return m.scaled(m.Definition().Mass, m.cfg.MassScalar) }

// Cost returns the scaled cost.
func (m *Module) Cost() float64 { return m.scaled(m.Definition().Cost, m.cfg.CostScalar) }

// Volume returns the scaled volume in cubic metres.
func (m *Module) Volume() float64 { return m.scaled(m.Definition().Volume, m.cfg.VolumeScalar) }

func (m *Module) scaled(base, p float64) float64 {
	return base * math.Pow(m.hScale, p-1) * m.vScale
}

// SetPosition records the segment centre along the stack axis. Geometry moves
// on the next UpdateModelMeshes.
func (m *Module) SetPosition(y float64) { m.position = y }

// Position returns the segment centre along the stack axis.
func (m *Module) Position() float64 { return m.position }

// Top returns the Y of the upward face.
func (m *Module) Top() float64 { return m.position + m.Height()/2 }

// Bottom returns the Y of the downward face.
func (m *Module) Bottom() float64 { return m.position - m.Height()/2 }

// FairingEnabled reports whether the model supports a fairing.
func (m *Module) FairingEnabled() bool { return m.Definition().Fairing.Enabled }

// FairingTop returns the scaled, positioned upper fairing offset.
func (m *Module) FairingTop() float64 {
	f := m.Definition().Fairing
	top := f.Top
	if m.Inverted() {
		top = -f.Bottom
	}
	return m.position + top*m.vScale
}

// FairingBottom returns the scaled, positioned lower fairing offset.
func (m *Module) FairingBottom() float64 {
	f := m.Definition().Fairing
	bottom := f.Bottom
	if m.Inverted() {
		bottom = -f.Top
	}
	return m.position + bottom*m.vScale
}

// =============================================================================
// Host updates
// =============================================================================

// UpdateModelMeshes writes the current scale and position into the part's
// transform tree: one root per slot plus one child per layout position.
func (m *Module) UpdateModelMeshes() {
	rootName := m.role.Root()
	root := m.part.Transform(rootName)
	if root == nil {
		root = m.part.RootTransform(rootName)
	}
	def := m.Definition()
	root.Model = def.Name
	root.Position = mgl64.Vec3{0, m.position, 0}
	m.part.ClearChildren(rootName)

	scale := mgl64.Vec3{m.hScale, m.vScale, m.hScale}
	inverted := m.Inverted()
	for i, p := range m.layout.Positions {
		pos := p.ScaledPosition(scale)
		rot := p.Rotation
		if inverted {
			pos[1] = -pos[1]
			rot[0] += 180
		}
		m.part.SetTransform(&part.Transform{
			Name:     fmt.Sprintf("%s/%s.%d", rootName, def.Name, i),
			Parent:   rootName,
			Model:    def.Name,
			Position: pos,
			Scale:    p.ScaledScale(scale),
			Rotation: rot,
		})
	}
	m.part.Events.MeshApplied(rootName, len(m.layout.Positions))
}

// NodeSize returns the attach node size class for diameter d.
func (m *Module) NodeSize(d float64) int {
	size := int(math.Round(d/1.25)) + 1
	if size < m.cfg.MinNodeSize {
		size = m.cfg.MinNodeSize
	}
	return size
}

func (m *Module) place(t model.NodeTemplate) (pos, orient mgl64.Vec3) {
	if m.Inverted() {
		t = t.Inverted()
	}
	pos = mgl64.Vec3{t.Position[0] * m.hScale, t.Position[1]*m.vScale + m.position, t.Position[2] * m.hScale}
	return pos, t.Orientation
}

// UpdateAttachNodeTop places the named node on the upward face.
func (m *Module) UpdateAttachNodeTop(name string, userInitiated bool) {
	t := m.Definition().TopNode
	if m.Inverted() {
		t = m.Definition().BottomNode
	}
	m.updateNode(name, t, m.NodeSize(m.UpperDiameter()), userInitiated)
}

// UpdateAttachNodeBottom places the named node on the downward face.
func (m *Module) UpdateAttachNodeBottom(name string, userInitiated bool) {
	t := m.Definition().BottomNode
	if m.Inverted() {
		t = m.Definition().TopNode
	}
	m.updateNode(name, t, m.NodeSize(m.LowerDiameter()), userInitiated)
}

// UpdateAttachNodeBody places the named nodes from the model's body node
// templates, in order. Names beyond the template count are removed when free
// and parked at the segment centre when occupied.
func (m *Module) UpdateAttachNodeBody(names []string, userInitiated bool) {
	templates := m.Definition().BodyNodes
	for i, name := range names {
		if i < len(templates) {
			size := templates[i].Size
			if size <= 0 {
				size = m.NodeSize(m.Diameter())
			}
			m.updateNode(name, templates[i], size, userInitiated)
			continue
		}
		node := m.part.FindNode(name)
		if node == nil {
			continue
		}
		if node.Attached == nil {
			_ = m.part.DestroyNode(name)
			continue
		}
		m.logger.Warn("Body node has an attached part but no template in current model", "node", name)
		m.part.MoveNode(node, mgl64.Vec3{0, m.position, 0}, node.Orientation, node.Size, userInitiated)
	}
}

func (m *Module) updateNode(name string, t model.NodeTemplate, size int, userInitiated bool) {
	pos, orient := m.place(t)
	if node := m.part.FindNode(name); node != nil {
		m.part.MoveNode(node, pos, orient, size, userInitiated)
		return
	}
	m.part.CreateNode(name, pos, orient, size)
}

// UpdateSurfaceAttachNode moves the surface node onto the current hull. When
// userInitiated, surface-attached children are pushed radially by half the
// diameter change so they stay flush.
func (m *Module) UpdateSurfaceAttachNode(node *part.AttachNode, prevDiameter float64, userInitiated bool) {
	if node == nil {
		return
	}
	pos, orient := m.place(m.Definition().SurfaceNode)
	m.part.MoveNode(node, pos, orient, node.Size, false)

	if !userInitiated || prevDiameter <= 0 {
		return
	}
	delta := (m.Diameter() - prevDiameter) / 2
	if delta == 0 {
		return
	}
	for _, c := range m.part.SurfaceChildren() {
		radial := mgl64.Vec3{c.Position[0], 0, c.Position[2]}
		if radial.Len() < 1e-9 {
			continue
		}
		c.Position = c.Position.Add(radial.Normalize().Mul(delta))
	}
}
