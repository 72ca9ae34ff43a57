package assembly

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/model"
	"github.com/matzehuels/stackwright/pkg/observability"
	"github.com/matzehuels/stackwright/pkg/part"
	"github.com/matzehuels/stackwright/pkg/segment"
	"github.com/matzehuels/stackwright/pkg/state"
)

// Contribution is the resource volume one segment adds to a container.
type Contribution struct {
	Name   string  `json:"name"`
	Index  int     `json:"index"`
	Liters float64 `json:"liters"`
}

// Assembly is the controller for one stacked part instance.
type Assembly struct {
	Part *part.Part

	Nose  *segment.Module
	Core  *segment.Module
	Mount *segment.Module

	cfg      Config
	registry *model.Registry
	logger   *log.Logger

	variants []*model.VariantSet
	coreDefs []*model.LayoutOptions

	diameter     float64
	prevDiameter float64
	vScale       float64
	variant      string

	modifiedMass    float64
	modifiedCost    float64
	totalLength     float64
	largestDiameter float64

	initialized         bool
	initializedDefaults bool
	started             bool
	updating            bool

	group []*Assembly
}

// New creates an uninitialized assembly on p. A nil logger discards output.
func New(p *part.Part, cfg Config, registry *model.Registry, logger *log.Logger) *Assembly {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	logger = logger.With("part", p.Name)
	sc := cfg.SegmentConfig()
	a := &Assembly{
		Part:         p,
		cfg:          cfg,
		registry:     registry,
		logger:       logger,
		diameter:     cfg.Diameter,
		prevDiameter: cfg.Diameter,
		variant:      model.DefaultVariant,
		modifiedMass: -1,
		modifiedCost: -1,
		Nose:         segment.New(segment.Nose, p, sc, logger),
		Core:         segment.New(segment.Core, p, sc, logger),
		Mount:        segment.New(segment.Mount, p, sc, logger),
	}
	a.group = []*Assembly{a}
	a.Core.Options = segment.OptionsFunc(a.coreOptions)
	for _, r := range segment.Roles {
		role := r
		a.Module(role).Symmetry = segment.CounterpartsFunc(func() []*segment.Module {
			var out []*segment.Module
			for _, c := range a.Counterparts() {
				out = append(out, c.Module(role))
			}
			return out
		})
	}
	return a
}

// Module returns the segment for role.
func (a *Assembly) Module(r segment.Role) *segment.Module {
	switch r {
	case segment.Nose:
		return a.Nose
	case segment.Mount:
		return a.Mount
	default:
		return a.Core
	}
}

// Config returns the part configuration.
func (a *Assembly) Config() Config { return a.cfg }

// =============================================================================
// Persistence
// =============================================================================

// Restore seeds persisted state. It must be called before Initialize.
func (a *Assembly) Restore(s state.State) {
	if s.Diameter > 0 {
		a.diameter = s.Diameter
		a.prevDiameter = s.Diameter
	}
	a.vScale = s.VScale
	if s.Variant != "" {
		a.variant = s.Variant
	}
	a.Nose.Restore(s.Nose.Model, s.Nose.Texture, s.Nose.Colors)
	a.Core.Restore(s.Core.Model, s.Core.Texture, s.Core.Colors)
	a.Mount.Restore(s.Mount.Model, s.Mount.Texture, s.Mount.Colors)
	a.initializedDefaults = s.Initialized
}

// State returns the persisted form of the current selection.
func (a *Assembly) State() state.State {
	seg := func(m *segment.Module) state.Segment {
		return state.Segment{Model: m.Name(), Texture: m.Texture(), Colors: m.RecolorString()}
	}
	return state.State{
		Part:        a.cfg.Name,
		Diameter:    a.diameter,
		VScale:      a.vScale,
		Variant:     a.variant,
		Nose:        seg(a.Nose),
		Core:        seg(a.Core),
		Mount:       seg(a.Mount),
		Initialized: a.initializedDefaults,
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

// Initialize resolves the segment catalogs, performs the first layout pass and
// places attach nodes without moving attached parts. Later calls are no-ops.
func (a *Assembly) Initialize() error {
	if a.initialized {
		return nil
	}
	if a.registry == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "part %s: no model registry", a.cfg.Name)
	}
	if err := a.loadVariants(); err != nil {
		return err
	}

	noseOpts := a.registry.OptionsFromNodes(a.cfg.Blocks[segment.Nose])
	mountOpts := a.registry.OptionsFromNodes(a.cfg.Blocks[segment.Mount])
	if err := a.Nose.SetupModelList(noseOpts); err != nil {
		return err
	}
	// Current variant first, so a fresh core defaults into it.
	coreOpts := model.AppendUnique(a.coreOptions(), a.coreDefs...)
	if err := a.Core.SetupModelList(coreOpts); err != nil {
		return err
	}
	if err := a.Mount.SetupModelList(mountOpts); err != nil {
		return err
	}
	a.Core.SetupModel()
	a.Nose.SetupModel()
	a.Mount.SetupModel()

	for _, s := range a.cfg.Selectable {
		a.Part.AddSelectableNode(s.Name, s.StartsEnabled, s.Position, s.Orientation)
	}
	if len(a.Part.Fairings()) == 0 {
		for _, name := range a.cfg.Fairings {
			a.Part.AddFairing(name)
		}
	}

	a.initialized = true
	a.updateModulePositions()
	a.updateMassAndCost()
	a.updateAttachNodes(false)
	a.updateAvailableVariants()
	a.Part.Events.HighlightRefresh()
	a.logger.Debug("Initialized assembly",
		"nose", a.Nose.Name(), "core", a.Core.Name(), "mount", a.Mount.Name(), "variant", a.variant)
	return nil
}

// Start completes setup after Initialize. Fairings are seeded only on the
// very first start of an instance; later loads keep their persisted state.
func (a *Assembly) Start() error {
	if err := a.Initialize(); err != nil {
		return err
	}
	if a.started {
		return nil
	}
	if !a.initializedDefaults {
		a.updateFairing(false)
	}
	a.initializedDefaults = true
	a.Part.StartSelectableNodes()
	a.updateDragCubes()
	a.started = true
	return nil
}

// Initialized reports whether Initialize has completed.
func (a *Assembly) Initialized() bool { return a.initialized }

// loadVariants groups CORE blocks into variant sets. A set left empty after
// resolution is a configuration invariant violation.
func (a *Assembly) loadVariants() error {
	names, blocks := coreVariants(a.cfg.Blocks[segment.Core])
	a.variants = a.variants[:0]
	a.coreDefs = nil
	for _, name := range names {
		set := model.NewVariantSet(name)
		set.Add(a.registry.OptionsFromNodes(blocks[name])...)
		if set.Len() == 0 {
			return errors.New(errors.ErrCodeEmptyVariant, "part %s: variant %s has no resolvable models", a.cfg.Name, name)
		}
		a.variants = append(a.variants, set)
		a.coreDefs = model.AppendUnique(a.coreDefs, set.Options()...)
	}
	if len(a.variants) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "part %s has no CORE options", a.cfg.Name)
	}
	if a.variantSet(a.variant) == nil {
		first := a.variants[0].Name
		if a.variant != model.DefaultVariant {
			a.logger.Warn("Persisted variant not found, substituting first variant", "variant", a.variant, "substitute", first)
			observability.Engine().OnSubstitution(context.Background(), "variant", a.variant, first)
		}
		a.variant = first
	}
	return nil
}

func (a *Assembly) variantSet(name string) *model.VariantSet {
	for _, v := range a.variants {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// variantOf returns the set containing the option, or nil.
func (a *Assembly) variantOf(o *model.LayoutOptions) *model.VariantSet {
	for _, v := range a.variants {
		if v.Contains(o) {
			return v
		}
	}
	return nil
}

func (a *Assembly) coreOptions() []*model.LayoutOptions {
	if set := a.variantSet(a.variant); set != nil {
		return set.Options()
	}
	return a.coreDefs
}

// Variants returns the variant names in configuration order.
func (a *Assembly) Variants() []string {
	names := make([]string, len(a.variants))
	for i, v := range a.variants {
		names[i] = v.Name
	}
	return names
}

// VariantOptions returns the core options of one variant, or nil.
func (a *Assembly) VariantOptions(name string) []*model.LayoutOptions {
	if set := a.variantSet(name); set != nil {
		return set.Options()
	}
	return nil
}

// =============================================================================
// Symmetry
// =============================================================================

// LinkSymmetry joins assemblies into one symmetry group. Any edit made
// through SetField on one member is mirrored to all others.
func LinkSymmetry(members ...*Assembly) {
	group := append([]*Assembly(nil), members...)
	for _, m := range members {
		m.group = group
	}
}

// Counterparts returns the other members of the symmetry group.
func (a *Assembly) Counterparts() []*Assembly {
	var out []*Assembly
	for _, m := range a.group {
		if m != a {
			out = append(out, m)
		}
	}
	return out
}

// Group returns this assembly followed by its counterparts.
func (a *Assembly) Group() []*Assembly {
	return append([]*Assembly{a}, a.Counterparts()...)
}

// =============================================================================
// Edits
// =============================================================================

// SetDiameter applies a user diameter edit to the symmetry group, clamped to
// the configured range.
func (a *Assembly) SetDiameter(d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return errors.New(errors.ErrCodeInvalidValue, "diameter must be finite")
	}
	if c := clamp(d, a.cfg.MinDiameter, a.cfg.MaxDiameter); c != d {
		a.logger.Warn("Diameter out of range, clamping", "diameter", d, "clamped", c)
		d = c
	}
	for _, m := range a.Group() {
		m.diameter = d
	}
	return a.recomputeGroup(func(m *Assembly) { m.prevDiameter = m.diameter })
}

// SetVScale applies a user vertical scale edit to the symmetry group. The
// value is clamped to [-1, 1].
func (a *Assembly) SetVScale(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.New(errors.ErrCodeInvalidValue, "vscale must be finite")
	}
	v = clamp(v, -1, 1)
	for _, m := range a.Group() {
		m.vScale = v
	}
	return a.recomputeGroup(nil)
}

// SelectVariant switches the core variant on the symmetry group, keeping the
// core option at the same index in the new set (clamped to its length).
func (a *Assembly) SelectVariant(name string) error {
	for _, m := range a.Group() {
		m.applyVariant(name)
	}
	return a.recomputeGroup(nil)
}

func (a *Assembly) applyVariant(name string) {
	from := a.variant
	index := 0
	opts := a.Core.LayoutOptions()
	cur := a.variantSet(a.variant)
	if cur == nil || !cur.Contains(opts) {
		cur = a.variantOf(opts)
	}
	if cur != nil {
		index = cur.IndexOf(opts)
	} else {
		a.logger.Error("Current core model is in no variant set", "model", a.Core.Name())
	}

	next := a.variantSet(name)
	if next == nil {
		next = a.variants[0]
		a.logger.Error("Could not find variant, falling back to first variant", "variant", name, "substitute", next.Name)
		observability.Engine().OnSubstitution(context.Background(), "variant", name, next.Name)
	}
	a.variant = next.Name
	opt := next.At(index)
	a.Core.Select(opt.Name())
	observability.Engine().OnVariantSwitch(context.Background(), a.Part.ID.String(), from, next.Name, next.IndexOf(opt))
	a.logger.Debug("Switched variant", "from", from, "to", next.Name, "model", opt.Name())
}

// SelectModel switches the segment in role on the symmetry group.
func (a *Assembly) SelectModel(r segment.Role, name string) error {
	a.Module(r).ModelSelected(name)
	return a.recomputeGroup(nil)
}

// SelectTexture switches the texture set of the segment in role on the
// symmetry group. Geometry is unaffected so nothing is recomputed.
func (a *Assembly) SelectTexture(r segment.Role, name string) {
	a.Module(r).TextureSetSelected(name)
}

func (a *Assembly) recomputeGroup(after func(*Assembly)) error {
	var first error
	for _, m := range a.Group() {
		if err := m.UpdateAll(true); err != nil && first == nil {
			first = err
		}
		if after != nil {
			after(m)
		}
	}
	return first
}

// =============================================================================
// Recompute
// =============================================================================

// UpdateAll recomputes every derived output. It is not re-entrant: a call made
// while a recompute for the same instance is running returns an error and
// changes nothing.
func (a *Assembly) UpdateAll(userInitiated bool) (err error) {
	if !a.initialized {
		return errors.New(errors.ErrCodeInvalidConfig, "part %s is not initialized", a.cfg.Name)
	}
	if a.updating {
		a.logger.Error("Recompute requested while another is running")
		return errors.New(errors.ErrCodeReentrant, "part %s is already recomputing", a.cfg.Name)
	}
	a.updating = true
	defer func() { a.updating = false }()

	ctx := context.Background()
	id := a.Part.ID.String()
	start := time.Now()
	observability.Engine().OnRecomputeStart(ctx, id, userInitiated)
	defer func() { observability.Engine().OnRecomputeComplete(ctx, id, time.Since(start), err) }()

	a.updateModulePositions()
	a.updateMassAndCost()
	a.updateAttachNodes(userInitiated)
	a.updateFairing(userInitiated)
	a.updateAvailableVariants()
	a.updateDragCubes()
	a.updateResourceVolume()
	return nil
}

// updateModulePositions scales core from the user diameter and the adapters
// from the core faces, then stacks the segments centred on the origin.
func (a *Assembly) updateModulePositions() {
	vs := 0.0
	if a.cfg.EnableVScale {
		vs = a.vScale
	}
	a.Core.SetScaleForDiameter(a.diameter, vs)
	a.Nose.SetDiameterFromBelow(a.Core.UpperDiameter(), vs)
	a.Mount.SetDiameterFromAbove(a.Core.LowerDiameter(), vs)

	noseH, coreH, mountH := a.Nose.Height(), a.Core.Height(), a.Mount.Height()
	y := (noseH + coreH + mountH) / 2
	a.Nose.SetPosition(y - noseH/2)
	y -= noseH
	a.Core.SetPosition(y - coreH/2)
	y -= coreH
	a.Mount.SetPosition(y - mountH/2)

	a.Nose.UpdateModelMeshes()
	a.Core.UpdateModelMeshes()
	a.Mount.UpdateModelMeshes()
}

func (a *Assembly) updateMassAndCost() {
	mass, cost := a.Core.Mass(), a.Core.Cost()
	if a.cfg.UseAdapterMass {
		mass += a.Nose.Mass() + a.Mount.Mass()
	}
	if a.cfg.UseAdapterCost {
		cost += a.Nose.Cost() + a.Mount.Cost()
	}
	a.modifiedMass, a.modifiedCost = mass, cost
	a.updateDimensions()
	a.Part.Events.MassCostChanged(mass, cost)
}

func (a *Assembly) updateDimensions() {
	coreH := a.Core.Height()
	if a.Core.Definition().Booster {
		coreH = a.Core.ActualHeight()
	}
	a.totalLength = a.Nose.Height() + coreH + a.Mount.Height()

	largest := a.diameter
	for _, m := range []*segment.Module{a.Nose, a.Core, a.Mount} {
		largest = math.Max(largest, math.Max(m.Diameter(), math.Max(m.UpperDiameter(), m.LowerDiameter())))
	}
	a.largestDiameter = largest
}

func (a *Assembly) updateAttachNodes(userInitiated bool) {
	a.Nose.UpdateAttachNodeTop(a.cfg.TopNode, userInitiated)
	a.Mount.UpdateAttachNodeBottom(a.cfg.BottomNode, userInitiated)
	for _, r := range segment.Roles {
		if names := a.cfg.ManagedNodes[r]; len(names) > 0 {
			a.Module(r).UpdateAttachNodeBody(names, userInitiated)
		}
	}

	top := a.Core.Position() + a.Core.Height()/2
	bottom := a.Core.Position() - a.Core.Height()/2
	a.updateInterstage(a.cfg.NoseInterstageNode, mgl64.Vec3{0, top, 0}, mgl64.Vec3{0, 1, 0}, userInitiated)
	a.updateInterstage(a.cfg.MountInterstageNode, mgl64.Vec3{0, bottom, 0}, mgl64.Vec3{0, -1, 0}, userInitiated)

	a.Core.UpdateSurfaceAttachNode(a.Part.SurfaceNode(), a.prevDiameter, userInitiated)
}

func (a *Assembly) updateInterstage(name string, pos, orient mgl64.Vec3, userInitiated bool) {
	if name == "" {
		return
	}
	a.Part.UpdateSelectableNodePosition(name, pos)
	if node := a.Part.FindNode(name); node != nil {
		a.Part.MoveNode(node, pos, orient, node.Size, userInitiated)
	}
}

// updateFairing positions the core fairing along the core and the nose and
// mount fairings from the stack ends to whichever segment carries the
// largest face. Outer radii follow the diameter only on user edits.
func (a *Assembly) updateFairing(userInitiated bool) {
	radius := a.diameter / 2

	a.applyFairing(a.cfg.FairingIndex[segment.Core], part.FairingUpdate{
		Enabled:      a.Core.FairingEnabled(),
		TopY:         part.Float(a.Core.FairingTop()),
		BottomY:      part.Float(a.Core.FairingBottom()),
		TopRadius:    part.Float(radius),
		BottomRadius: part.Float(radius),
	})

	topModule := a.Nose
	if a.Core.UpperDiameter() < a.Core.Diameter() {
		topModule = a.Core
	}
	top := part.FairingUpdate{
		Enabled:      topModule.FairingEnabled(),
		TopY:         part.Float(a.totalLength / 2),
		BottomY:      part.Float(topModule.FairingBottom()),
		BottomRadius: part.Float(radius),
	}
	if userInitiated {
		top.TopRadius = part.Float(radius)
	}
	a.applyFairing(a.cfg.FairingIndex[segment.Nose], top)

	bottomModule := a.Mount
	if a.Core.LowerDiameter() < a.Core.Diameter() {
		bottomModule = a.Core
	}
	bottom := part.FairingUpdate{
		Enabled:   bottomModule.FairingEnabled(),
		TopY:      part.Float(bottomModule.FairingTop()),
		BottomY:   part.Float(-a.totalLength / 2),
		TopRadius: part.Float(radius),
	}
	if userInitiated {
		bottom.BottomRadius = part.Float(radius)
	}
	a.applyFairing(a.cfg.FairingIndex[segment.Mount], bottom)
}

func (a *Assembly) applyFairing(index int, u part.FairingUpdate) {
	if index < 0 {
		return
	}
	f := a.Part.Fairing(index)
	if f == nil {
		a.logger.Debug("Fairing index out of range", "index", index, "fairings", len(a.Part.Fairings()))
		return
	}
	f.Apply(u)
	a.Part.Events.FairingUpdated(index, *f)
}

func (a *Assembly) updateAvailableVariants() {
	a.Nose.UpdateSelections()
	a.Core.UpdateSelections()
	a.Mount.UpdateSelections()
	a.Part.Events.HighlightRefresh()
}

func (a *Assembly) updateDragCubes() {
	a.Part.Events.GeometryChanged()
}

func (a *Assembly) updateResourceVolume() {
	var total float64
	for _, c := range a.Contributions() {
		total += c.Liters
	}
	a.Part.Events.VolumeChanged(total)
}

// =============================================================================
// Derived outputs
// =============================================================================

// Diameter returns the user diameter.
func (a *Assembly) Diameter() float64 { return a.diameter }

// VScale returns the user vertical scale.
func (a *Assembly) VScale() float64 { return a.vScale }

// Variant returns the active core variant.
func (a *Assembly) Variant() string { return a.variant }

// TotalLength returns the stack length, using the structural height of a
// booster-style core.
func (a *Assembly) TotalLength() float64 { return a.totalLength }

// LargestDiameter returns the widest face of the stack.
func (a *Assembly) LargestDiameter() float64 { return a.largestDiameter }

// ModifiedMass returns the summed segment mass of the last recompute.
func (a *Assembly) ModifiedMass() float64 { return a.modifiedMass }

// ModifiedCost returns the summed segment cost of the last recompute.
func (a *Assembly) ModifiedCost() float64 { return a.modifiedCost }

// ModuleMass returns the mass to add to the host's prefab mass. Before the
// first recompute it is zero.
func (a *Assembly) ModuleMass(defaultMass float64) float64 {
	if a.modifiedMass == -1 {
		return 0
	}
	return a.modifiedMass - defaultMass
}

// ModuleCost returns the cost to add to the host's prefab cost.
func (a *Assembly) ModuleCost(defaultCost float64) float64 {
	if a.modifiedCost == -1 {
		return 0
	}
	return a.modifiedCost - defaultCost
}

// Contributions returns per-segment resource volumes in liters, for segments
// with a container index.
func (a *Assembly) Contributions() []Contribution {
	var out []Contribution
	for _, r := range segment.Roles {
		idx, ok := a.cfg.ContainerIndex[r]
		if !ok || idx < 0 {
			continue
		}
		out = append(out, Contribution{Name: r.String(), Index: idx, Liters: a.Module(r).Volume() * 1000})
	}
	return out
}

// Sections returns the recolor section names.
func (a *Assembly) Sections() []string {
	out := make([]string, len(segment.Roles))
	for i, r := range segment.Roles {
		out[i] = r.Section()
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
