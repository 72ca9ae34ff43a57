package assembly

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/model"
	"github.com/matzehuels/stackwright/pkg/segment"
)

// SelectableNode configures a user-toggleable attach node.
type SelectableNode struct {
	Name          string
	StartsEnabled bool
	Position      mgl64.Vec3
	Orientation   mgl64.Vec3
}

// Config is the per-part configuration decoded from a `part` block.
type Config struct {
	Name string

	Diameter    float64
	MinDiameter float64
	MaxDiameter float64
	LargeStep   float64
	SmallStep   float64
	SlideStep   float64

	MassScalar   float64
	CostScalar   float64
	VolumeScalar float64

	EnableVScale   bool
	UseAdapterMass bool
	UseAdapterCost bool

	MinNodeSize    int
	PersistRecolor bool

	// Container and fairing indices per segment role; -1 disables.
	ContainerIndex map[segment.Role]int
	FairingIndex   map[segment.Role]int

	ManagedNodes        map[segment.Role][]string
	NoseInterstageNode  string
	MountInterstageNode string
	TopNode             string
	BottomNode          string

	Fairings   []string
	Selectable []SelectableNode

	// Raw NOSE, CORE and MOUNT blocks, resolved against a model registry
	// during Initialize.
	Blocks map[segment.Role][]*cfgtree.Node
}

// DefaultConfig returns the configuration used for keys a part block omits.
func DefaultConfig() Config {
	return Config{
		Diameter:            1,
		MinDiameter:         0.1,
		MaxDiameter:         50,
		LargeStep:           0.1,
		SmallStep:           0.1,
		SlideStep:           0.001,
		MassScalar:          3,
		CostScalar:          3,
		VolumeScalar:        3,
		EnableVScale:        true,
		UseAdapterMass:      true,
		UseAdapterCost:      true,
		MinNodeSize:         1,
		ContainerIndex:      map[segment.Role]int{segment.Nose: 0, segment.Core: 0, segment.Mount: 0},
		FairingIndex:        map[segment.Role]int{segment.Nose: -1, segment.Core: -1, segment.Mount: -1},
		ManagedNodes:        map[segment.Role][]string{},
		NoseInterstageNode:  "noseinterstage",
		MountInterstageNode: "mountinterstage",
		TopNode:             "top",
		BottomNode:          "bottom",
		Blocks:              map[segment.Role][]*cfgtree.Node{},
	}
}

// SegmentConfig returns the scaling settings shared by the three segments.
func (c Config) SegmentConfig() segment.Config {
	return segment.Config{
		MassScalar:     c.MassScalar,
		CostScalar:     c.CostScalar,
		VolumeScalar:   c.VolumeScalar,
		MinNodeSize:    c.MinNodeSize,
		PersistRecolor: c.PersistRecolor,
	}
}

// Validate checks numeric ranges and that every segment has a model block.
func (c Config) Validate() error {
	if err := errors.ValidatePositive("min_diameter", c.MinDiameter); err != nil {
		return err
	}
	if c.MaxDiameter < c.MinDiameter {
		return errors.New(errors.ErrCodeInvalidConfig, "max_diameter %g is below min_diameter %g", c.MaxDiameter, c.MinDiameter)
	}
	if err := errors.ValidateRange("diameter", c.Diameter, c.MinDiameter, c.MaxDiameter); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"mass_scalar", c.MassScalar}, {"cost_scalar", c.CostScalar}, {"volume_scalar", c.VolumeScalar}} {
		if err := errors.ValidateNonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	for _, r := range segment.Roles {
		if len(c.Blocks[r]) == 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "part %s has no %s block", c.Name, r.Block())
		}
	}
	return nil
}

// DecodeConfig reads a `part "<name>" { ... }` block.
func DecodeConfig(n *cfgtree.Node) (Config, error) {
	c := DefaultConfig()
	if n == nil {
		return c, errors.New(errors.ErrCodeInvalidConfig, "nil part block")
	}
	c.Name = n.Name()
	if c.Name == "" {
		c.Name = n.String("name", "")
	}
	if err := errors.ValidateName("part", c.Name); err != nil {
		return c, err
	}

	c.Diameter = n.Float("diameter", c.Diameter)
	c.MinDiameter = n.Float("min_diameter", c.MinDiameter)
	c.MaxDiameter = n.Float("max_diameter", c.MaxDiameter)
	c.LargeStep = n.Float("diameter_large_step", c.LargeStep)
	c.SmallStep = n.Float("diameter_small_step", c.SmallStep)
	c.SlideStep = n.Float("diameter_slide_step", c.SlideStep)

	c.VolumeScalar = n.Float("volume_scaling_power", c.VolumeScalar)
	c.MassScalar = n.Float("mass_scaling_power", c.MassScalar)
	c.CostScalar = n.Float("cost_scaling_power", c.MassScalar)

	c.EnableVScale = n.Bool("enable_vscale", c.EnableVScale)
	c.UseAdapterMass = n.Bool("use_adapter_mass", c.UseAdapterMass)
	c.UseAdapterCost = n.Bool("use_adapter_cost", c.UseAdapterCost)
	c.MinNodeSize = n.Int("min_node_size", c.MinNodeSize)
	c.PersistRecolor = n.Bool("persist_recolor", c.PersistRecolor)

	c.NoseInterstageNode = n.String("nose_interstage_node", c.NoseInterstageNode)
	c.MountInterstageNode = n.String("mount_interstage_node", c.MountInterstageNode)
	c.TopNode = n.String("top_node", c.TopNode)
	c.BottomNode = n.String("bottom_node", c.BottomNode)
	c.Fairings = n.Strings("fairings")

	for _, r := range segment.Roles {
		c.ContainerIndex[r] = n.Int(r.String()+"_container_index", c.ContainerIndex[r])
		c.FairingIndex[r] = n.Int(r.String()+"_fairing_index", c.FairingIndex[r])
		c.ManagedNodes[r] = n.Strings(r.String() + "_managed_nodes")
		c.Blocks[r] = n.Blocks(r.Block())
	}

	for _, sn := range n.Blocks("selectable_node") {
		name := sn.Name()
		if err := errors.ValidateName("selectable node", name); err != nil {
			return c, err
		}
		pos := sn.FloatsOr("position", 3, []float64{0, 0, 0})
		orient := sn.FloatsOr("orientation", 3, []float64{0, 1, 0})
		c.Selectable = append(c.Selectable, SelectableNode{
			Name:          name,
			StartsEnabled: sn.Bool("enabled", false),
			Position:      mgl64.Vec3{pos[0], pos[1], pos[2]},
			Orientation:   mgl64.Vec3{orient[0], orient[1], orient[2]},
		})
	}

	return c, c.Validate()
}

// coreVariants groups CORE blocks by their `variant` label, preserving first
// appearance order.
func coreVariants(blocks []*cfgtree.Node) (names []string, byName map[string][]*cfgtree.Node) {
	byName = make(map[string][]*cfgtree.Node)
	for _, b := range blocks {
		v := b.String("variant", model.DefaultVariant)
		if _, ok := byName[v]; !ok {
			names = append(names, v)
		}
		byName[v] = append(byName[v], b)
	}
	return names, byName
}

// LoadConfig finds the named part block in root and decodes it. An empty
// name selects the only part block, or fails if there are several.
func LoadConfig(root *cfgtree.Node, name string) (Config, error) {
	if root == nil {
		return DefaultConfig(), errors.New(errors.ErrCodeInvalidConfig, "empty config tree")
	}
	if name != "" {
		n := root.BlockNamed("part", name)
		if n == nil {
			return DefaultConfig(), errors.New(errors.ErrCodePartNotFound, "no part %q", name)
		}
		return DecodeConfig(n)
	}
	parts := root.Blocks("part")
	switch len(parts) {
	case 0:
		return DefaultConfig(), errors.New(errors.ErrCodePartNotFound, "config has no part block")
	case 1:
		return DecodeConfig(parts[0])
	}
	return DefaultConfig(), errors.New(errors.ErrCodeInvalidConfig, "config has %d part blocks; name one", len(parts))
}

// PartNames returns the labels of every part block in root.
func PartNames(root *cfgtree.Node) []string {
	var names []string
	for _, n := range root.Blocks("part") {
		names = append(names, n.Name())
	}
	return names
}
