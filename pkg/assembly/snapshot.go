package assembly

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/stackwright/pkg/part"
	"github.com/matzehuels/stackwright/pkg/segment"
)

// SegmentSnapshot holds the derived outputs of one segment.
type SegmentSnapshot struct {
	Role            string  `json:"role"`
	Model           string  `json:"model"`
	Texture         string  `json:"texture"`
	Colors          string  `json:"colors,omitempty"`
	Inverted        bool    `json:"inverted,omitempty"`
	HorizontalScale float64 `json:"horizontal_scale"`
	VerticalScale   float64 `json:"vertical_scale"`
	Position        float64 `json:"position"`
	Height          float64 `json:"height"`
	UpperDiameter   float64 `json:"upper_diameter"`
	LowerDiameter   float64 `json:"lower_diameter"`
	Mass            float64 `json:"mass"`
	Cost            float64 `json:"cost"`
	Volume          float64 `json:"volume"`
}

// NodeSnapshot is the placement of one attach node.
type NodeSnapshot struct {
	Name        string     `json:"name"`
	Position    mgl64.Vec3 `json:"position"`
	Orientation mgl64.Vec3 `json:"orientation"`
	Size        int        `json:"size"`
	Attached    string     `json:"attached,omitempty"`
}

// Snapshot is every derived output of an assembly at one point in time. Two
// snapshots taken without an intervening edit are equal.
type Snapshot struct {
	Part            string            `json:"part"`
	Diameter        float64           `json:"diameter"`
	VScale          float64           `json:"vscale"`
	Variant         string            `json:"variant"`
	TotalLength     float64           `json:"total_length"`
	LargestDiameter float64           `json:"largest_diameter"`
	Mass            float64           `json:"mass"`
	Cost            float64           `json:"cost"`
	Segments        []SegmentSnapshot `json:"segments"`
	Nodes           []NodeSnapshot    `json:"nodes"`
	Surface         NodeSnapshot      `json:"surface"`
	Fairings        []part.Fairing    `json:"fairings,omitempty"`
	Contributions   []Contribution    `json:"contributions,omitempty"`
}

// Snapshot captures the current derived outputs.
func (a *Assembly) Snapshot() Snapshot {
	s := Snapshot{
		Part:            a.cfg.Name,
		Diameter:        a.diameter,
		VScale:          a.vScale,
		Variant:         a.variant,
		TotalLength:     a.totalLength,
		LargestDiameter: a.largestDiameter,
		Mass:            a.modifiedMass,
		Cost:            a.modifiedCost,
		Contributions:   a.Contributions(),
		Surface:         nodeSnapshot(a.Part.SurfaceNode()),
	}
	for _, r := range segment.Roles {
		m := a.Module(r)
		s.Segments = append(s.Segments, SegmentSnapshot{
			Role:            r.String(),
			Model:           m.Name(),
			Texture:         m.Texture(),
			Colors:          m.RecolorString(),
			Inverted:        m.Inverted(),
			HorizontalScale: m.HorizontalScale(),
			VerticalScale:   m.VerticalScale(),
			Position:        m.Position(),
			Height:          m.Height(),
			UpperDiameter:   m.UpperDiameter(),
			LowerDiameter:   m.LowerDiameter(),
			Mass:            m.Mass(),
			Cost:            m.Cost(),
			Volume:          m.Volume(),
		})
	}
	for _, n := range a.Part.Nodes() {
		s.Nodes = append(s.Nodes, nodeSnapshot(n))
	}
	for _, f := range a.Part.Fairings() {
		s.Fairings = append(s.Fairings, *f)
	}
	return s
}

func nodeSnapshot(n *part.AttachNode) NodeSnapshot {
	if n == nil {
		return NodeSnapshot{}
	}
	ns := NodeSnapshot{Name: n.Name, Position: n.Position, Orientation: n.Orientation, Size: n.Size}
	if n.Attached != nil {
		ns.Attached = n.Attached.Name
	}
	return ns
}
