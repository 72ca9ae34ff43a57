// Package geometry turns an assembly into a solid and exports it as a mesh.
//
// Every layout position of every segment becomes a frustum between the
// segment's lower and upper diameters. The frusta are unioned into one
// signed distance field and tessellated with marching cubes. The stack axis
// is +Y, matching the part's transform tree.
package geometry

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/stackwright/pkg/assembly"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/segment"
)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 200

// minRadius keeps pointed tips valid for sdf.Cone3D.
const minRadius = 1e-4

// Frustum is one tessellatable piece of the stack.
type Frustum struct {
	Segment     string
	Center      mgl64.Vec3
	Height      float64
	LowerRadius float64
	UpperRadius float64
}

// Frusta lists the pieces of a, one per layout position per segment.
func Frusta(a *assembly.Assembly) []Frustum {
	var out []Frustum
	for _, r := range segment.Roles {
		m := a.Module(r)
		l := m.Layout()
		if l == nil {
			continue
		}
		scale := mgl64.Vec3{m.HorizontalScale(), m.VerticalScale(), m.HorizontalScale()}
		for _, p := range l.Positions {
			pos := p.ScaledPosition(scale)
			if m.Inverted() {
				pos[1] = -pos[1]
			}
			pos[1] += m.Position()
			out = append(out, Frustum{
				Segment:     r.String(),
				Center:      pos,
				Height:      m.Height() * p.Scale[1],
				LowerRadius: m.LowerDiameter() / 2 * p.Scale[0],
				UpperRadius: m.UpperDiameter() / 2 * p.Scale[0],
			})
		}
	}
	return out
}

// Solid builds the union of all frusta.
func Solid(a *assembly.Assembly) (sdf.SDF3, error) {
	// sdf.Cone3D is built along Z; a -90 degree X rotation maps +Z to +Y.
	toY := sdf.RotateX(-math.Pi / 2)

	var parts []sdf.SDF3
	for _, f := range Frusta(a) {
		if f.Height <= 0 {
			continue
		}
		cone, err := sdf.Cone3D(f.Height, math.Max(f.LowerRadius, minRadius), math.Max(f.UpperRadius, minRadius), 0)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s frustum", f.Segment)
		}
		m := sdf.Translate3d(v3.Vec{X: f.Center[0], Y: f.Center[1], Z: f.Center[2]}).Mul(toY)
		parts = append(parts, sdf.Transform3D(cone, m))
	}
	if len(parts) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "assembly has no geometry")
	}
	return sdf.Union3D(parts...), nil
}

// Bounds returns the axis-aligned bounding box of the solid.
func Bounds(s sdf.SDF3) (min, max mgl64.Vec3) {
	bb := s.BoundingBox()
	return mgl64.Vec3{bb.Min.X, bb.Min.Y, bb.Min.Z}, mgl64.Vec3{bb.Max.X, bb.Max.Y, bb.Max.Z}
}

// WriteSTL tessellates a and writes a binary STL. It returns the triangle
// count. Cells below 8 use DefaultCells.
func WriteSTL(w io.Writer, a *assembly.Assembly, cells int) (int, error) {
	s, err := Solid(a)
	if err != nil {
		return 0, err
	}
	if cells < 8 {
		cells = DefaultCells
	}
	tris := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	var header [80]byte
	copy(header[:], "stackwright "+a.Config().Name)
	if _, err := w.Write(header[:]); err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "write stl")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(tris))); err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "write stl")
	}

	rec := make([]float32, 12)
	for _, t := range tris {
		n := t.Normal()
		rec[0], rec[1], rec[2] = float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			rec[3+j*3] = float32(t[j].X)
			rec[4+j*3] = float32(t[j].Y)
			rec[5+j*3] = float32(t[j].Z)
		}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return 0, errors.Wrap(errors.ErrCodeStorage, err, "write stl")
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return 0, errors.Wrap(errors.ErrCodeStorage, err, "write stl")
		}
	}
	return len(tris), nil
}

// SaveSTL writes a binary STL file.
func SaveSTL(path string, a *assembly.Assembly, cells int) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "create %s", path)
	}
	n, err := WriteSTL(f, a, cells)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(errors.ErrCodeStorage, cerr, "close %s", path)
	}
	return n, err
}
