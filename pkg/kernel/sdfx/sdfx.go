// Package sdfx implements kernel.Scalp over signed distance fields built
// with the github.com/deadsy/sdfx SDF library. Analytic scalps answer
// closest-point queries exactly, without tessellating the surface.
package sdfx

import (
	"fmt"
	"math"

	"github.com/dbokser/hairball/pkg/kernel"
	"github.com/dbokser/hairball/pkg/polymesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Scalp = (*Scalp)(nil)

const (
	// gradStep is the central difference step for surface normals.
	gradStep = 1e-6
	// projectIters bounds the projection steps in ClosestPoint.
	projectIters = 16
	// surfaceTol is the distance at which a point counts as on the surface.
	surfaceTol = 1e-9
	// weldTol merges tessellated vertices closer than this.
	weldTol = 1e-6
)

// Scalp is a scalp surface given by a signed distance field.
type Scalp struct {
	s sdf.SDF3
}

// Wrap returns a Scalp for an existing SDF.
func Wrap(s sdf.SDF3) *Scalp {
	return &Scalp{s: s}
}

// Sphere creates a sphere centered at the origin.
func Sphere(radius float64) (*Scalp, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Sphere3D: %w", err)
	}
	return Wrap(s), nil
}

// Box creates a box with the given dimensions centered at the origin.
func Box(x, y, z float64) (*Scalp, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Box3D: %w", err)
	}
	return Wrap(s), nil
}

// Cylinder creates a cylinder along Z centered at the origin.
func Cylinder(height, radius float64) (*Scalp, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Cylinder3D: %w", err)
	}
	return Wrap(s), nil
}

// Translate returns the scalp moved by (x, y, z).
func (s *Scalp) Translate(x, y, z float64) *Scalp {
	return Wrap(sdf.Transform3D(s.s, sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})))
}

// Rotate returns the scalp rotated by Euler angles in degrees, applied
// about X, then Y, then Z.
func (s *Scalp) Rotate(x, y, z float64) *Scalp {
	rad := math.Pi / 180
	m := sdf.RotateZ(z * rad).Mul(sdf.RotateY(y * rad)).Mul(sdf.RotateX(x * rad))
	return Wrap(sdf.Transform3D(s.s, m))
}

// Union returns the union of s and others.
func (s *Scalp) Union(others ...*Scalp) *Scalp {
	all := []sdf.SDF3{s.s}
	for _, o := range others {
		all = append(all, o.s)
	}
	return Wrap(sdf.Union3D(all...))
}

// BoundingBox returns the axis-aligned bounding box.
func (s *Scalp) BoundingBox() sdf.Box3 {
	return s.s.BoundingBox()
}

// Distance returns the signed distance from p to the surface, negative
// inside.
func (s *Scalp) Distance(p v3.Vec) float64 {
	return s.s.Evaluate(p)
}

// Normal returns the unit gradient of the distance field at p, or the zero
// vector where the field is flat.
func (s *Scalp) Normal(p v3.Vec) v3.Vec {
	dx := v3.Vec{X: gradStep}
	dy := v3.Vec{Y: gradStep}
	dz := v3.Vec{Z: gradStep}
	g := v3.Vec{
		X: s.s.Evaluate(p.Add(dx)) - s.s.Evaluate(p.Sub(dx)),
		Y: s.s.Evaluate(p.Add(dy)) - s.s.Evaluate(p.Sub(dy)),
		Z: s.s.Evaluate(p.Add(dz)) - s.s.Evaluate(p.Sub(dz)),
	}
	l := g.Length()
	if l == 0 {
		return v3.Vec{}
	}
	return g.DivScalar(l)
}

// ClosestPoint projects p onto the surface by stepping along the normal by
// the signed distance until the distance vanishes.
func (s *Scalp) ClosestPoint(p v3.Vec) v3.Vec {
	for i := 0; i < projectIters; i++ {
		d := s.s.Evaluate(p)
		if math.Abs(d) < surfaceTol {
			break
		}
		n := s.Normal(p)
		if n == (v3.Vec{}) {
			break
		}
		p = p.Sub(n.MulScalar(d))
	}
	return p
}

// ToMesh tessellates the surface with marching cubes over the given number
// of cells along the longest bounding box axis. Shared corners are welded so
// the result has real adjacency.
func (s *Scalp) ToMesh(name string, cells int) (*polymesh.Mesh, error) {
	triangles := render.ToTriangles(s.s, render.NewMarchingCubesUniform(cells))

	type key [3]int64
	quant := func(p v3.Vec) key {
		return key{
			int64(math.Round(p.X / weldTol)),
			int64(math.Round(p.Y / weldTol)),
			int64(math.Round(p.Z / weldTol)),
		}
	}
	index := make(map[key]int)
	var positions []v3.Vec
	faces := make([][]int, 0, len(triangles))
	for _, tri := range triangles {
		face := make([]int, 0, 3)
		for j := 0; j < 3; j++ {
			v := tri[j]
			k := quant(v)
			i, ok := index[k]
			if !ok {
				i = len(positions)
				index[k] = i
				positions = append(positions, v)
			}
			face = append(face, i)
		}
		// Welding can collapse slivers to fewer than three corners.
		if face[0] == face[1] || face[1] == face[2] || face[0] == face[2] {
			continue
		}
		faces = append(faces, face)
	}
	return polymesh.New(name, positions, faces)
}
