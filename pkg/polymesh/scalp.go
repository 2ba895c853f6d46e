package polymesh

import (
	"math"

	"github.com/dbokser/hairball/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Scalp = (*Scalp)(nil)

// Scalp answers closest-point queries against a mesh's surface. Polygons
// are fan-triangulated once; queries test every triangle.
type Scalp struct {
	tris [][3]v3.Vec
}

// Scalp returns the mesh surface as a kernel.Scalp.
func (m *Mesh) Scalp() *Scalp {
	s := &Scalp{}
	for _, f := range m.faces {
		for i := 1; i+1 < len(f); i++ {
			s.tris = append(s.tris, [3]v3.Vec{
				m.positions[f[0]], m.positions[f[i]], m.positions[f[i+1]],
			})
		}
	}
	return s
}

// ClosestPoint returns the surface point nearest to p. A scalp without
// triangles returns p.
func (s *Scalp) ClosestPoint(p v3.Vec) v3.Vec {
	best, bestDist := p, math.Inf(1)
	for _, t := range s.tris {
		q := closestOnTriangle(p, t[0], t[1], t[2])
		if d := q.Sub(p).Dot(q.Sub(p)); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}

// closestOnTriangle classifies p against the Voronoi regions of triangle
// abc and projects onto the matching vertex, edge or face.
func closestOnTriangle(p, a, b, c v3.Vec) v3.Vec {
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)
	if n := ab.Cross(ac); n.Dot(n) <= degenerate*ab.Dot(ab)*ac.Dot(ac) {
		return closestOnEdges(p, a, b, c)
	}
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.MulScalar(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.MulScalar(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).MulScalar(w))
	}

	denom := 1 / (va + vb + vc)
	v, w := vb*denom, vc*denom
	return a.Add(ab.MulScalar(v)).Add(ac.MulScalar(w))
}

// degenerate is the squared sine of the corner angle at a below which a
// triangle is treated as a line or a point.
const degenerate = 1e-12

// closestOnEdges handles zero-area triangles by taking the nearest point on
// their three edges.
func closestOnEdges(p, a, b, c v3.Vec) v3.Vec {
	best, bestDist := a, math.Inf(1)
	for _, e := range [3][2]v3.Vec{{a, b}, {b, c}, {c, a}} {
		q := closestOnSegment(p, e[0], e[1])
		if d := q.Sub(p).Dot(q.Sub(p)); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}

func closestOnSegment(p, a, b v3.Vec) v3.Vec {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return a
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return a.Add(ab.MulScalar(t))
}

