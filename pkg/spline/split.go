package spline

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// knotSnap merges a split parameter with an existing knot closer than this.
const knotSnap = 1e-12

// Split cuts an open curve at u (0 < u < 1) by knot insertion and returns
// the two pieces, each reparameterized to [0, 1]. The pieces reproduce the
// original geometry exactly.
func (c *Curve) Split(u float64) (head, tail *Curve, err error) {
	if c.Periodic {
		return nil, nil, fmt.Errorf("split periodic curve: %w", ErrBadParam)
	}
	if !(u > 0 && u < 1) {
		return nil, nil, fmt.Errorf("split at %g: %w", u, ErrBadParam)
	}
	d := c.Degree
	cvs, knots := c.CVs, c.Knots

	s := 0
	for _, t := range knots {
		if math.Abs(t-u) < knotSnap {
			u = t
			s++
		}
	}
	for ; s < d; s++ {
		cvs, knots = insertKnot(d, cvs, knots, u)
	}

	m := 0
	for knots[m] != u {
		m++
	}

	headKnots := append(append([]float64(nil), knots[:m+d]...), u)
	tailKnots := append([]float64{u}, knots[m:]...)
	head = &Curve{
		Degree: d,
		CVs:    append([]v3.Vec(nil), cvs[:m]...),
		Knots:  rescale(headKnots),
	}
	tail = &Curve{
		Degree: d,
		CVs:    append([]v3.Vec(nil), cvs[m-1:]...),
		Knots:  rescale(tailKnots),
	}
	return head, tail, nil
}

// insertKnot inserts u once (Boehm's algorithm).
func insertKnot(d int, cvs []v3.Vec, knots []float64, u float64) ([]v3.Vec, []float64) {
	n := len(cvs)
	k := findSpan(d, n, knots, u)
	q := make([]v3.Vec, n+1)
	for i := 0; i <= k-d; i++ {
		q[i] = cvs[i]
	}
	for i := k - d + 1; i <= k; i++ {
		a := 0.0
		if den := knots[i+d] - knots[i]; den != 0 {
			a = (u - knots[i]) / den
		}
		q[i] = cvs[i-1].MulScalar(1 - a).Add(cvs[i].MulScalar(a))
	}
	for i := k + 1; i <= n; i++ {
		q[i] = cvs[i-1]
	}
	nk := make([]float64, 0, len(knots)+1)
	nk = append(nk, knots[:k+1]...)
	nk = append(nk, u)
	nk = append(nk, knots[k+1:]...)
	return q, nk
}

// rescale maps a knot vector linearly onto [0, 1].
func rescale(knots []float64) []float64 {
	lo, hi := knots[0], knots[len(knots)-1]
	out := make([]float64, len(knots))
	for i, t := range knots {
		out[i] = (t - lo) / (hi - lo)
	}
	return out
}
