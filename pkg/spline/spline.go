// Package spline implements the non-rational B-spline curves used by the
// in-memory scene: open clamped curves and periodic (closed) curves with
// uniform knots, evaluated over a normalized [0, 1] parameter domain.
package spline

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrBadParam is returned for a parameter outside the operation's domain.
var ErrBadParam = errors.New("spline: parameter out of range")

// ErrTooFewPoints is returned when a curve cannot be built from its input.
var ErrTooFewPoints = errors.New("spline: too few control vertices")

// Curve is a B-spline curve.
//
// Open curves carry an explicit clamped knot vector with
// len(Knots) == len(CVs)+Degree+1 spanning [0, 1]. Periodic curves store
// only their unique CVs; the wrapped CVs and uniform knots are derived on
// demand, and Knots is nil.
type Curve struct {
	Degree   int
	CVs      []v3.Vec
	Knots    []float64
	Periodic bool
}

// NewOpen builds an open curve using points as control vertices with
// uniform clamped knots. The degree is lowered to len(points)-1 when there
// are not enough points for the requested degree.
func NewOpen(points []v3.Vec, degree int) (*Curve, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("open curve needs at least 2 points, got %d: %w", len(points), ErrTooFewPoints)
	}
	degree = clampDegree(degree, len(points)-1)
	cvs := append([]v3.Vec(nil), points...)
	return &Curve{
		Degree: degree,
		CVs:    cvs,
		Knots:  clampedKnots(len(cvs)-degree, degree),
	}, nil
}

// NewPeriodic builds a closed curve with uniform knots whose unique
// control vertices are points.
func NewPeriodic(points []v3.Vec, degree int) (*Curve, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("periodic curve needs at least 3 points, got %d: %w", len(points), ErrTooFewPoints)
	}
	degree = clampDegree(degree, len(points)-1)
	return &Curve{
		Degree:   degree,
		CVs:      append([]v3.Vec(nil), points...),
		Periodic: true,
	}, nil
}

func clampDegree(degree, max int) int {
	if degree < 1 {
		degree = 1
	}
	if degree > max {
		degree = max
	}
	return degree
}

// clampedKnots returns a uniform knot vector over [0,1] with the given
// number of spans and end knots repeated degree+1 times.
func clampedKnots(spans, degree int) []float64 {
	knots := make([]float64, 0, spans+2*degree+1)
	for i := 0; i < degree; i++ {
		knots = append(knots, 0)
	}
	for i := 0; i <= spans; i++ {
		knots = append(knots, float64(i)/float64(spans))
	}
	for i := 0; i < degree; i++ {
		knots = append(knots, 1)
	}
	return knots
}

// Clone returns a deep copy of c.
func (c *Curve) Clone() *Curve {
	out := &Curve{
		Degree:   c.Degree,
		CVs:      append([]v3.Vec(nil), c.CVs...),
		Periodic: c.Periodic,
	}
	if c.Knots != nil {
		out.Knots = append([]float64(nil), c.Knots...)
	}
	return out
}

// Spans returns the number of polynomial spans.
func (c *Curve) Spans() int {
	if c.Periodic {
		return len(c.CVs)
	}
	return len(c.CVs) - c.Degree
}

// Close turns an open curve into a periodic one over the same control
// vertices. The shape is not preserved; closing a periodic curve is a no-op.
func (c *Curve) Close() (*Curve, error) {
	if c.Periodic {
		return c.Clone(), nil
	}
	return NewPeriodic(c.CVs, c.Degree)
}

// Map returns a copy of c with f applied to every control vertex. B-splines
// are affine invariant, so mapping CVs by an affine transform maps the curve.
func (c *Curve) Map(f func(v3.Vec) v3.Vec) *Curve {
	out := c.Clone()
	for i, p := range out.CVs {
		out.CVs[i] = f(p)
	}
	return out
}

// expanded returns the full CV and knot arrays used for evaluation.
func (c *Curve) expanded() ([]v3.Vec, []float64) {
	if !c.Periodic {
		return c.CVs, c.Knots
	}
	n, d := len(c.CVs), c.Degree
	cvs := make([]v3.Vec, 0, n+d)
	cvs = append(cvs, c.CVs...)
	cvs = append(cvs, c.CVs[:d]...)
	knots := make([]float64, n+2*d+1)
	for i := range knots {
		knots[i] = float64(i-d) / float64(n)
	}
	return cvs, knots
}

// normalize maps u into the domain: wrapped for periodic curves, clamped
// for open ones.
func (c *Curve) normalize(u float64) float64 {
	if c.Periodic {
		u -= math.Floor(u)
		if u >= 1 {
			u = 0
		}
		return u
	}
	return math.Max(0, math.Min(1, u))
}

// Eval returns the point at parameter u.
func (c *Curve) Eval(u float64) v3.Vec {
	cvs, knots := c.expanded()
	return deBoor(c.Degree, cvs, knots, c.normalize(u))
}

// Sample returns n+1 evenly spaced points over the domain, including both
// ends (for periodic curves the last point repeats the first).
func (c *Curve) Sample(n int) []v3.Vec {
	if n < 1 {
		n = 1
	}
	pts := make([]v3.Vec, n+1)
	cvs, knots := c.expanded()
	for i := 0; i <= n; i++ {
		u := float64(i) / float64(n)
		if c.Periodic && i == n {
			u = 0
		}
		pts[i] = deBoor(c.Degree, cvs, knots, u)
	}
	return pts
}

// findSpan returns k with knots[k] <= u < knots[k+1], limited to the valid
// spans [d, n-1].
func findSpan(d, n int, knots []float64, u float64) int {
	k := d
	for k < n-1 && u >= knots[k+1] {
		k++
	}
	return k
}

func deBoor(d int, cvs []v3.Vec, knots []float64, u float64) v3.Vec {
	k := findSpan(d, len(cvs), knots, u)
	pts := make([]v3.Vec, d+1)
	for j := 0; j <= d; j++ {
		pts[j] = cvs[k-d+j]
	}
	for r := 1; r <= d; r++ {
		for j := d; j >= r; j-- {
			i := k - d + j
			a := 0.0
			if den := knots[i+d-r+1] - knots[i]; den != 0 {
				a = (u - knots[i]) / den
			}
			pts[j] = pts[j-1].MulScalar(1 - a).Add(pts[j].MulScalar(a))
		}
	}
	return pts[d]
}

// basisFuns returns the d+1 non-zero basis functions at u for span k, for
// control vertices k-d..k.
func basisFuns(d, k int, knots []float64, u float64) []float64 {
	n := make([]float64, d+1)
	left := make([]float64, d+1)
	right := make([]float64, d+1)
	n[0] = 1
	for j := 1; j <= d; j++ {
		left[j] = u - knots[k+1-j]
		right[j] = knots[k+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			temp := 0.0
			if den := right[r+1] + left[j-r]; den != 0 {
				temp = n[r] / den
			}
			n[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		n[j] = saved
	}
	return n
}

// derivative returns the first derivative as arrays sharing c's domain.
func (c *Curve) derivative() (int, []v3.Vec, []float64) {
	cvs, knots := c.expanded()
	d := c.Degree
	dcvs := make([]v3.Vec, len(cvs)-1)
	for i := range dcvs {
		if den := knots[i+d+1] - knots[i+1]; den != 0 {
			dcvs[i] = cvs[i+1].Sub(cvs[i]).MulScalar(float64(d) / den)
		}
	}
	return d - 1, dcvs, knots[1 : len(knots)-1]
}
