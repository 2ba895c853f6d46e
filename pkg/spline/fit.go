package spline

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"
)

// samplesPerSpan controls how densely the source curve is sampled when
// fitting a rebuilt curve.
const samplesPerSpan = 16

// Rebuild returns a least-squares approximation of c with the given number
// of uniform spans and degree, keeping c's parameterization and
// closedness. Open curves keep their end points exactly. A curve that
// already lies in the target space is reproduced.
func (c *Curve) Rebuild(spans, degree int) (*Curve, error) {
	if spans < 1 {
		return nil, fmt.Errorf("rebuild to %d spans: %w", spans, ErrBadParam)
	}
	if degree < 1 {
		degree = 1
	}
	if c.Periodic {
		return c.rebuildPeriodic(spans, degree)
	}
	return c.rebuildOpen(spans, degree)
}

func sampleCount(spans, degree int) int {
	m := samplesPerSpan * (spans + degree)
	if m < 64 {
		m = 64
	}
	return m
}

func (c *Curve) rebuildPeriodic(n, degree int) (*Curve, error) {
	if degree >= n {
		degree = n - 1
	}
	if n < 3 {
		return nil, fmt.Errorf("periodic rebuild to %d spans: %w", n, ErrTooFewPoints)
	}
	target := &Curve{Degree: degree, CVs: make([]v3.Vec, n), Periodic: true}
	_, knots := target.expanded()

	m := sampleCount(n, degree)
	a := mat.NewDense(m, n, nil)
	b := mat.NewDense(m, 3, nil)
	for j := 0; j < m; j++ {
		u := float64(j) / float64(m)
		k := findSpan(degree, n+degree, knots, u)
		for r, w := range basisFuns(degree, k, knots, u) {
			col := (k - degree + r) % n
			a.Set(j, col, a.At(j, col)+w)
		}
		setRow(b, j, c.Eval(u))
	}

	cvs, err := solve(a, b)
	if err != nil {
		return nil, fmt.Errorf("periodic rebuild: %w", err)
	}
	target.CVs = cvs
	return target, nil
}

func (c *Curve) rebuildOpen(spans, degree int) (*Curve, error) {
	n := spans + degree
	knots := clampedKnots(spans, degree)
	start, end := c.Eval(0), c.Eval(1)
	target := &Curve{Degree: degree, CVs: make([]v3.Vec, n), Knots: knots}
	target.CVs[0], target.CVs[n-1] = start, end
	if n == 2 {
		return target, nil
	}

	// Only interior CVs are unknown; the fixed end CVs move to the right side.
	m := sampleCount(spans, degree)
	a := mat.NewDense(m, n-2, nil)
	b := mat.NewDense(m, 3, nil)
	for j := 0; j < m; j++ {
		u := float64(j) / float64(m-1)
		k := findSpan(degree, n, knots, u)
		rhs := c.Eval(u)
		for r, w := range basisFuns(degree, k, knots, u) {
			switch i := k - degree + r; i {
			case 0:
				rhs = rhs.Sub(start.MulScalar(w))
			case n - 1:
				rhs = rhs.Sub(end.MulScalar(w))
			default:
				a.Set(j, i-1, w)
			}
		}
		setRow(b, j, rhs)
	}

	interior, err := solve(a, b)
	if err != nil {
		return nil, fmt.Errorf("open rebuild: %w", err)
	}
	copy(target.CVs[1:n-1], interior)
	return target, nil
}

func setRow(b *mat.Dense, j int, p v3.Vec) {
	b.Set(j, 0, p.X)
	b.Set(j, 1, p.Y)
	b.Set(j, 2, p.Z)
}

// solve returns the least-squares solution of a·x = b as points.
func solve(a, b *mat.Dense) ([]v3.Vec, error) {
	var x mat.Dense
	if err := x.Solve(a, b); err != nil {
		return nil, err
	}
	rows, _ := x.Dims()
	out := make([]v3.Vec, rows)
	for i := range out {
		out[i] = v3.Vec{X: x.At(i, 0), Y: x.At(i, 1), Z: x.At(i, 2)}
	}
	return out, nil
}
