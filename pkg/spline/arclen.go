package spline

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

const (
	// quadPoints is the Gauss-Legendre order of each panel.
	quadPoints = 16
	// arcTol is the relative agreement required between a panel and its
	// two halves before the panel is accepted.
	arcTol = 1e-12
	// maxBisect bounds the refinement depth near points of zero speed,
	// where |C'| has a kink.
	maxBisect = 30
)

// ArcLength returns the length of the curve over its whole domain,
// integrating |C'(u)| span by span with adaptive bisection.
func (c *Curve) ArcLength() float64 {
	d, dcvs, dknots := c.derivative()
	speed := func(u float64) float64 {
		return deBoor(d, dcvs, dknots, u).Length()
	}

	var total float64
	for _, iv := range c.breakpoints() {
		whole := quad.Fixed(speed, iv[0], iv[1], quadPoints, quad.Legendre{}, 0)
		total += refine(speed, iv[0], iv[1], whole, maxBisect)
	}
	return total
}

// refine integrates f over [a, b] given the single-panel estimate whole,
// bisecting until both halves agree with it.
func refine(f func(float64) float64, a, b, whole float64, depth int) float64 {
	m := (a + b) / 2
	left := quad.Fixed(f, a, m, quadPoints, quad.Legendre{}, 0)
	right := quad.Fixed(f, m, b, quadPoints, quad.Legendre{}, 0)
	sum := left + right
	if depth == 0 || math.Abs(sum-whole) <= arcTol*math.Max(1, math.Abs(sum)) {
		return sum
	}
	return refine(f, a, m, left, depth-1) + refine(f, m, b, right, depth-1)
}

// breakpoints returns the non-empty knot intervals inside [0, 1].
func (c *Curve) breakpoints() [][2]float64 {
	_, knots := c.expanded()
	var out [][2]float64
	for i := 0; i+1 < len(knots); i++ {
		a, b := knots[i], knots[i+1]
		if b <= a || b <= 0 || a >= 1 {
			continue
		}
		if a < 0 {
			a = 0
		}
		if b > 1 {
			b = 1
		}
		out = append(out, [2]float64{a, b})
	}
	return out
}
