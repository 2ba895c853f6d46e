// Package groom post-processes a set of hair curves: randomizing control
// vertices, trimming lengths, blending new curves from existing ones and
// attaching roots to a scalp surface.
package groom

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/dbokser/hairball/pkg/hair"
	"github.com/dbokser/hairball/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	// ErrProfileTooShort is returned for a randomize profile with fewer
	// than two entries.
	ErrProfileTooShort = errors.New("groom: randomize profile needs at least 2 values")
	// ErrInvalidTrim is returned for trim bounds outside their range.
	ErrInvalidTrim = errors.New("groom: trim bounds out of range")
	// ErrNotEnoughCurves is returned when an operation needs more curves.
	ErrNotEnoughCurves = errors.New("groom: not enough curves")
	// ErrBadIndex is returned for a control vertex index that cannot be
	// averaged.
	ErrBadIndex = errors.New("groom: control vertex index out of range")
)

// DefaultFalloffs move the three control vertices after the root by these
// fractions of the root's snap offset.
var DefaultFalloffs = []float64{0.7, 0.4, 0.1}

// Groomer applies grooming operators to curves in a kernel. Rand is the
// only source of randomness, so a seeded generator makes every operator
// reproducible.
type Groomer struct {
	Curves   kernel.CurveKernel
	Rand     *rand.Rand
	Reporter kernel.Reporter
}

// New returns a Groomer. A nil rng is replaced by an unseeded generator and
// a nil reporter by kernel.Discard.
func New(c kernel.CurveKernel, rng *rand.Rand, r kernel.Reporter) *Groomer {
	if rng == nil {
		rng = NewRand(0)
	}
	if r == nil {
		r = kernel.Discard
	}
	return &Groomer{Curves: c, Rand: rng, Reporter: r}
}

// NewRand returns a generator seeded with seed, or a randomly seeded one
// when seed is 0.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// Randomize displaces every control vertex of curves by up to half a
// multiplier per axis. Multipliers follow profile, stretched piecewise
// linearly over the control vertices of the longest curve, so the first
// entry applies at the root and the last at the tip.
func (g *Groomer) Randomize(curves []kernel.CurveID, profile []float64) error {
	if len(profile) < 2 {
		g.Reporter.Warn("Randomize needs at least two profile values.")
		return fmt.Errorf("%d values: %w", len(profile), ErrProfileTooShort)
	}

	counts := make([]int, len(curves))
	longest := 0
	for i, c := range curves {
		n, err := g.Curves.CVCount(c)
		if err != nil {
			return err
		}
		counts[i] = n
		longest = max(longest, n)
	}
	mult := make([]float64, longest)
	for i := range mult {
		f := 0.0
		if longest > 1 {
			f = float64(i) / float64(longest-1)
		}
		mult[i] = ProfileAt(profile, f)
	}

	for ci, c := range curves {
		for i := 0; i < counts[ci]; i++ {
			p, err := g.Curves.CV(c, i)
			if err != nil {
				return err
			}
			d := v3.Vec{
				X: mult[i] * (g.Rand.Float64() - 0.5),
				Y: mult[i] * (g.Rand.Float64() - 0.5),
				Z: mult[i] * (g.Rand.Float64() - 0.5),
			}
			if err := g.Curves.SetCV(c, i, p.Add(d)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProfileAt evaluates profile as a piecewise linear function over [0, 1]
// with its entries evenly spaced. It needs at least two entries.
func ProfileAt(profile []float64, f float64) float64 {
	last := len(profile) - 1
	x := min(max(f, 0), 1) * float64(last)
	k := int(x)
	if k >= last {
		return profile[last]
	}
	return profile[k] + (profile[k+1]-profile[k])*(x-float64(k))
}

// Cut records where a curve was cut.
type Cut struct {
	Curve kernel.CurveID
	Param float64
}

// Trim shortens floor(len(curves)·percent) curves, chosen at random without
// replacement. Each loses everything past a cut parameter drawn uniformly
// from [minFraction, 1). The returned cuts are in the order applied.
func (g *Groomer) Trim(curves []kernel.CurveID, minFraction, percent float64) ([]Cut, error) {
	if !(minFraction > 0 && minFraction <= 1) {
		g.Reporter.Warn("Minimum trim fraction must be greater than 0 and at most 1.")
		return nil, fmt.Errorf("min fraction %g not in (0,1]: %w", minFraction, ErrInvalidTrim)
	}
	if !(percent > 0 && percent <= 1) {
		g.Reporter.Warn("Trim percent must be greater than 0 and at most 1.")
		return nil, fmt.Errorf("percent %g not in (0,1]: %w", percent, ErrInvalidTrim)
	}

	n := int(float64(len(curves)) * percent)
	cuts := make([]Cut, 0, n)
	for _, i := range g.Rand.Perm(len(curves))[:n] {
		c := curves[i]
		u := minFraction + g.Rand.Float64()*(1-minFraction)
		cuts = append(cuts, Cut{Curve: c, Param: u})
		if u >= 1 {
			continue
		}
		_, tip, err := g.Curves.Detach(c, u)
		if err != nil {
			return cuts, fmt.Errorf("trim: %w", err)
		}
		g.Curves.Delete(tip)
	}
	return cuts, nil
}

// TrimFromRoot removes a random amount from the root end of each curve,
// keeping at least shortest of its parameter range. Curves keep their
// handles; each is left rebuilt to 10 uniform spans.
func (g *Groomer) TrimFromRoot(curves []kernel.CurveID, shortest float64) ([]Cut, error) {
	if !(shortest >= 0 && shortest < 1) {
		g.Reporter.Warn("Shortest root trim must be at least 0 and below 1.")
		return nil, fmt.Errorf("shortest %g not in [0,1): %w", shortest, ErrInvalidTrim)
	}
	const spans, degree = 10, 3

	cuts := make([]Cut, 0, len(curves))
	for _, c := range curves {
		r := g.Rand.Float64() * (1 - shortest)
		if err := g.Curves.Rebuild(c, spans, degree); err != nil {
			return cuts, err
		}
		cuts = append(cuts, Cut{Curve: c, Param: r})
		if r <= 0 {
			continue
		}
		_, tip, err := g.Curves.Detach(c, r)
		if err != nil {
			return cuts, fmt.Errorf("trim from root: %w", err)
		}
		err = g.adopt(c, tip, spans, degree)
		g.Curves.Delete(tip)
		if err != nil {
			return cuts, err
		}
	}
	return cuts, nil
}

// adopt rebuilds src and dst to the same uniform spans and copies src's
// control vertices into dst.
func (g *Groomer) adopt(dst, src kernel.CurveID, spans, degree int) error {
	if err := g.Curves.Rebuild(src, spans, degree); err != nil {
		return err
	}
	if err := g.Curves.Rebuild(dst, spans, degree); err != nil {
		return err
	}
	n, err := g.Curves.CVCount(src)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		p, err := g.Curves.CV(src, i)
		if err != nil {
			return err
		}
		if err := g.Curves.SetCV(dst, i, p); err != nil {
			return err
		}
	}
	return nil
}

// Interpolate creates a curve between a and b: a copy of a, rebuilt to b's
// spans and degree, with every control vertex moved fraction v of the way
// to b's.
func (g *Groomer) Interpolate(a, b kernel.CurveID, v float64) (id kernel.CurveID, err error) {
	spans, err := g.Curves.Spans(b)
	if err != nil {
		return "", err
	}
	degree, err := g.Curves.Degree(b)
	if err != nil {
		return "", err
	}
	nb, err := g.Curves.CVCount(b)
	if err != nil {
		return "", err
	}

	id, err = g.Curves.Duplicate(a)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			g.Curves.Delete(id)
			id = ""
		}
	}()
	if err = g.Curves.Rebuild(id, spans, degree); err != nil {
		return id, err
	}
	n, err := g.Curves.CVCount(id)
	if err != nil {
		return id, err
	}
	if n != nb {
		g.Reporter.Warn("Number of CVs between curves are not equal. Can't interpolate.")
		return id, fmt.Errorf("interpolate %d with %d CVs: %w", n, nb, hair.ErrCVMismatch)
	}
	for i := 0; i < n; i++ {
		pa, err := g.Curves.CV(id, i)
		if err != nil {
			return id, err
		}
		pb, err := g.Curves.CV(b, i)
		if err != nil {
			return id, err
		}
		if err := g.Curves.SetCV(id, i, pa.Add(pb.Sub(pa).MulScalar(v))); err != nil {
			return id, err
		}
	}
	return id, nil
}

// RandomInterpolatedBatch creates n curves, each interpolated between two
// distinct curves picked at random, at a fraction drawn from [0.3, 0.7].
func (g *Groomer) RandomInterpolatedBatch(curves []kernel.CurveID, n int) (out []kernel.CurveID, err error) {
	if len(curves) < 2 {
		g.Reporter.Warn("Need at least two curves to interpolate between.")
		return nil, fmt.Errorf("interpolate from %d curves: %w", len(curves), ErrNotEnoughCurves)
	}
	defer func() {
		if err != nil {
			g.Curves.Delete(out...)
			out = nil
		}
	}()
	for k := 0; k < n; k++ {
		i := g.Rand.IntN(len(curves))
		j := g.Rand.IntN(len(curves) - 1)
		if j >= i {
			j++
		}
		c, err := g.Interpolate(curves[i], curves[j], 0.3+0.4*g.Rand.Float64())
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

// AverageCVs moves each listed control vertex amount of the way toward the
// mean of itself and its two neighbors. Positions are read before any
// vertex moves. End vertices of open curves have one neighbor and are
// rejected; periodic curves wrap.
func (g *Groomer) AverageCVs(c kernel.CurveID, indices []int, amount float64) error {
	n, err := g.Curves.CVCount(c)
	if err != nil {
		return err
	}
	spans, err := g.Curves.Spans(c)
	if err != nil {
		return err
	}
	closed := n == spans

	cvs := make([]v3.Vec, n)
	for i := range cvs {
		if cvs[i], err = g.Curves.CV(c, i); err != nil {
			return err
		}
	}
	for _, i := range indices {
		if i < 0 || i >= n || (!closed && (i == 0 || i == n-1)) {
			return fmt.Errorf("cv[%d] of %d: %w", i, n, ErrBadIndex)
		}
	}
	for _, i := range indices {
		prev, next := cvs[(i-1+n)%n], cvs[(i+1)%n]
		avg := prev.Add(cvs[i]).Add(next).DivScalar(3)
		if err := g.Curves.SetCV(c, i, cvs[i].Add(avg.Sub(cvs[i]).MulScalar(amount))); err != nil {
			return err
		}
	}
	return nil
}
