package hair

import (
	"errors"
	"fmt"
	"math"

	"github.com/dbokser/hairball/pkg/kernel"
	"github.com/dbokser/hairball/pkg/loop"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// GrowOptions are the user parameters of Grow.
type GrowOptions struct {
	Density float64 // target spacing between strands along the widest hull
	Layers  int     // number of nested strand layers
	Twist   float64 // parameter offset per hull, in revolutions
}

// Validate checks the option ranges.
func (o GrowOptions) Validate() error {
	if !(o.Density > 0) || math.IsInf(o.Density, 0) {
		return fmt.Errorf("density %g must be positive: %w", o.Density, ErrInvalidOptions)
	}
	if o.Layers < 1 {
		return fmt.Errorf("layers %d must be at least 1: %w", o.Layers, ErrInvalidOptions)
	}
	if math.IsNaN(o.Twist) || math.IsInf(o.Twist, 0) {
		return fmt.Errorf("twist %g: %w", o.Twist, ErrInvalidOptions)
	}
	return nil
}

// GrowResult describes the strands produced by Grow.
type GrowResult struct {
	Group         kernel.GroupID
	Strands       []kernel.CurveID   // every strand, in creation order
	Layers        [][]kernel.CurveID // strands per layer, innermost layer first
	Hulls         int                // hull curves built, intermediates included
	Intermediates int                // intermediates between consecutive hulls
}

// Grower threads strands through hull curves.
type Grower struct {
	*Builder
}

// NewGrower returns a Grower that creates curves in c and reports warnings
// to r, which may be nil.
func NewGrower(c kernel.CurveKernel, r kernel.Reporter) *Grower {
	return &Grower{Builder: NewBuilder(c, r)}
}

// SampleParam returns the parameter at which hull i is sampled for a strand
// with base parameter u: (u + twist·i) mod 1, in [0, 1).
func SampleParam(u, twist float64, i int) float64 {
	p := u + math.Mod(twist*float64(i), 1)
	if p < 0 || p >= 1 {
		p = math.Mod(p, 1)
		if p < 0 {
			p++
		}
	}
	if p >= 1 {
		p = 0
	}
	return p
}

// Strand builds one open strand through hulls at base parameter u.
func (g *Grower) Strand(hulls []kernel.CurveID, u, twist float64) (kernel.CurveID, error) {
	points := make([]v3.Vec, len(hulls))
	for i, h := range hulls {
		p, err := g.Curves.PointAt(h, SampleParam(u, twist, i))
		if err != nil {
			return "", err
		}
		points[i] = p
	}
	return g.FromPoints(points, false)
}

// Layer builds floor(L/density) strands evenly spaced in parameter, where
// L is the largest current arc length among hulls.
func (g *Grower) Layer(hulls []kernel.CurveID, density, twist float64) (strands []kernel.CurveID, err error) {
	var longest float64
	for _, h := range hulls {
		l, err := g.Curves.ArcLength(h)
		if err != nil {
			return nil, err
		}
		longest = max(longest, l)
	}
	n := int(math.Floor(longest / density))

	defer func() {
		if err != nil {
			g.Curves.Delete(strands...)
			strands = nil
		}
	}()
	for j := 0; j < n; j++ {
		s, err := g.Strand(hulls, float64(j)/float64(n), twist)
		if err != nil {
			return strands, fmt.Errorf("strand %d: %w", j, err)
		}
		strands = append(strands, s)
	}
	return strands, nil
}

// Grow walks the loops inward from border, builds the hull stack and fills
// it with opts.Layers nested layers of strands. Layer i uses hulls scaled
// to (i+1)/Layers about their pivots. Strands are renamed <mesh>_<n>CRV and
// grouped under <mesh>_hairCurves; hulls never outlive the call.
//
// Precondition failures are reported as warnings and returned; nothing is
// left in the scene in that case.
func (g *Grower) Grow(m kernel.Mesh, border []kernel.VertexID, opts GrowOptions) (res *GrowResult, err error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	loops, err := g.walk(m, border)
	if err != nil {
		return nil, err
	}

	inter := IntermediateCount(opts.Twist)
	hulls, err := g.Hulls(m, loops, inter)
	if err != nil {
		return nil, err
	}
	defer g.Curves.Delete(hulls...)

	res = &GrowResult{Hulls: len(hulls), Intermediates: inter}
	defer func() {
		if err != nil {
			g.Curves.Delete(res.Strands...)
			res = nil
		}
	}()

	twist := opts.Twist / float64(inter+1)
	for i := 0; i < opts.Layers; i++ {
		s := float64(i+1) / float64(opts.Layers)
		for _, h := range hulls {
			if err := g.Curves.ScaleAboutPivot(h, s); err != nil {
				return res, err
			}
		}
		layer, err := g.Layer(hulls, opts.Density, twist)
		if err != nil {
			return res, fmt.Errorf("layer %d: %w", i, err)
		}
		res.Layers = append(res.Layers, layer)
		res.Strands = append(res.Strands, layer...)
	}

	if len(res.Strands) == 0 {
		g.Reporter.Warn("No hair curves made. Perhaps the density value is too high.")
		return res, fmt.Errorf("density %g on %s: %w", opts.Density, m.Name(), ErrNoStrands)
	}
	for k, s := range res.Strands {
		if err := g.Curves.Rename(s, fmt.Sprintf("%s_%dCRV", m.Name(), k+1)); err != nil {
			return res, err
		}
	}
	res.Group, err = g.Curves.Group(m.Name()+"_hairCurves", res.Strands...)
	return res, err
}

// CenterCurve builds a single strand through the centers of the hulls,
// named <mesh>_CenterCRV.
func (g *Grower) CenterCurve(m kernel.Mesh, border []kernel.VertexID) (kernel.CurveID, error) {
	loops, err := g.walk(m, border)
	if err != nil {
		return "", err
	}
	hulls, err := g.Hulls(m, loops, 0)
	if err != nil {
		return "", err
	}
	defer g.Curves.Delete(hulls...)

	for _, h := range hulls {
		if err := g.Curves.ScaleAboutPivot(h, 0); err != nil {
			return "", err
		}
	}
	c, err := g.Strand(hulls, 0.5, 0)
	if err != nil {
		return "", err
	}
	if err := g.Curves.Rename(c, m.Name()+"_CenterCRV"); err != nil {
		g.Curves.Delete(c)
		return "", err
	}
	return c, nil
}

// walk orders the loops from border inward, reporting topology problems.
func (g *Grower) walk(m kernel.Mesh, border []kernel.VertexID) ([]loop.Loop, error) {
	loops, err := loop.NewWalker(m, g.Reporter).Walk(border)
	switch {
	case errors.Is(err, loop.ErrNotBorderLoop):
		g.Reporter.Warn("Selected edge loop is not a border loop. Please select a border loop and try again.")
	case errors.Is(err, loop.ErrUnevenTopology):
		g.Reporter.Warn("Number of verts in edge loops must be the same throughout the mesh.")
	case errors.Is(err, loop.ErrNotCycle):
		g.Reporter.Warn("Selected vertices do not form a single edge loop.")
	}
	return loops, err
}
