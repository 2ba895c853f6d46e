// Package hair builds hull curves through the edge loops of a mesh and
// threads hair strands through them.
package hair

import (
	"errors"
	"fmt"
	"math"

	"github.com/dbokser/hairball/pkg/kernel"
	"github.com/dbokser/hairball/pkg/loop"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Canonical shape of every hull and strand after rebuild.
const (
	Degree = 3
	Spans  = 4
)

// twistStep is the twist covered by one hull step before intermediate
// hulls are inserted to smooth the strands.
const twistStep = 0.1

var (
	// ErrCVMismatch is returned when two curves must have the same number
	// of control vertices but do not.
	ErrCVMismatch = errors.New("hair: control vertex counts differ")
	// ErrNoStrands is returned when growing produced no strands.
	ErrNoStrands = errors.New("hair: no strands produced")
	// ErrInvalidOptions is returned for out-of-range grow parameters.
	ErrInvalidOptions = errors.New("hair: invalid grow options")
)

// Builder turns loops and point lists into canonical curves.
type Builder struct {
	Curves   kernel.CurveKernel
	Reporter kernel.Reporter
}

// NewBuilder returns a Builder that creates curves in c and reports
// warnings to r, which may be nil.
func NewBuilder(c kernel.CurveKernel, r kernel.Reporter) *Builder {
	if r == nil {
		r = kernel.Discard
	}
	return &Builder{Curves: c, Reporter: r}
}

// FromPoints builds a cubic curve with points as control vertices, closes it
// if asked, rebuilds it to Spans uniform spans and centers its pivot.
func (b *Builder) FromPoints(points []v3.Vec, closed bool) (id kernel.CurveID, err error) {
	id, err = b.Curves.BuildCurve(points, Degree, false)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			b.Curves.Delete(id)
			id = ""
		}
	}()

	if closed {
		if err = b.Curves.Close(id); err != nil {
			return id, err
		}
	}
	if err = b.Curves.Rebuild(id, Spans, Degree); err != nil {
		return id, err
	}
	err = b.Curves.CenterPivot(id)
	return id, err
}

// FromVerts builds a curve through the positions of verts.
func (b *Builder) FromVerts(m kernel.Mesh, verts []kernel.VertexID, closed bool) (kernel.CurveID, error) {
	points := make([]v3.Vec, len(verts))
	for i, v := range verts {
		points[i] = m.PointPosition(v)
	}
	return b.FromPoints(points, closed)
}

// Intermediates returns n curves blending from a to c. Curve k (1..n) has
// control vertices a + (c-a)·k/(n+1). Both curves must have the same number
// of control vertices; the result is closed when a is.
func (b *Builder) Intermediates(a, c kernel.CurveID, n int) (out []kernel.CurveID, err error) {
	na, err := b.Curves.CVCount(a)
	if err != nil {
		return nil, err
	}
	nc, err := b.Curves.CVCount(c)
	if err != nil {
		return nil, err
	}
	if na != nc {
		b.Reporter.Warn("Number of CVs between curves are not equal. Can't create intermediate curves.")
		return nil, fmt.Errorf("%d and %d CVs: %w", na, nc, ErrCVMismatch)
	}
	closed, err := b.closed(a)
	if err != nil {
		return nil, err
	}

	pa, err := b.cvs(a, na)
	if err != nil {
		return nil, err
	}
	pc, err := b.cvs(c, nc)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			b.Curves.Delete(out...)
			out = nil
		}
	}()
	for k := 1; k <= n; k++ {
		f := float64(k) / float64(n+1)
		points := make([]v3.Vec, na)
		for i := range points {
			points[i] = pa[i].Add(pc[i].Sub(pa[i]).MulScalar(f))
		}
		id, err := b.FromPoints(points, closed)
		if err != nil {
			return out, err
		}
		out = append(out, id)
	}
	return out, nil
}

// IntermediateCount returns how many intermediate hulls to insert between
// neighboring hulls for a given twist: round(|twist|/0.1) - 1, at least 0.
func IntermediateCount(twist float64) int {
	return max(0, int(math.Round(math.Abs(twist)/twistStep))-1)
}

// Hulls builds one closed hull per loop, in order, with intermediates
// inserted between consecutive hulls. On error no curves are left behind.
func (b *Builder) Hulls(m kernel.Mesh, loops []loop.Loop, intermediates int) (hulls []kernel.CurveID, err error) {
	defer func() {
		if err != nil {
			b.Curves.Delete(hulls...)
			hulls = nil
		}
	}()
	for i, l := range loops {
		hull, err := b.FromVerts(m, l.Verts, true)
		if err != nil {
			return hulls, fmt.Errorf("hull %d: %w", i, err)
		}
		if i > 0 && intermediates > 0 {
			mid, err := b.Intermediates(hulls[len(hulls)-1], hull, intermediates)
			if err != nil {
				b.Curves.Delete(hull)
				return hulls, fmt.Errorf("hull %d: %w", i, err)
			}
			hulls = append(hulls, mid...)
		}
		hulls = append(hulls, hull)
	}
	return hulls, nil
}

// closed reports whether c is periodic: periodic curves have as many
// control vertices as spans.
func (b *Builder) closed(c kernel.CurveID) (bool, error) {
	n, err := b.Curves.CVCount(c)
	if err != nil {
		return false, err
	}
	s, err := b.Curves.Spans(c)
	if err != nil {
		return false, err
	}
	return n == s, nil
}

func (b *Builder) cvs(c kernel.CurveID, n int) ([]v3.Vec, error) {
	out := make([]v3.Vec, n)
	for i := range out {
		p, err := b.Curves.CV(c, i)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
