package groom

import (
	"github.com/dbokser/hairball/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// SnapBaseToScalp moves each curve's root control vertex onto the closest
// scalp point and drags the following control vertices along by falloffs[k]
// times the root's offset. Nil falloffs use DefaultFalloffs.
func (g *Groomer) SnapBaseToScalp(curves []kernel.CurveID, scalp kernel.Scalp, falloffs []float64) error {
	if falloffs == nil {
		falloffs = DefaultFalloffs
	}
	for _, c := range curves {
		n, err := g.Curves.CVCount(c)
		if err != nil {
			return err
		}
		root, err := g.Curves.CV(c, 0)
		if err != nil {
			return err
		}
		snapped := scalp.ClosestPoint(root)
		offset := snapped.Sub(root)
		if err := g.Curves.SetCV(c, 0, snapped); err != nil {
			return err
		}
		for k, f := range falloffs {
			i := k + 1
			if i >= n {
				break
			}
			p, err := g.Curves.CV(c, i)
			if err != nil {
				return err
			}
			if err := g.Curves.SetCV(c, i, p.Add(offset.MulScalar(f))); err != nil {
				return err
			}
		}
	}
	return nil
}

// PushPoints returns each point moved by mult times its offset to the
// closest scalp point.
func PushPoints(points []v3.Vec, scalp kernel.Scalp, mult float64) []v3.Vec {
	out := make([]v3.Vec, len(points))
	for i, p := range points {
		out[i] = push(p, scalp, mult)
	}
	return out
}

// PushCurves applies PushPoints to every control vertex of curves.
func (g *Groomer) PushCurves(curves []kernel.CurveID, scalp kernel.Scalp, mult float64) error {
	for _, c := range curves {
		n, err := g.Curves.CVCount(c)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			p, err := g.Curves.CV(c, i)
			if err != nil {
				return err
			}
			if err := g.Curves.SetCV(c, i, push(p, scalp, mult)); err != nil {
				return err
			}
		}
	}
	return nil
}

func push(p v3.Vec, scalp kernel.Scalp, mult float64) v3.Vec {
	return p.Add(scalp.ClosestPoint(p).Sub(p).MulScalar(mult))
}
