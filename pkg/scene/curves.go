package scene

import (
	"fmt"

	"github.com/dbokser/hairball/pkg/kernel"
	"github.com/dbokser/hairball/pkg/spline"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.CurveKernel = (*Scene)(nil)

func (s *Scene) addCurve(c *spline.Curve, name string) kernel.CurveID {
	n := &Node{Kind: NodeCurve, Curve: c, Scale: 1}
	s.add(n, name)
	return kernel.CurveID(n.ID)
}

// BuildCurve creates a curve using points as control vertices.
func (s *Scene) BuildCurve(points []v3.Vec, degree int, closed bool) (kernel.CurveID, error) {
	var c *spline.Curve
	var err error
	if closed {
		c, err = spline.NewPeriodic(points, degree)
	} else {
		c, err = spline.NewOpen(points, degree)
	}
	if err != nil {
		return "", err
	}
	return s.addCurve(c, "curve1"), nil
}

// Rebuild replaces a curve's shape with an approximation using uniform
// spans of the given degree.
func (s *Scene) Rebuild(id kernel.CurveID, spans, degree int) error {
	n, err := s.curve(string(id))
	if err != nil {
		return err
	}
	c, err := n.Curve.Rebuild(spans, degree)
	if err != nil {
		return fmt.Errorf("rebuild %s: %w", n.Name, err)
	}
	n.Curve = c
	return nil
}

// Close makes an open curve periodic over the same control vertices.
func (s *Scene) Close(id kernel.CurveID) error {
	n, err := s.curve(string(id))
	if err != nil {
		return err
	}
	c, err := n.Curve.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", n.Name, err)
	}
	n.Curve = c
	return nil
}

// Duplicate copies a curve, transform included, as a new root curve.
func (s *Scene) Duplicate(id kernel.CurveID) (kernel.CurveID, error) {
	n, err := s.curve(string(id))
	if err != nil {
		return "", err
	}
	dup := &Node{Kind: NodeCurve, Curve: n.Curve.Clone(), Pivot: n.Pivot, Scale: n.Scale}
	s.add(dup, n.Name)
	return kernel.CurveID(dup.ID), nil
}

// ArcLength returns the world-space length of a curve.
func (s *Scene) ArcLength(id kernel.CurveID) (float64, error) {
	n, err := s.curve(string(id))
	if err != nil {
		return 0, err
	}
	return n.world().ArcLength(), nil
}

// PointAt returns the world-space point at parameter u.
func (s *Scene) PointAt(id kernel.CurveID, u float64) (v3.Vec, error) {
	n, err := s.curve(string(id))
	if err != nil {
		return v3.Vec{}, err
	}
	return n.toWorld(n.Curve.Eval(u)), nil
}

// CVCount returns the number of distinct control vertices.
func (s *Scene) CVCount(id kernel.CurveID) (int, error) {
	n, err := s.curve(string(id))
	if err != nil {
		return 0, err
	}
	return len(n.Curve.CVs), nil
}

// Spans returns the number of spans.
func (s *Scene) Spans(id kernel.CurveID) (int, error) {
	n, err := s.curve(string(id))
	if err != nil {
		return 0, err
	}
	return n.Curve.Spans(), nil
}

// Degree returns the curve degree.
func (s *Scene) Degree(id kernel.CurveID) (int, error) {
	n, err := s.curve(string(id))
	if err != nil {
		return 0, err
	}
	return n.Curve.Degree, nil
}

// CV returns control vertex i in world space.
func (s *Scene) CV(id kernel.CurveID, i int) (v3.Vec, error) {
	n, err := s.curve(string(id))
	if err != nil {
		return v3.Vec{}, err
	}
	if i < 0 || i >= len(n.Curve.CVs) {
		return v3.Vec{}, fmt.Errorf("%s.cv[%d] out of range [0,%d)", n.Name, i, len(n.Curve.CVs))
	}
	return n.toWorld(n.Curve.CVs[i]), nil
}

// SetCV moves control vertex i to the world-space position p.
func (s *Scene) SetCV(id kernel.CurveID, i int, p v3.Vec) error {
	n, err := s.curve(string(id))
	if err != nil {
		return err
	}
	if i < 0 || i >= len(n.Curve.CVs) {
		return fmt.Errorf("%s.cv[%d] out of range [0,%d)", n.Name, i, len(n.Curve.CVs))
	}
	if n.Scale == 0 {
		return fmt.Errorf("%s: %w", n.Name, ErrDegenerate)
	}
	n.Curve.CVs[i] = n.toLocal(p)
	return nil
}

// CenterPivot freezes the current scale into the control vertices and
// moves the pivot to the center of their bounding box. The world shape
// does not change.
func (s *Scene) CenterPivot(id kernel.CurveID) error {
	n, err := s.curve(string(id))
	if err != nil {
		return err
	}
	n.Curve = n.world()
	n.Scale = 1

	lo, hi := n.Curve.CVs[0], n.Curve.CVs[0]
	for _, p := range n.Curve.CVs[1:] {
		lo, hi = lo.Min(p), hi.Max(p)
	}
	n.Pivot = sdf.Box3{Min: lo, Max: hi}.Center()
	return nil
}

// ScaleAboutPivot sets a curve's uniform scale. The factor is absolute:
// 1 restores the size the curve had when its pivot was last centered.
func (s *Scene) ScaleAboutPivot(id kernel.CurveID, factor float64) error {
	n, err := s.curve(string(id))
	if err != nil {
		return err
	}
	n.Scale = factor
	return nil
}

// Detach splits an open curve at u. The original handle keeps the base
// piece [0,u]; the tip piece (u,1] becomes a new curve in the same parent.
func (s *Scene) Detach(id kernel.CurveID, u float64) (keep, discard kernel.CurveID, err error) {
	n, err := s.curve(string(id))
	if err != nil {
		return "", "", err
	}
	head, tail, err := n.Curve.Split(u)
	if err != nil {
		return "", "", fmt.Errorf("detach %s: %w", n.Name, err)
	}
	n.Curve = head

	tip := &Node{Kind: NodeCurve, Curve: tail, Pivot: n.Pivot, Scale: n.Scale}
	s.add(tip, n.Name+"Detached1")
	if p := s.Nodes[n.Parent]; p != nil {
		s.detach(tip)
		tip.Parent = p.ID
		p.Children = append(p.Children, tip.ID)
	}
	return id, kernel.CurveID(tip.ID), nil
}

// Delete removes curves. Unknown handles are ignored.
func (s *Scene) Delete(curves ...kernel.CurveID) {
	for _, id := range curves {
		if n := s.Nodes[string(id)]; n != nil {
			s.remove(n)
		}
	}
}

// Rename gives a node a new name. If the name is taken, a numeric suffix
// is chosen; use Name to read the result.
func (s *Scene) Rename(id kernel.CurveID, name string) error {
	n := s.Nodes[string(id)]
	if n == nil {
		return fmt.Errorf("rename %q: %w", id, ErrNoCurve)
	}
	if n.Name == name {
		return nil
	}
	if s.NameIndex[n.Name] == n.ID {
		delete(s.NameIndex, n.Name)
	}
	n.Name = s.uniqueName(name)
	s.NameIndex[n.Name] = n.ID
	return nil
}

// Group creates a group node and moves the curves under it.
func (s *Scene) Group(name string, curves ...kernel.CurveID) (kernel.GroupID, error) {
	for _, id := range curves {
		if _, err := s.curve(string(id)); err != nil {
			return "", fmt.Errorf("group %s: %w", name, err)
		}
	}
	g := &Node{Kind: NodeGroup}
	s.add(g, name)
	for _, id := range curves {
		c := s.Nodes[string(id)]
		s.detach(c)
		c.Parent = g.ID
		g.Children = append(g.Children, c.ID)
	}
	return kernel.GroupID(g.ID), nil
}

// Members returns the curves directly under a group, in insertion order.
func (s *Scene) Members(id kernel.GroupID) ([]kernel.CurveID, error) {
	g := s.Nodes[string(id)]
	if g == nil || g.Kind != NodeGroup {
		return nil, fmt.Errorf("%q: %w", id, ErrNoGroup)
	}
	out := make([]kernel.CurveID, 0, len(g.Children))
	for _, c := range s.Children(g) {
		if c.Kind == NodeCurve {
			out = append(out, kernel.CurveID(c.ID))
		}
	}
	return out, nil
}

// Curves returns every curve node in the scene.
func (s *Scene) Curves() []kernel.CurveID {
	var out []kernel.CurveID
	for id, n := range s.Nodes {
		if n.Kind == NodeCurve {
			out = append(out, kernel.CurveID(id))
		}
	}
	return out
}

// WorldCurve returns a copy of a curve's world-space shape.
func (s *Scene) WorldCurve(id kernel.CurveID) (*spline.Curve, error) {
	n, err := s.curve(string(id))
	if err != nil {
		return nil, err
	}
	return n.world().Clone(), nil
}
