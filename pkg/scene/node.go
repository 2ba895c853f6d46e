package scene

import (
	"github.com/dbokser/hairball/pkg/spline"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NodeKind enumerates the types of nodes in the scene.
type NodeKind int

const (
	NodeCurve NodeKind = iota // a curve with its own transform
	NodeGroup                 // a named collection of curves
)

func (k NodeKind) String() string {
	switch k {
	case NodeCurve:
		return "curve"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is an element of the scene. Curve nodes keep their shape in local
// space; the world shape is the local shape scaled by Scale about Pivot.
type Node struct {
	ID       string
	Kind     NodeKind
	Name     string
	Parent   string
	Children []string

	Curve *spline.Curve
	Pivot v3.Vec
	Scale float64
}

// toWorld maps a local point to world space.
func (n *Node) toWorld(p v3.Vec) v3.Vec {
	return n.Pivot.Add(p.Sub(n.Pivot).MulScalar(n.Scale))
}

// toLocal maps a world point to local space. Scale must be non-zero.
func (n *Node) toLocal(p v3.Vec) v3.Vec {
	return n.Pivot.Add(p.Sub(n.Pivot).DivScalar(n.Scale))
}

// world returns the curve in world space.
func (n *Node) world() *spline.Curve {
	if n.Scale == 1 {
		return n.Curve
	}
	return n.Curve.Map(n.toWorld)
}
