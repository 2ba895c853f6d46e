package scene

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNoCurve is returned when a handle does not name a curve.
	ErrNoCurve = errors.New("scene: no such curve")
	// ErrNoGroup is returned when a handle does not name a group.
	ErrNoGroup = errors.New("scene: no such group")
	// ErrDegenerate is returned when an edit needs to invert a zero scale.
	ErrDegenerate = errors.New("scene: curve is scaled to zero")
)

// Scene holds curve and group nodes. It is not safe for concurrent use.
type Scene struct {
	Nodes     map[string]*Node
	Roots     []string
	NameIndex map[string]string
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{
		Nodes:     make(map[string]*Node),
		NameIndex: make(map[string]string),
	}
}

// add registers n as a root node under a unique version of name.
func (s *Scene) add(n *Node, name string) {
	n.ID = uuid.NewString()
	n.Name = s.uniqueName(name)
	s.Nodes[n.ID] = n
	s.NameIndex[n.Name] = n.ID
	s.Roots = append(s.Roots, n.ID)
}

// uniqueName returns name, or name with the smallest numeric suffix that is
// not yet taken. A trailing number on name is replaced, not extended.
func (s *Scene) uniqueName(name string) string {
	if _, taken := s.NameIndex[name]; !taken {
		return name
	}
	base := strings.TrimRightFunc(name, func(r rune) bool { return r >= '0' && r <= '9' })
	for i := 1; ; i++ {
		candidate := base + strconv.Itoa(i)
		if _, taken := s.NameIndex[candidate]; !taken {
			return candidate
		}
	}
}

// Get returns the node with the given ID, or nil.
func (s *Scene) Get(id string) *Node {
	return s.Nodes[id]
}

// Lookup returns the node with the given name, or nil.
func (s *Scene) Lookup(name string) *Node {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Nodes[id]
}

// Name returns the current name of a node, or "" if it does not exist.
func (s *Scene) Name(id string) string {
	if n := s.Nodes[id]; n != nil {
		return n.Name
	}
	return ""
}

// NodeCount returns the total number of nodes.
func (s *Scene) NodeCount() int {
	return len(s.Nodes)
}

// Children returns the child nodes of n.
func (s *Scene) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := s.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// curve returns the curve node with the given ID.
func (s *Scene) curve(id string) (*Node, error) {
	n := s.Nodes[id]
	if n == nil || n.Kind != NodeCurve {
		return nil, fmt.Errorf("%q: %w", id, ErrNoCurve)
	}
	return n, nil
}

// detach removes id from its parent's children or from the roots.
func (s *Scene) detach(n *Node) {
	if p := s.Nodes[n.Parent]; p != nil {
		p.Children = slices.DeleteFunc(p.Children, func(c string) bool { return c == n.ID })
	} else {
		s.Roots = slices.DeleteFunc(s.Roots, func(c string) bool { return c == n.ID })
	}
	n.Parent = ""
}

// remove deletes n and, for groups, everything under it.
func (s *Scene) remove(n *Node) {
	for _, c := range s.Children(n) {
		c.Parent = ""
		s.remove(c)
	}
	s.detach(n)
	delete(s.Nodes, n.ID)
	if s.NameIndex[n.Name] == n.ID {
		delete(s.NameIndex, n.Name)
	}
}
