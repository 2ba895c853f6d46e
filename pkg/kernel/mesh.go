package kernel

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// VertexID indexes a vertex of a Mesh.
type VertexID int

// Mesh is the read-only polygon mesh surface the hair core traverses.
type Mesh interface {
	// Name identifies the mesh; generated curves and groups are named after it.
	Name() string

	VertexCount() int

	// AdjacentVertices returns every vertex sharing an edge with any of vs
	// (vertex -> edge -> vertex conversion). The result may include members
	// of vs themselves; order is ascending and duplicates are removed.
	AdjacentVertices(vs ...VertexID) []VertexID

	PointPosition(v VertexID) v3.Vec
}

// VertexSet is a membership set of vertices.
type VertexSet map[VertexID]struct{}

// NewVertexSet returns a set holding vs.
func NewVertexSet(vs ...VertexID) VertexSet {
	s := make(VertexSet, len(vs))
	for _, v := range vs {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set.
func (s VertexSet) Has(v VertexID) bool {
	_, ok := s[v]
	return ok
}

// Add inserts vs into the set.
func (s VertexSet) Add(vs ...VertexID) {
	for _, v := range vs {
		s[v] = struct{}{}
	}
}
