// Package polymesh is an in-memory polygon mesh with the vertex/edge
// adjacency the hair core traverses. Meshes are immutable once built.
package polymesh

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dbokser/hairball/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Mesh = (*Mesh)(nil)

// ErrBadFace is returned when a face references a missing vertex or has
// fewer than three corners.
var ErrBadFace = errors.New("polymesh: bad face")

// edge is an undirected edge with a < b.
type edge struct {
	a, b kernel.VertexID
}

func newEdge(a, b kernel.VertexID) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// Mesh is a polygon mesh.
type Mesh struct {
	name      string
	positions []v3.Vec
	faces     [][]kernel.VertexID
	neighbors [][]kernel.VertexID // sorted, per vertex
	edgeFaces map[edge]int        // number of faces using each edge
}

// New builds a mesh from vertex positions and polygon faces given as
// vertex index lists.
func New(name string, positions []v3.Vec, faces [][]int) (*Mesh, error) {
	m := &Mesh{
		name:      name,
		positions: append([]v3.Vec(nil), positions...),
		neighbors: make([][]kernel.VertexID, len(positions)),
		edgeFaces: make(map[edge]int),
	}
	for fi, f := range faces {
		if len(f) < 3 {
			return nil, fmt.Errorf("face %d has %d corners: %w", fi, len(f), ErrBadFace)
		}
		face := make([]kernel.VertexID, len(f))
		for i, v := range f {
			if v < 0 || v >= len(positions) {
				return nil, fmt.Errorf("face %d references vertex %d of %d: %w", fi, v, len(positions), ErrBadFace)
			}
			face[i] = kernel.VertexID(v)
		}
		for i := range face {
			e := newEdge(face[i], face[(i+1)%len(face)])
			if m.edgeFaces[e] == 0 {
				m.neighbors[e.a] = append(m.neighbors[e.a], e.b)
				m.neighbors[e.b] = append(m.neighbors[e.b], e.a)
			}
			m.edgeFaces[e]++
		}
		m.faces = append(m.faces, face)
	}
	for _, n := range m.neighbors {
		slices.Sort(n)
	}
	return m, nil
}

// Name returns the mesh name.
func (m *Mesh) Name() string { return m.name }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.positions) }

// FaceCount returns the number of polygons.
func (m *Mesh) FaceCount() int { return len(m.faces) }

// EdgeCount returns the number of distinct edges.
func (m *Mesh) EdgeCount() int { return len(m.edgeFaces) }

// PointPosition returns the position of v.
func (m *Mesh) PointPosition(v kernel.VertexID) v3.Vec {
	return m.positions[v]
}

// AdjacentVertices returns the sorted union of the inputs and every vertex
// sharing an edge with one of them.
func (m *Mesh) AdjacentVertices(vs ...kernel.VertexID) []kernel.VertexID {
	seen := kernel.NewVertexSet()
	var out []kernel.VertexID
	add := func(v kernel.VertexID) {
		if !seen.Has(v) {
			seen.Add(v)
			out = append(out, v)
		}
	}
	for _, v := range vs {
		if int(v) < 0 || int(v) >= len(m.neighbors) {
			continue
		}
		add(v)
		for _, n := range m.neighbors[v] {
			add(n)
		}
	}
	slices.Sort(out)
	return out
}

// Neighbors returns the vertices sharing an edge with v.
func (m *Mesh) Neighbors(v kernel.VertexID) []kernel.VertexID {
	return m.neighbors[v]
}

// Faces returns the polygons as vertex lists.
func (m *Mesh) Faces() [][]kernel.VertexID {
	return m.faces
}
