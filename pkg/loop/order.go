// Package loop orders and walks edge loops over a polygon mesh.
//
// An edge loop is a set of vertices forming a single simple cycle under
// edge adjacency. Order puts such a set into cyclic order; Walker starts
// from a border loop and discovers each successive loop inward, carrying
// vertex correspondence across loops so that position i of every loop lies
// on the same topological "column" of the mesh.
package loop

import (
	"errors"
	"fmt"

	"github.com/dbokser/hairball/pkg/kernel"
)

var (
	// ErrNotCycle is returned when a vertex set is not one simple cycle.
	ErrNotCycle = errors.New("loop: vertices do not form a single edge loop")
	// ErrNotBorderLoop is returned when a loop has no matching inner loop.
	ErrNotBorderLoop = errors.New("loop: selected edge loop is not a border loop")
	// ErrUnevenTopology is returned when the mesh is not made of equally
	// sized loops.
	ErrUnevenTopology = errors.New("loop: edge loops differ in size")
)

// Loop is an oriented edge loop. Verts[0] is the start vertex and Verts[1]
// the direction vertex; consecutive entries, including the last and the
// first, share an edge.
type Loop struct {
	Verts []kernel.VertexID
}

// Len returns the number of vertices in the loop.
func (l Loop) Len() int { return len(l.Verts) }

// Start returns the first vertex.
func (l Loop) Start() kernel.VertexID { return l.Verts[0] }

// Direction returns the second vertex.
func (l Loop) Direction() kernel.VertexID { return l.Verts[1] }

// Set returns the loop's vertices as a membership set.
func (l Loop) Set() kernel.VertexSet { return kernel.NewVertexSet(l.Verts...) }

// OrderOptions pins the start and direction of an ordered loop. Nil fields
// take the defaults: the first vertex of the input, and any loop neighbor of
// the start.
type OrderOptions struct {
	Start     *kernel.VertexID
	Direction *kernel.VertexID
	Reporter  kernel.Reporter
}

// Order returns verts in cyclic order. The input must be a single simple
// cycle of at least three vertices; anything else fails with ErrNotCycle.
//
// A start vertex that is not in verts is reported and replaced by the
// default. A direction vertex that does not share an edge with the start is
// likewise reported and replaced.
func Order(m kernel.Mesh, verts []kernel.VertexID, opts OrderOptions) (Loop, error) {
	report := opts.Reporter
	if report == nil {
		report = kernel.Discard
	}

	adj, err := cycleAdjacency(m, verts)
	if err != nil {
		return Loop{}, err
	}

	start := verts[0]
	if opts.Start != nil {
		if _, ok := adj[*opts.Start]; ok {
			start = *opts.Start
		} else {
			report.Warn(fmt.Sprintf("given start vertex %d is not in the loop, using default %d", *opts.Start, start))
		}
	}

	dir := adj[start][0]
	if opts.Direction != nil {
		if d := *opts.Direction; d == adj[start][0] || d == adj[start][1] {
			dir = d
		} else {
			report.Warn(fmt.Sprintf("given direction vertex %d is not next to start %d, using %d", d, start, dir))
		}
	}

	out := make([]kernel.VertexID, 0, len(verts))
	out = append(out, start, dir)
	prev, cur := start, dir
	for len(out) < len(verts) {
		next := adj[cur][0]
		if next == prev {
			next = adj[cur][1]
		}
		out = append(out, next)
		prev, cur = cur, next
	}
	return Loop{Verts: out}, nil
}

// cycleAdjacency restricts mesh adjacency to verts and checks that the
// result is one simple cycle: every vertex has exactly two neighbors in the
// set and a walk from any vertex visits all of them.
func cycleAdjacency(m kernel.Mesh, verts []kernel.VertexID) (map[kernel.VertexID][2]kernel.VertexID, error) {
	if len(verts) < 3 {
		return nil, fmt.Errorf("%d vertices: %w", len(verts), ErrNotCycle)
	}
	in := kernel.NewVertexSet(verts...)
	if len(in) != len(verts) {
		return nil, fmt.Errorf("duplicate vertices: %w", ErrNotCycle)
	}

	adj := make(map[kernel.VertexID][2]kernel.VertexID, len(verts))
	for _, v := range verts {
		var nbrs []kernel.VertexID
		for _, n := range m.AdjacentVertices(v) {
			if n != v && in.Has(n) {
				nbrs = append(nbrs, n)
			}
		}
		if len(nbrs) != 2 {
			return nil, fmt.Errorf("vertex %d has %d loop neighbors: %w", v, len(nbrs), ErrNotCycle)
		}
		adj[v] = [2]kernel.VertexID{nbrs[0], nbrs[1]}
	}

	// Degree two everywhere still allows several disjoint cycles.
	prev, cur, steps := verts[0], adj[verts[0]][0], 1
	for cur != verts[0] {
		next := adj[cur][0]
		if next == prev {
			next = adj[cur][1]
		}
		prev, cur = cur, next
		steps++
	}
	if steps != len(verts) {
		return nil, fmt.Errorf("cycle through %d covers %d of %d vertices: %w", verts[0], steps, len(verts), ErrNotCycle)
	}
	return adj, nil
}
