package polymesh

import (
	"slices"

	"github.com/dbokser/hairball/pkg/kernel"
)

// BorderLoops returns the mesh's boundary loops: cycles of edges used by
// exactly one face. Loops are sorted by their smallest vertex and each
// starts at its smallest vertex. Boundary vertices shared by more than two
// boundary edges are skipped.
func (m *Mesh) BorderLoops() [][]kernel.VertexID {
	adj := make(map[kernel.VertexID][]kernel.VertexID)
	for e, n := range m.edgeFaces {
		if n != 1 {
			continue
		}
		adj[e.a] = append(adj[e.a], e.b)
		adj[e.b] = append(adj[e.b], e.a)
	}

	starts := make([]kernel.VertexID, 0, len(adj))
	for v, n := range adj {
		if len(n) == 2 {
			slices.Sort(n)
			starts = append(starts, v)
		}
	}
	slices.Sort(starts)

	visited := kernel.NewVertexSet()
	var loops [][]kernel.VertexID
	for _, start := range starts {
		if visited.Has(start) {
			continue
		}
		loop := []kernel.VertexID{start}
		visited.Add(start)
		prev, cur := start, adj[start][0]
		for cur != start {
			if len(adj[cur]) != 2 || visited.Has(cur) {
				loop = nil
				break
			}
			loop = append(loop, cur)
			visited.Add(cur)
			next := adj[cur][0]
			if next == prev {
				next = adj[cur][1]
			}
			prev, cur = cur, next
		}
		if len(loop) >= 3 {
			loops = append(loops, loop)
		}
	}
	return loops
}
