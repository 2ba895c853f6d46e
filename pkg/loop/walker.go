package loop

import (
	"fmt"

	"github.com/dbokser/hairball/pkg/kernel"
)

// Walker discovers the successive edge loops of a mesh, starting from a
// border loop and moving inward. It owns the set of vertices visited so far
// and the ordered history of loops; neither is shared.
type Walker struct {
	mesh     kernel.Mesh
	reporter kernel.Reporter

	visited kernel.VertexSet
	history []Loop
}

// NewWalker creates a walker over m. Warnings go to r, which may be nil.
func NewWalker(m kernel.Mesh, r kernel.Reporter) *Walker {
	if r == nil {
		r = kernel.Discard
	}
	return &Walker{mesh: m, reporter: r, visited: kernel.NewVertexSet()}
}

// Neighbors returns the vertices one edge away from verts, excluding verts
// themselves, in ascending order.
func (w *Walker) Neighbors(verts []kernel.VertexID) []kernel.VertexID {
	own := kernel.NewVertexSet(verts...)
	var out []kernel.VertexID
	for _, v := range w.mesh.AdjacentVertices(verts...) {
		if !own.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

// CheckBorder verifies that verts lie on a border of the mesh with a loop
// of the same size right next to them. Interior loops have neighbors on
// both sides; boundary edges with no interior have fewer.
func (w *Walker) CheckBorder(verts []kernel.VertexID) error {
	if n := len(w.Neighbors(verts)); n != len(verts) {
		return fmt.Errorf("%d vertices with %d neighbors: %w", len(verts), n, ErrNotBorderLoop)
	}
	return nil
}

// Walk orders border and every loop inward from it. It stops when no
// unvisited neighbors remain or after VertexCount/len(border) loops. The
// result is innermost last. Previous history is discarded.
func (w *Walker) Walk(border []kernel.VertexID) ([]Loop, error) {
	w.visited = kernel.NewVertexSet()
	w.history = nil

	if len(border) == 0 {
		return nil, fmt.Errorf("empty border: %w", ErrNotCycle)
	}
	if err := w.CheckBorder(border); err != nil {
		return nil, err
	}
	total := w.mesh.VertexCount()
	if total%len(border) != 0 {
		return nil, fmt.Errorf("%d mesh vertices in loops of %d: %w", total, len(border), ErrUnevenTopology)
	}

	cur, err := Order(w.mesh, border, OrderOptions{Reporter: w.reporter})
	if err != nil {
		return nil, err
	}
	for i := total / len(border); i > 0; i-- {
		w.history = append(w.history, cur)
		w.visited.Add(cur.Verts...)

		var next []kernel.VertexID
		for _, v := range w.Neighbors(cur.Verts) {
			if !w.visited.Has(v) {
				next = append(next, v)
			}
		}
		if len(next) == 0 {
			break
		}
		if len(next) != len(border) {
			return nil, fmt.Errorf("loop %d has %d vertices, border has %d: %w", len(w.history), len(next), len(border), ErrUnevenTopology)
		}

		opts := OrderOptions{Reporter: w.reporter}
		in := kernel.NewVertexSet(next...)
		if v, ok := w.corresponding(cur.Start(), in); ok {
			opts.Start = &v
		}
		if v, ok := w.corresponding(cur.Direction(), in); ok {
			opts.Direction = &v
		}
		if cur, err = Order(w.mesh, next, opts); err != nil {
			return nil, fmt.Errorf("loop %d: %w", len(w.history), err)
		}
	}
	return w.History(), nil
}

// corresponding returns the vertex of loop that shares an edge with v.
func (w *Walker) corresponding(v kernel.VertexID, loop kernel.VertexSet) (kernel.VertexID, bool) {
	for _, n := range w.mesh.AdjacentVertices(v) {
		if loop.Has(n) {
			return n, true
		}
	}
	return 0, false
}

// History returns the loops walked so far, border first.
func (w *Walker) History() []Loop {
	return append([]Loop(nil), w.history...)
}

// Visited reports how many vertices the last walk covered.
func (w *Walker) Visited() int {
	return len(w.visited)
}
