package polymesh

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Tube builds an open cylinder along +Z made of quads: rings circles of
// segments vertices each, stacked from z=0 to z=height. Vertex r*segments+s
// is segment s of ring r, so ring 0 and ring rings-1 are border loops.
func Tube(name string, rings, segments int, radius, height float64) (*Mesh, error) {
	if rings < 2 || segments < 3 {
		return nil, fmt.Errorf("tube needs at least 2 rings and 3 segments, got %d and %d", rings, segments)
	}
	positions := make([]v3.Vec, 0, rings*segments)
	for r := 0; r < rings; r++ {
		z := height * float64(r) / float64(rings-1)
		for s := 0; s < segments; s++ {
			a := 2 * math.Pi * float64(s) / float64(segments)
			positions = append(positions, v3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a), Z: z})
		}
	}

	faces := make([][]int, 0, (rings-1)*segments)
	for r := 0; r+1 < rings; r++ {
		for s := 0; s < segments; s++ {
			next := (s + 1) % segments
			faces = append(faces, []int{
				r*segments + s,
				r*segments + next,
				(r+1)*segments + next,
				(r+1)*segments + s,
			})
		}
	}
	return New(name, positions, faces)
}

// Ring returns the vertex indices of ring r of a mesh built by Tube.
func Ring(r, segments int) []int {
	out := make([]int, segments)
	for s := range out {
		out[s] = r*segments + s
	}
	return out
}
