package hair

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/dbokser/hairball/pkg/kernel"
	"github.com/dbokser/hairball/pkg/loop"
	"github.com/dbokser/hairball/pkg/polymesh"
	"github.com/dbokser/hairball/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

type warnings []string

func (w *warnings) Warn(msg string) { *w = append(*w, msg) }

func near(a, b v3.Vec) bool { return a.Sub(b).Length() < 1e-6 }

func ids(vs ...int) []kernel.VertexID {
	out := make([]kernel.VertexID, len(vs))
	for i, v := range vs {
		out[i] = kernel.VertexID(v)
	}
	return out
}

func tube(t *testing.T) *polymesh.Mesh {
	t.Helper()
	m, err := polymesh.Tube("pCylinder1", 4, 8, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func ring(r float64, z float64) []v3.Vec {
	pts := make([]v3.Vec, 8)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / 8
		pts[i] = v3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a), Z: z}
	}
	return pts
}

// hullStack builds the hulls Grow would build for m in a fresh scene.
func hullStack(t *testing.T, m kernel.Mesh, inter int) (*scene.Scene, *Grower, []kernel.CurveID) {
	t.Helper()
	loops, err := loop.NewWalker(m, nil).Walk(ids(polymesh.Ring(0, 8)...))
	if err != nil {
		t.Fatal(err)
	}
	s := scene.New()
	g := NewGrower(s, nil)
	hulls, err := g.Hulls(m, loops, inter)
	if err != nil {
		t.Fatal(err)
	}
	return s, g, hulls
}

func TestIntermediateCount(t *testing.T) {
	tests := []struct {
		twist float64
		want  int
	}{
		{0, 0},
		{0.04, 0},
		{0.1, 0},
		{0.2, 1},
		{0.3, 2},
		{-0.3, 2},
		{0.44, 3},
		{1, 9},
	}
	for _, tt := range tests {
		if got := IntermediateCount(tt.twist); got != tt.want {
			t.Errorf("IntermediateCount(%g) = %d, want %d", tt.twist, got, tt.want)
		}
	}
}

func TestSampleParam(t *testing.T) {
	tests := []struct {
		u, twist float64
		i        int
		want     float64
	}{
		{0.25, 0, 5, 0.25},
		{0.5, 0.25, 2, 0},
		{0.9, 0.2, 1, 0.1},
		{0.1, -0.2, 1, 0.9},
		{0.75, 0.125, 3, 0.125},
		{0, -1.5, 1, 0.5},
	}
	for _, tt := range tests {
		got := SampleParam(tt.u, tt.twist, tt.i)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("SampleParam(%g, %g, %d) = %g, want %g", tt.u, tt.twist, tt.i, got, tt.want)
		}
		if got < 0 || got >= 1 {
			t.Errorf("SampleParam(%g, %g, %d) = %g outside [0,1)", tt.u, tt.twist, tt.i, got)
		}
	}
}

func TestSampleParamWrapIdentity(t *testing.T) {
	for _, u := range []float64{0, 0.1, 0.3, 0.5, 0.7, 0.999} {
		for _, tc := range []struct {
			twist float64
			i     int
		}{{0, 7}, {1, 3}, {0.5, 2}, {0.25, 4}, {-0.5, 6}, {2, 1}} {
			if got := SampleParam(u, tc.twist, tc.i); got != u {
				t.Errorf("SampleParam(%g, %g, %d) = %g, want exactly %g", u, tc.twist, tc.i, got, u)
			}
		}
	}
}

func TestFromPoints(t *testing.T) {
	s := scene.New()
	b := NewBuilder(s, nil)

	hull, err := b.FromPoints(ring(1, 2), true)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CVCount(hull); n != Spans {
		t.Errorf("closed CVs = %d, want %d", n, Spans)
	}
	if d, _ := s.Degree(hull); d != Degree {
		t.Errorf("degree = %d, want %d", d, Degree)
	}
	if p := s.Get(string(hull)).Pivot; !near(p, v3.Vec{Z: 2}) {
		t.Errorf("pivot = %v, want (0,0,2)", p)
	}

	strand, err := b.FromPoints([]v3.Vec{{}, {Z: 1}, {X: 1, Z: 2}, {X: 1, Z: 3}}, false)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CVCount(strand); n != Spans+Degree {
		t.Errorf("open CVs = %d, want %d", n, Spans+Degree)
	}
	if p, _ := s.CV(strand, 0); !near(p, v3.Vec{}) {
		t.Errorf("open cv[0] = %v, want origin", p)
	}
	if p, _ := s.CV(strand, Spans+Degree-1); !near(p, v3.Vec{X: 1, Z: 3}) {
		t.Errorf("open last cv = %v, want (1,0,3)", p)
	}

	if _, err := b.FromPoints([]v3.Vec{{}, {X: 1}}, true); err == nil {
		t.Error("expected error closing a 2-point curve")
	}
	if s.NodeCount() != 2 {
		t.Errorf("node count = %d, want 2 (failed curve removed)", s.NodeCount())
	}
}

func TestFromPointsDeterministic(t *testing.T) {
	s := scene.New()
	b := NewBuilder(s, nil)
	a, _ := b.FromPoints(ring(1, 0), true)
	c, _ := b.FromPoints(ring(1, 0), true)
	for i := 0; i < Spans; i++ {
		pa, _ := s.CV(a, i)
		pc, _ := s.CV(c, i)
		if pa != pc {
			t.Errorf("cv[%d] differs: %v != %v", i, pa, pc)
		}
	}
}

func TestIntermediates(t *testing.T) {
	s := scene.New()
	b := NewBuilder(s, nil)
	a, _ := b.FromPoints(ring(1, 0), true)
	c, _ := b.FromPoints(ring(2, 3), true)

	const n = 2
	mid, err := b.Intermediates(a, c, n)
	if err != nil {
		t.Fatal(err)
	}
	if len(mid) != n {
		t.Fatalf("intermediates = %d, want %d", len(mid), n)
	}
	for k, id := range mid {
		f := float64(k+1) / float64(n+1)
		for i := 0; i < Spans; i++ {
			pa, _ := s.CV(a, i)
			pc, _ := s.CV(c, i)
			want := pa.Add(pc.Sub(pa).MulScalar(f))
			if got, _ := s.CV(id, i); !near(got, want) {
				t.Errorf("curve %d cv[%d] = %v, want %v", k+1, i, got, want)
			}
		}
		if n, _ := s.Spans(id); n != Spans {
			t.Errorf("curve %d is not closed", k+1)
		}
	}
}

func TestIntermediatesMismatch(t *testing.T) {
	s := scene.New()
	var w warnings
	b := NewBuilder(s, &w)
	a, _ := b.FromPoints(ring(1, 0), true)
	c, _ := b.FromPoints(ring(1, 0)[:4], false)

	mid, err := b.Intermediates(a, c, 3)
	if !errors.Is(err, ErrCVMismatch) {
		t.Errorf("err = %v, want ErrCVMismatch", err)
	}
	if len(mid) != 0 || s.NodeCount() != 2 {
		t.Errorf("created %d curves on mismatch", s.NodeCount()-2)
	}
	if len(w) != 1 {
		t.Errorf("warnings = %v, want one", w)
	}
}

func TestHulls(t *testing.T) {
	s, _, hulls := hullStack(t, tube(t), 2)
	if len(hulls) != 4+3*2 {
		t.Fatalf("hulls = %d, want 10", len(hulls))
	}
	// Intermediates sit between true hulls in z.
	for i, h := range hulls {
		p, _ := s.PointAt(h, 0)
		if want := float64(i) / 3; math.Abs(p.Z-want) > 1e-6 {
			t.Errorf("hull %d z = %f, want %f", i, p.Z, want)
		}
	}
}

func TestHullsCleanupOnFailure(t *testing.T) {
	m := tube(t)
	s := scene.New()
	b := NewBuilder(s, nil)
	loops := []loop.Loop{
		{Verts: ids(polymesh.Ring(0, 8)...)},
		{Verts: ids(polymesh.Ring(1, 8)...)},
		{Verts: ids(16, 17)},
	}
	if _, err := b.Hulls(m, loops, 1); err == nil {
		t.Fatal("expected error for a 2-vertex loop")
	}
	if s.NodeCount() != 0 {
		t.Errorf("%d curves left after failure", s.NodeCount())
	}
}

func TestStrandSamplesEveryHull(t *testing.T) {
	s, g, hulls := hullStack(t, tube(t), 0)

	for _, twist := range []float64{0, 0.5, -0.125} {
		c, err := g.Strand(hulls, 0.25, twist)
		if err != nil {
			t.Fatal(err)
		}
		first, _ := s.PointAt(hulls[0], 0.25)
		last, _ := s.PointAt(hulls[3], SampleParam(0.25, twist, 3))
		if p, _ := s.CV(c, 0); !near(p, first) {
			t.Errorf("twist %g: root = %v, want %v", twist, p, first)
		}
		if p, _ := s.CV(c, Spans+Degree-1); !near(p, last) {
			t.Errorf("twist %g: tip = %v, want %v", twist, p, last)
		}
	}
}

func TestGrow(t *testing.T) {
	m := tube(t)
	s := scene.New()
	var w warnings
	g := NewGrower(s, &w)

	const density, layers = 0.4, 3
	res, err := g.Grow(m, ids(polymesh.Ring(0, 8)...), GrowOptions{Density: density, Layers: layers})
	if err != nil {
		t.Fatal(err)
	}
	if len(w) != 0 {
		t.Errorf("unexpected warnings: %v", w)
	}
	if res.Hulls != 4 || res.Intermediates != 0 {
		t.Errorf("hulls = %d, intermediates = %d; want 4, 0", res.Hulls, res.Intermediates)
	}
	if len(res.Layers) != layers {
		t.Fatalf("layers = %d, want %d", len(res.Layers), layers)
	}

	ref, _, hulls := hullStack(t, m, 0)
	for i, layer := range res.Layers {
		var longest float64
		for _, h := range hulls {
			ref.ScaleAboutPivot(h, float64(i+1)/layers)
			l, _ := ref.ArcLength(h)
			longest = max(longest, l)
		}
		if want := int(math.Floor(longest / density)); len(layer) != want {
			t.Errorf("layer %d has %d strands, want %d", i, len(layer), want)
		}
	}

	// Only the strands and their group remain.
	if s.NodeCount() != len(res.Strands)+1 {
		t.Errorf("scene has %d nodes, want %d", s.NodeCount(), len(res.Strands)+1)
	}
	if got := s.Name(string(res.Group)); got != "pCylinder1_hairCurves" {
		t.Errorf("group name = %q", got)
	}
	members, err := s.Members(res.Group)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != len(res.Strands) {
		t.Errorf("group has %d members, want %d", len(members), len(res.Strands))
	}
	for k, c := range res.Strands {
		if want := fmt.Sprintf("pCylinder1_%dCRV", k+1); s.Name(string(c)) != want {
			t.Errorf("strand %d name = %q, want %q", k, s.Name(string(c)), want)
		}
	}
}

func TestGrowLayersNest(t *testing.T) {
	m := tube(t)
	s := scene.New()
	res, err := NewGrower(s, nil).Grow(m, ids(polymesh.Ring(0, 8)...), GrowOptions{Density: 0.2, Layers: 2})
	if err != nil {
		t.Fatal(err)
	}
	radius := func(c kernel.CurveID) float64 {
		p, _ := s.CV(c, 0)
		return math.Hypot(p.X, p.Y)
	}
	inner, outer := radius(res.Layers[0][0]), radius(res.Layers[1][0])
	if math.Abs(inner*2-outer) > 1e-6 {
		t.Errorf("inner root radius %f is not half of outer %f", inner, outer)
	}
}

func TestGrowWithTwist(t *testing.T) {
	m := tube(t)
	s := scene.New()
	res, err := NewGrower(s, nil).Grow(m, ids(polymesh.Ring(0, 8)...), GrowOptions{Density: 0.4, Layers: 1, Twist: 0.3})
	if err != nil {
		t.Fatal(err)
	}
	if res.Intermediates != 2 || res.Hulls != 10 {
		t.Errorf("intermediates = %d, hulls = %d; want 2, 10", res.Intermediates, res.Hulls)
	}
	if len(res.Strands) == 0 {
		t.Fatal("no strands")
	}
	if s.NodeCount() != len(res.Strands)+1 {
		t.Errorf("hull curves left behind: %d nodes for %d strands", s.NodeCount(), len(res.Strands))
	}
}

func TestGrowNotBorderLoop(t *testing.T) {
	m := tube(t)
	s := scene.New()
	var w warnings
	res, err := NewGrower(s, &w).Grow(m, ids(polymesh.Ring(1, 8)...), GrowOptions{Density: 0.4, Layers: 3})
	if !errors.Is(err, loop.ErrNotBorderLoop) {
		t.Errorf("err = %v, want ErrNotBorderLoop", err)
	}
	if res != nil || s.NodeCount() != 0 || len(w) != 1 {
		t.Errorf("res = %v, nodes = %d, warnings = %v", res, s.NodeCount(), w)
	}
}

func TestGrowNoStrands(t *testing.T) {
	m := tube(t)
	s := scene.New()
	var w warnings
	_, err := NewGrower(s, &w).Grow(m, ids(polymesh.Ring(0, 8)...), GrowOptions{Density: 100, Layers: 2})
	if !errors.Is(err, ErrNoStrands) {
		t.Errorf("err = %v, want ErrNoStrands", err)
	}
	if s.NodeCount() != 0 {
		t.Errorf("%d nodes left, want none", s.NodeCount())
	}
	if len(w) != 1 {
		t.Errorf("warnings = %v, want one", w)
	}
}

func TestGrowOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts GrowOptions
		ok   bool
	}{
		{"defaults", GrowOptions{Density: 0.4, Layers: 5}, true},
		{"negative twist", GrowOptions{Density: 0.4, Layers: 1, Twist: -2}, true},
		{"zero density", GrowOptions{Layers: 1}, false},
		{"nan density", GrowOptions{Density: math.NaN(), Layers: 1}, false},
		{"no layers", GrowOptions{Density: 0.4}, false},
		{"inf twist", GrowOptions{Density: 0.4, Layers: 1, Twist: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("err = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestCenterCurve(t *testing.T) {
	m := tube(t)
	s := scene.New()
	c, err := NewGrower(s, nil).CenterCurve(m, ids(polymesh.Ring(0, 8)...))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name(string(c)) != "pCylinder1_CenterCRV" {
		t.Errorf("name = %q", s.Name(string(c)))
	}
	if s.NodeCount() != 1 {
		t.Errorf("nodes = %d, want 1", s.NodeCount())
	}
	if p, _ := s.CV(c, 0); !near(p, v3.Vec{}) {
		t.Errorf("root = %v, want origin", p)
	}
	if p, _ := s.CV(c, Spans+Degree-1); !near(p, v3.Vec{Z: 3}) {
		t.Errorf("tip = %v, want (0,0,3)", p)
	}
}
