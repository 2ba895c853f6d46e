package kernel

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// --- VertexSet tests ---

func TestVertexSetHas(t *testing.T) {
	tests := []struct {
		name string
		set  []VertexID
		v    VertexID
		want bool
	}{
		{"empty", nil, 0, false},
		{"member", []VertexID{1, 2, 3}, 2, true},
		{"non-member", []VertexID{1, 2, 3}, 4, false},
		{"duplicates collapse", []VertexID{5, 5}, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewVertexSet(tt.set...)
			if got := s.Has(tt.v); got != tt.want {
				t.Errorf("Has(%d) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestVertexSetAdd(t *testing.T) {
	s := NewVertexSet()
	s.Add(1, 2, 2, 3)
	if len(s) != 3 {
		t.Errorf("len = %d, want 3", len(s))
	}
}

func TestReporterFunc(t *testing.T) {
	var got []string
	var r Reporter = ReporterFunc(func(msg string) { got = append(got, msg) })
	r.Warn("one")
	r.Warn("two")
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("got %v, want [one two]", got)
	}
	Discard.Warn("ignored")
}

// --- Compile-time interface checks with stub implementations ---

// stubMesh is a minimal Mesh: a single triangle.
type stubMesh struct{}

func (stubMesh) Name() string     { return "tri" }
func (stubMesh) VertexCount() int { return 3 }
func (stubMesh) AdjacentVertices(vs ...VertexID) []VertexID {
	return []VertexID{0, 1, 2}
}
func (stubMesh) PointPosition(v VertexID) v3.Vec {
	return v3.Vec{X: float64(v)}
}

// stubScalp is a plane at z=0.
type stubScalp struct{}

func (stubScalp) ClosestPoint(p v3.Vec) v3.Vec { return v3.Vec{X: p.X, Y: p.Y} }

// stubCurves proves CurveKernel is satisfiable. Every method is trivial.
type stubCurves struct{}

func (stubCurves) BuildCurve([]v3.Vec, int, bool) (CurveID, error) { return "c", nil }
func (stubCurves) Rebuild(CurveID, int, int) error                 { return nil }
func (stubCurves) Close(CurveID) error                             { return nil }
func (stubCurves) Duplicate(c CurveID) (CurveID, error)            { return c + "'", nil }
func (stubCurves) ArcLength(CurveID) (float64, error)              { return 0, nil }
func (stubCurves) PointAt(CurveID, float64) (v3.Vec, error)        { return v3.Vec{}, nil }
func (stubCurves) CVCount(CurveID) (int, error)                    { return 0, nil }
func (stubCurves) Spans(CurveID) (int, error)                      { return 0, nil }
func (stubCurves) Degree(CurveID) (int, error)                     { return 3, nil }
func (stubCurves) CV(CurveID, int) (v3.Vec, error)                 { return v3.Vec{}, nil }
func (stubCurves) SetCV(CurveID, int, v3.Vec) error                { return nil }
func (stubCurves) CenterPivot(CurveID) error                       { return nil }
func (stubCurves) ScaleAboutPivot(CurveID, float64) error          { return nil }
func (stubCurves) Detach(c CurveID, _ float64) (CurveID, CurveID, error) {
	return c, c + "-tip", nil
}
func (stubCurves) Delete(...CurveID)                              {}
func (stubCurves) Rename(CurveID, string) error                   { return nil }
func (stubCurves) Group(name string, _ ...CurveID) (GroupID, error) { return GroupID(name), nil }

var _ Mesh = stubMesh{}
var _ Scalp = stubScalp{}
var _ CurveKernel = stubCurves{}

func TestStubScalpClosestPoint(t *testing.T) {
	var s Scalp = stubScalp{}
	got := s.ClosestPoint(v3.Vec{X: 1, Y: 2, Z: 3})
	if got != (v3.Vec{X: 1, Y: 2}) {
		t.Errorf("ClosestPoint = %v, want {1 2 0}", got)
	}
}

func TestStubCurvesDetach(t *testing.T) {
	var k CurveKernel = stubCurves{}
	keep, tip, err := k.Detach("a", 0.5)
	if err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if keep != "a" || tip != "a-tip" {
		t.Errorf("Detach() = (%q, %q), want (a, a-tip)", keep, tip)
	}
}
