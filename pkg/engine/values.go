package engine

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dbokser/hairball/pkg/kernel"
	"github.com/dbokser/hairball/pkg/kernel/sdfx"
	"github.com/dbokser/hairball/pkg/polymesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpMesh wraps a polygon mesh returned by `tube` or `load-obj`.
type sexpMesh struct {
	mesh *polymesh.Mesh
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh %q :verts %d :faces %d)", m.mesh.Name(), m.mesh.VertexCount(), m.mesh.FaceCount())
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

// sexpLoop is an edge loop selection.
type sexpLoop struct {
	verts []kernel.VertexID
}

func (l *sexpLoop) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(loop :verts %d)", len(l.verts))
}
func (l *sexpLoop) Type() *zygo.RegisteredType { return nil }

// sexpCurves refers to a set of curves in the session scene. A reference
// to a group resolves its members at use, so curves added to or removed
// from the group after creation are seen by later forms.
type sexpCurves struct {
	group kernel.GroupID
	ids   []kernel.CurveID
	name  string
}

func (c *sexpCurves) SexpString(ps *zygo.PrintState) string {
	if c.group != "" {
		return fmt.Sprintf("(group %q)", c.name)
	}
	return fmt.Sprintf("(curves :count %d)", len(c.ids))
}
func (c *sexpCurves) Type() *zygo.RegisteredType { return nil }

// sexpScalp wraps a closest-point surface. field is set for distance
// field scalps, which can be combined and tessellated.
type sexpScalp struct {
	scalp kernel.Scalp
	field *sdfx.Scalp
	kind  string
}

func (s *sexpScalp) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(scalp :%s)", s.kind)
}
func (s *sexpScalp) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a point returned by `vec3`.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names during preprocessing.
const kwPrefix = "__kw_"

// isKW reports whether s is a keyword string produced by preprocessSource
// and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

// kwArgs holds parsed keyword and positional arguments.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs splits args into positional values and keyword/value pairs.
// Every keyword must be followed by a value and may appear once.
func parseArgs(args []zygo.Sexp) (kwArgs, error) {
	pa := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		if i+1 == len(args) {
			return kwArgs{}, fmt.Errorf("keyword :%s has no value", name)
		}
		if _, dup := pa.kw[name]; dup {
			return kwArgs{}, fmt.Errorf("keyword :%s given twice", name)
		}
		i++
		pa.kw[name] = args[i]
	}
	return pa, nil
}

// only rejects keywords outside allowed.
func (a kwArgs) only(allowed []string) error {
	for name := range a.kw {
		if !slices.Contains(allowed, name) {
			if len(allowed) == 0 {
				return fmt.Errorf("unknown keyword :%s (takes none)", name)
			}
			return fmt.Errorf("unknown keyword :%s (takes :%s)", name, strings.Join(allowed, " :"))
		}
	}
	return nil
}

// float returns keyword key as a number, or def when it is absent.
func (a kwArgs) float(key string, def float64) (float64, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// int returns keyword key as an integer, or def when it is absent.
func (a kwArgs) int(key string, def int) (int, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// floats returns keyword key as a list of numbers, or def when it is absent.
func (a kwArgs) floats(key string, def []float64) ([]float64, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	fs, err := toFloats(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return fs, nil
}

// arg returns positional argument i or an error naming what was expected.
func (a kwArgs) arg(i int, what string) (zygo.Sexp, error) {
	if i >= len(a.positional) {
		return nil, fmt.Errorf("missing %s argument", what)
	}
	return a.positional[i], nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt or an integral SexpFloat.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toFloats extracts a list or array of numbers.
func toFloats(s zygo.Sexp) ([]float64, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, it := range items {
		if out[i], err = toFloat64(it); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// toInts extracts a list or array of integers.
func toInts(s zygo.Sexp) ([]int, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(items))
	for i, it := range items {
		if out[i], err = toInt(it); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// toMesh extracts the mesh from a sexpMesh.
func toMesh(s zygo.Sexp) (*polymesh.Mesh, error) {
	if m, ok := s.(*sexpMesh); ok {
		return m.mesh, nil
	}
	return nil, fmt.Errorf("expected mesh, got %T (%s)", s, s.SexpString(nil))
}

// toLoop accepts a sexpLoop or a literal list of vertex indices.
func toLoop(s zygo.Sexp) ([]kernel.VertexID, error) {
	if l, ok := s.(*sexpLoop); ok {
		return l.verts, nil
	}
	ns, err := toInts(s)
	if err != nil {
		return nil, fmt.Errorf("expected loop or vertex list: %w", err)
	}
	verts := make([]kernel.VertexID, len(ns))
	for i, n := range ns {
		verts[i] = kernel.VertexID(n)
	}
	return verts, nil
}

// toScalp extracts the surface from a sexpScalp.
func toScalp(s zygo.Sexp) (kernel.Scalp, error) {
	if sc, ok := s.(*sexpScalp); ok {
		return sc.scalp, nil
	}
	return nil, fmt.Errorf("expected scalp, got %T (%s)", s, s.SexpString(nil))
}

// toField extracts a distance field scalp.
func toField(s zygo.Sexp) (*sdfx.Scalp, error) {
	if sc, ok := s.(*sexpScalp); ok && sc.field != nil {
		return sc.field, nil
	}
	return nil, fmt.Errorf("expected distance field scalp, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a point from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}
