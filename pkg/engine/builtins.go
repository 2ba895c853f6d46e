package engine

import (
	"fmt"

	"github.com/dbokser/hairball/pkg/kernel"
	"github.com/dbokser/hairball/pkg/kernel/sdfx"
	"github.com/dbokser/hairball/pkg/polymesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// builtin is the signature of every groom builtin. Errors are prefixed with
// the form name by def.
type builtin func(s *session, pa kwArgs) (zygo.Sexp, error)

// form is one groom DSL builtin: its zygomys name, the keywords it accepts
// and its implementation.
type form struct {
	name     string
	keywords []string
	fn       builtin
}

// forms lists the groom builtins. Names must not shadow zygomys builtins,
// which take precedence over functions added to the environment.
var forms = []form{
	{"vec3", nil, builtinVec3},

	// Inputs
	{"tube", []string{"name", "rings", "segments", "radius", "height"}, builtinTube},
	{"load_obj", nil, builtinLoadOBJ},
	{"border_loop", []string{"index"}, builtinBorderLoop},

	// Growing
	{"grow", []string{"density", "layers", "twist"}, builtinGrow},
	{"center_curve", nil, builtinCenterCurve},

	// Grooming
	{"randomize", []string{"profile"}, builtinRandomize},
	{"trim_tips", []string{"min", "percent"}, builtinTrimTips},
	{"trim_root", []string{"shortest"}, builtinTrimRoot},
	{"interpolate_batch", []string{"count"}, builtinInterpolateBatch},
	{"average_cvs", []string{"amount", "indices"}, builtinAverageCVs},

	// Scalps
	{"scalp_sphere", []string{"radius", "center"}, builtinScalpSphere},
	{"scalp_box", []string{"size", "center"}, builtinScalpBox},
	{"scalp_cylinder", []string{"height", "radius", "center"}, builtinScalpCylinder},
	{"scalp_rotate", nil, builtinScalpRotate},
	{"scalp_union", nil, builtinScalpUnion},
	{"scalp_to_mesh", []string{"name", "cells"}, builtinScalpToMesh},
	{"scalp_mesh", nil, builtinScalpMesh},
	{"snap_base", []string{"falloffs"}, builtinSnapBase},
	{"push_out", []string{"mult"}, builtinPushOut},

	// Queries
	{"curve_count", nil, builtinCurveCount},
}

// def installs f, recording its name as the current form so that warnings
// raised while it runs are attributed to it.
func def(env *zygo.Zlisp, s *session, f form) {
	env.AddFunction(f.name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		s.form = f.name
		defer func() { s.form = "" }()
		pa, err := parseArgs(args)
		if err == nil {
			err = pa.only(f.keywords)
		}
		var out zygo.Sexp
		if err == nil {
			out, err = f.fn(s, pa)
		}
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", f.name, err)
		}
		return out, nil
	})
}

// registerBuiltins installs every form into a zygomys environment bound to
// the session's scene. Source must go through preprocessSource first so
// that :keyword tokens arrive as recognizable strings.
func registerBuiltins(env *zygo.Zlisp, s *session) {
	for _, f := range forms {
		def(env, s, f)
	}
}

// curves resolves a curve reference to the handles it currently names.
func (s *session) curves(x zygo.Sexp) ([]kernel.CurveID, error) {
	ref, ok := x.(*sexpCurves)
	if !ok {
		return nil, fmt.Errorf("expected curves, got %T (%s)", x, x.SexpString(nil))
	}
	if ref.group == "" {
		return ref.ids, nil
	}
	return s.scene.Members(ref.group)
}

// curvesArg resolves the first positional argument as a curve reference.
func (s *session) curvesArg(pa kwArgs) ([]kernel.CurveID, error) {
	x, err := pa.arg(0, "curves")
	if err != nil {
		return nil, err
	}
	return s.curves(x)
}

// meshLoopArgs resolves (form mesh loop ...) arguments. A missing loop
// selects the mesh's first border loop.
func meshLoopArgs(pa kwArgs) (*polymesh.Mesh, []kernel.VertexID, error) {
	x, err := pa.arg(0, "mesh")
	if err != nil {
		return nil, nil, err
	}
	m, err := toMesh(x)
	if err != nil {
		return nil, nil, err
	}
	if len(pa.positional) < 2 {
		borders := m.BorderLoops()
		if len(borders) == 0 {
			return nil, nil, fmt.Errorf("mesh %s has no border loop", m.Name())
		}
		return m, borders[0], nil
	}
	verts, err := toLoop(pa.positional[1])
	if err != nil {
		return nil, nil, err
	}
	return m, verts, nil
}

// (vec3 x y z)
func builtinVec3(_ *session, pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 3 {
		return nil, fmt.Errorf("expected 3 components, got %d", len(pa.positional))
	}
	var c [3]float64
	for i := range c {
		f, err := toFloat64(pa.positional[i])
		if err != nil {
			return nil, err
		}
		c[i] = f
	}
	return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
}

// (tube :name "head" :rings 4 :segments 8 :radius 1 :height 3)
func builtinTube(_ *session, pa kwArgs) (zygo.Sexp, error) {
	name := "pCylinder1"
	if v, ok := pa.kw["name"]; ok {
		str, err := toString(v)
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		name = str
	}
	rings, err := pa.int("rings", 4)
	if err != nil {
		return nil, err
	}
	segments, err := pa.int("segments", 8)
	if err != nil {
		return nil, err
	}
	radius, err := pa.float("radius", 1)
	if err != nil {
		return nil, err
	}
	height, err := pa.float("height", 3)
	if err != nil {
		return nil, err
	}
	m, err := polymesh.Tube(name, rings, segments, radius, height)
	if err != nil {
		return nil, err
	}
	return &sexpMesh{mesh: m}, nil
}

// (load-obj "path.obj")
func builtinLoadOBJ(_ *session, pa kwArgs) (zygo.Sexp, error) {
	x, err := pa.arg(0, "path")
	if err != nil {
		return nil, err
	}
	path, err := toString(x)
	if err != nil {
		return nil, err
	}
	m, err := polymesh.LoadOBJ(path)
	if err != nil {
		return nil, err
	}
	return &sexpMesh{mesh: m}, nil
}

// (border-loop mesh :index 0)
func builtinBorderLoop(_ *session, pa kwArgs) (zygo.Sexp, error) {
	x, err := pa.arg(0, "mesh")
	if err != nil {
		return nil, err
	}
	m, err := toMesh(x)
	if err != nil {
		return nil, err
	}
	idx, err := pa.int("index", 0)
	if err != nil {
		return nil, err
	}
	borders := m.BorderLoops()
	if idx < 0 || idx >= len(borders) {
		return nil, fmt.Errorf("index %d out of range, mesh %s has %d border loops", idx, m.Name(), len(borders))
	}
	return &sexpLoop{verts: borders[idx]}, nil
}

// (grow mesh loop :density 0.4 :layers 5 :twist 0)
//
// Precondition failures have already been reported as warnings; the form
// then evaluates to nil instead of aborting the script.
func builtinGrow(s *session, pa kwArgs) (zygo.Sexp, error) {
	m, border, err := meshLoopArgs(pa)
	if err != nil {
		return nil, err
	}
	opts := s.settings.Grow
	if opts.Density, err = pa.float("density", opts.Density); err != nil {
		return nil, err
	}
	if opts.Layers, err = pa.int("layers", opts.Layers); err != nil {
		return nil, err
	}
	if opts.Twist, err = pa.float("twist", opts.Twist); err != nil {
		return nil, err
	}
	res, err := s.grower.Grow(m, border, opts)
	if precondition(err) {
		return zygo.SexpNull, nil
	}
	if err != nil {
		return nil, err
	}
	return &sexpCurves{group: res.Group, name: s.scene.Name(string(res.Group))}, nil
}

// (center-curve mesh loop)
func builtinCenterCurve(s *session, pa kwArgs) (zygo.Sexp, error) {
	m, border, err := meshLoopArgs(pa)
	if err != nil {
		return nil, err
	}
	c, err := s.grower.CenterCurve(m, border)
	if precondition(err) {
		return zygo.SexpNull, nil
	}
	if err != nil {
		return nil, err
	}
	return &sexpCurves{ids: []kernel.CurveID{c}}, nil
}

// (randomize curves :profile [0.1 0.4 0.6])
func builtinRandomize(s *session, pa kwArgs) (zygo.Sexp, error) {
	ids, err := s.curvesArg(pa)
	if err != nil {
		return nil, err
	}
	profile, err := pa.floats("profile", s.settings.Profile)
	if err != nil {
		return nil, err
	}
	if err := s.groomer.Randomize(ids, profile); err != nil {
		return nil, err
	}
	return pa.positional[0], nil
}

// (trim-tips curves :min 0.3 :percent 0.5) evaluates to the number of curves
// cut.
func builtinTrimTips(s *session, pa kwArgs) (zygo.Sexp, error) {
	ids, err := s.curvesArg(pa)
	if err != nil {
		return nil, err
	}
	minFrac, err := pa.float("min", s.settings.MinTrimFraction)
	if err != nil {
		return nil, err
	}
	percent, err := pa.float("percent", s.settings.TrimPercent)
	if err != nil {
		return nil, err
	}
	cuts, err := s.groomer.Trim(ids, minFrac, percent)
	if err != nil {
		return nil, err
	}
	return &zygo.SexpInt{Val: int64(len(cuts))}, nil
}

// (trim-root curves :shortest 0.2)
func builtinTrimRoot(s *session, pa kwArgs) (zygo.Sexp, error) {
	ids, err := s.curvesArg(pa)
	if err != nil {
		return nil, err
	}
	shortest, err := pa.float("shortest", s.settings.ShortestRootTrim)
	if err != nil {
		return nil, err
	}
	cuts, err := s.groomer.TrimFromRoot(ids, shortest)
	if err != nil {
		return nil, err
	}
	return &zygo.SexpInt{Val: int64(len(cuts))}, nil
}

// (interpolate-batch curves :count 10) evaluates to the new curves.
func builtinInterpolateBatch(s *session, pa kwArgs) (zygo.Sexp, error) {
	ids, err := s.curvesArg(pa)
	if err != nil {
		return nil, err
	}
	n, err := pa.int("count", 1)
	if err != nil {
		return nil, err
	}
	out, err := s.groomer.RandomInterpolatedBatch(ids, n)
	if precondition(err) {
		return zygo.SexpNull, nil
	}
	if err != nil {
		return nil, err
	}
	return &sexpCurves{ids: out}, nil
}

// (average-cvs curves :indices [1 2 3] :amount 0.5). Without :indices every
// interior control vertex of each curve is averaged.
func builtinAverageCVs(s *session, pa kwArgs) (zygo.Sexp, error) {
	ids, err := s.curvesArg(pa)
	if err != nil {
		return nil, err
	}
	amount, err := pa.float("amount", 0.5)
	if err != nil {
		return nil, err
	}
	var indices []int
	if v, ok := pa.kw["indices"]; ok {
		if indices, err = toInts(v); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}
	for _, c := range ids {
		idx := indices
		if idx == nil {
			n, err := s.scene.CVCount(c)
			if err != nil {
				return nil, err
			}
			for i := 1; i < n-1; i++ {
				idx = append(idx, i)
			}
		}
		if err := s.groomer.AverageCVs(c, idx, amount); err != nil {
			return nil, err
		}
	}
	return pa.positional[0], nil
}

// (scalp-sphere :radius 1 :center (vec3 0 0 0))
func builtinScalpSphere(_ *session, pa kwArgs) (zygo.Sexp, error) {
	radius, err := pa.float("radius", 1)
	if err != nil {
		return nil, err
	}
	sc, err := sdfx.Sphere(radius)
	if err != nil {
		return nil, err
	}
	return placed(sc, pa, "sphere")
}

// (scalp-box :size (vec3 1 1 1) :center (vec3 0 0 0))
func builtinScalpBox(_ *session, pa kwArgs) (zygo.Sexp, error) {
	size := v3.Vec{X: 1, Y: 1, Z: 1}
	if v, ok := pa.kw["size"]; ok {
		var err error
		if size, err = toVec3(v); err != nil {
			return nil, fmt.Errorf("size: %w", err)
		}
	}
	sc, err := sdfx.Box(size.X, size.Y, size.Z)
	if err != nil {
		return nil, err
	}
	return placed(sc, pa, "box")
}

// (scalp-cylinder :height 2 :radius 1 :center (vec3 0 0 0))
func builtinScalpCylinder(_ *session, pa kwArgs) (zygo.Sexp, error) {
	height, err := pa.float("height", 2)
	if err != nil {
		return nil, err
	}
	radius, err := pa.float("radius", 1)
	if err != nil {
		return nil, err
	}
	sc, err := sdfx.Cylinder(height, radius)
	if err != nil {
		return nil, err
	}
	return placed(sc, pa, "cylinder")
}

// placed moves a new distance field scalp to the optional :center.
func placed(sc *sdfx.Scalp, pa kwArgs, kind string) (zygo.Sexp, error) {
	if v, ok := pa.kw["center"]; ok {
		c, err := toVec3(v)
		if err != nil {
			return nil, fmt.Errorf("center: %w", err)
		}
		sc = sc.Translate(c.X, c.Y, c.Z)
	}
	return &sexpScalp{scalp: sc, field: sc, kind: kind}, nil
}

// (scalp-rotate scalp (vec3 rx ry rz)), angles in degrees
func builtinScalpRotate(_ *session, pa kwArgs) (zygo.Sexp, error) {
	x, err := pa.arg(0, "scalp")
	if err != nil {
		return nil, err
	}
	sc, err := toField(x)
	if err != nil {
		return nil, err
	}
	y, err := pa.arg(1, "angles")
	if err != nil {
		return nil, err
	}
	a, err := toVec3(y)
	if err != nil {
		return nil, err
	}
	r := sc.Rotate(a.X, a.Y, a.Z)
	return &sexpScalp{scalp: r, field: r, kind: x.(*sexpScalp).kind}, nil
}

// (scalp-union a b ...)
func builtinScalpUnion(_ *session, pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) < 2 {
		return nil, fmt.Errorf("need at least 2 scalps, got %d", len(pa.positional))
	}
	parts := make([]*sdfx.Scalp, len(pa.positional))
	for i, x := range pa.positional {
		sc, err := toField(x)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		parts[i] = sc
	}
	u := parts[0].Union(parts[1:]...)
	return &sexpScalp{scalp: u, field: u, kind: "union"}, nil
}

// (scalp-to-mesh scalp :name "scalp" :cells 32)
func builtinScalpToMesh(_ *session, pa kwArgs) (zygo.Sexp, error) {
	x, err := pa.arg(0, "scalp")
	if err != nil {
		return nil, err
	}
	sc, err := toField(x)
	if err != nil {
		return nil, err
	}
	name := "scalp"
	if v, ok := pa.kw["name"]; ok {
		if name, err = toString(v); err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
	}
	cells, err := pa.int("cells", 32)
	if err != nil {
		return nil, err
	}
	if cells < 2 {
		return nil, fmt.Errorf("cells must be >= 2, got %d", cells)
	}
	m, err := sc.ToMesh(name, cells)
	if err != nil {
		return nil, err
	}
	return &sexpMesh{mesh: m}, nil
}

// (scalp-mesh mesh)
func builtinScalpMesh(_ *session, pa kwArgs) (zygo.Sexp, error) {
	x, err := pa.arg(0, "mesh")
	if err != nil {
		return nil, err
	}
	m, err := toMesh(x)
	if err != nil {
		return nil, err
	}
	return &sexpScalp{scalp: m.Scalp(), kind: "mesh"}, nil
}

// scalpArgs resolves (form curves scalp ...) arguments.
func (s *session) scalpArgs(pa kwArgs) ([]kernel.CurveID, kernel.Scalp, error) {
	ids, err := s.curvesArg(pa)
	if err != nil {
		return nil, nil, err
	}
	x, err := pa.arg(1, "scalp")
	if err != nil {
		return nil, nil, err
	}
	sc, err := toScalp(x)
	if err != nil {
		return nil, nil, err
	}
	return ids, sc, nil
}

// (snap-base curves scalp :falloffs [0.7 0.4 0.1])
func builtinSnapBase(s *session, pa kwArgs) (zygo.Sexp, error) {
	ids, sc, err := s.scalpArgs(pa)
	if err != nil {
		return nil, err
	}
	falloffs, err := pa.floats("falloffs", s.settings.Falloffs)
	if err != nil {
		return nil, err
	}
	if err := s.groomer.SnapBaseToScalp(ids, sc, falloffs); err != nil {
		return nil, err
	}
	return pa.positional[0], nil
}

// (push-out curves scalp :mult 1.5)
func builtinPushOut(s *session, pa kwArgs) (zygo.Sexp, error) {
	ids, sc, err := s.scalpArgs(pa)
	if err != nil {
		return nil, err
	}
	mult, err := pa.float("mult", s.settings.PushMultiplier)
	if err != nil {
		return nil, err
	}
	if err := s.groomer.PushCurves(ids, sc, mult); err != nil {
		return nil, err
	}
	return pa.positional[0], nil
}

// (curve-count curves)
func builtinCurveCount(s *session, pa kwArgs) (zygo.Sexp, error) {
	ids, err := s.curvesArg(pa)
	if err != nil {
		return nil, err
	}
	return &zygo.SexpInt{Val: int64(len(ids))}, nil
}
