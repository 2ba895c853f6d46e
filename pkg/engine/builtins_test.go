package engine

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/dbokser/hairball/pkg/kernel"
	"github.com/dbokser/hairball/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// Preprocessing
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(tube :name "head")`,
			expect: `(tube "__kw_name" "head")`,
		},
		{
			name:   "multiple keywords",
			input:  `(trim-tips g :min 0.3 :percent 0.5)`,
			expect: `(trim_tips g "__kw_min" 0.3 "__kw_percent" 0.5)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(border-loop m :loop-index 1)`,
			expect: `(border_loop m "__kw_loop_index" 1)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword normalized",
			input:  `:shortest-root`,
			expect: `"__kw_shortest_root"`,
		},
		{
			name:   "subtraction of a literal",
			input:  `(def n (- x-1 y))`,
			expect: `(def n (- x-1 y))`,
		},
		{
			name:   "escaped quote in string",
			input:  `(tube :name "a\"b-c" :rings 2)`,
			expect: `(tube "__kw_name" "a\"b-c" "__kw_rings" 2)`,
		},
		{
			name:   "backtick string",
			input:  "(load-obj `dir/my-mesh.obj`)",
			expect: "(load_obj `dir/my-mesh.obj`)",
		},
		{
			name:   "line breaks kept",
			input:  "(a-b) ; note\n(c-d :e-f 1)",
			expect: "(a_b) // note\n(c_d \"__kw_e_f\" 1)",
		},
		{
			name:   "unterminated string",
			input:  `(tube :name "head`,
			expect: `(tube "__kw_name" "head`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	args := []zygo.Sexp{
		&zygo.SexpStr{S: "mesh"},
		&zygo.SexpStr{S: kwPrefix + "min_trim"},
		&zygo.SexpFloat{Val: 0.3},
		&zygo.SexpInt{Val: 2},
	}
	pa, err := parseArgs(args)
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if len(pa.positional) != 2 {
		t.Fatalf("positional = %d, want 2", len(pa.positional))
	}
	f, err := pa.float("min_trim", 1)
	if err != nil || f != 0.3 {
		t.Errorf("min_trim = %g, %v; want 0.3", f, err)
	}
	if n, err := pa.int("missing", 9); err != nil || n != 9 {
		t.Errorf("missing keyword = %d, %v; want default 9", n, err)
	}
	if _, err := pa.int("min_trim", 0); err == nil {
		t.Error("expected error reading 0.3 as an integer")
	}
	if _, err := pa.arg(5, "scalp"); err == nil {
		t.Error("expected error for missing positional argument")
	}
	if err := pa.only([]string{"min_trim"}); err != nil {
		t.Errorf("only: %v", err)
	}
	if err := pa.only([]string{"percent"}); err == nil {
		t.Error("expected unknown keyword error")
	}
}

func TestParseArgsRejects(t *testing.T) {
	kw := func(name string) zygo.Sexp { return &zygo.SexpStr{S: kwPrefix + name} }
	tests := []struct {
		name string
		args []zygo.Sexp
	}{
		{"trailing keyword", []zygo.Sexp{&zygo.SexpInt{Val: 1}, kw("flag")}},
		{"duplicate keyword", []zygo.Sexp{kw("min"), &zygo.SexpInt{Val: 1}, kw("min"), &zygo.SexpInt{Val: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseArgs(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFormNamesDoNotShadowZygomys(t *testing.T) {
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	all := zygo.AllBuiltinFunctions()

	seen := make(map[string]bool)
	for _, f := range forms {
		if seen[f.name] {
			t.Errorf("form %s registered twice", f.name)
		}
		seen[f.name] = true
		if _, ok := all[f.name]; ok {
			t.Errorf("form %s collides with a zygomys builtin", f.name)
		}
		if builtin, kind := env.IsBuiltinSym(env.MakeSymbol(f.name)); builtin {
			t.Errorf("form %s collides with a zygomys %s", f.name, kind)
		}
		if _, ok := env.FindObject(f.name); ok {
			t.Errorf("form %s is already bound in a fresh sandbox", f.name)
		}
	}
}

func TestUnknownKeywordsRejected(t *testing.T) {
	for _, src := range []string{
		`(tube :ring 4)`,
		growScript + `(trim-tips g :minimum 0.5)`,
		`(scalp-sphere :raduis 2)`,
		`(vec3 1 2 3 :w 1)`,
		`(tube :rings 4 :rings 5)`,
		`(tube :rings)`,
	} {
		errs := mustFail(t, newTestEngine(), src)
		if !strings.Contains(errs[0].Message, "keyword") {
			t.Errorf("%q: error %q does not mention the keyword", src, errs[0].Message)
		}
	}
}

func TestKeywordSpellingsMatch(t *testing.T) {
	a := mustEval(t, newTestEngine(), growScript+"(trim-root g :shortest 0.5)")
	b := mustEval(t, newTestEngine(), growScript+"(trim_root g :shortest 0.5)")
	if a.Value != b.Value {
		t.Errorf("kebab and snake spellings differ: %q vs %q", a.Value, b.Value)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustEval(t *testing.T, eng *Engine, source string) *EvalResult {
	t.Helper()
	res, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	return res
}

func mustFail(t *testing.T, eng *Engine, source string) []EvalError {
	t.Helper()
	_, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatalf("expected eval error for %q", source)
	}
	return evalErrs
}

func groupMembers(t *testing.T, s *scene.Scene, name string) []kernel.CurveID {
	t.Helper()
	n := s.Lookup(name)
	if n == nil || n.Kind != scene.NodeGroup {
		t.Fatalf("group %q not found", name)
	}
	ids, err := s.Members(kernel.GroupID(n.ID))
	if err != nil {
		t.Fatal(err)
	}
	return ids
}

// snapshot maps every curve name to its world-space control vertices.
func snapshot(t *testing.T, s *scene.Scene) map[string][]v3.Vec {
	t.Helper()
	out := make(map[string][]v3.Vec)
	for _, c := range s.Curves() {
		n, err := s.CVCount(c)
		if err != nil {
			t.Fatal(err)
		}
		cvs := make([]v3.Vec, n)
		for i := range cvs {
			if cvs[i], err = s.CV(c, i); err != nil {
				t.Fatal(err)
			}
		}
		out[s.Name(string(c))] = cvs
	}
	return out
}

const growScript = `
(def m (tube :name "head" :rings 4 :segments 8))
(def g (grow m (border-loop m) :density 0.4 :layers 2))
`

// ---------------------------------------------------------------------------
// Inputs
// ---------------------------------------------------------------------------

func TestVec3(t *testing.T) {
	res := mustEval(t, newTestEngine(), "(vec3 1 2.5 -3)")
	if res.Value != "(vec3 1 2.5 -3)" {
		t.Errorf("Value = %q", res.Value)
	}
	mustFail(t, newTestEngine(), "(vec3 1 2)")
}

func TestTube(t *testing.T) {
	res := mustEval(t, newTestEngine(), "(tube :rings 3 :segments 6)")
	want := `(mesh "pCylinder1" :verts 18 :faces 12)`
	if res.Value != want {
		t.Errorf("Value = %q, want %q", res.Value, want)
	}
	mustFail(t, newTestEngine(), "(tube :rings 1)")
}

func TestBorderLoop(t *testing.T) {
	res := mustEval(t, newTestEngine(), "(border-loop (tube) :index 1)")
	if res.Value != "(loop :verts 8)" {
		t.Errorf("Value = %q", res.Value)
	}
	mustFail(t, newTestEngine(), "(border-loop (tube) :index 2)")
	mustFail(t, newTestEngine(), "(border-loop 3)")
}

func TestLoadOBJ(t *testing.T) {
	var b strings.Builder
	const segments = 6
	for r := 0; r < 3; r++ {
		for s := 0; s < segments; s++ {
			a := 2 * math.Pi * float64(s) / segments
			fmt.Fprintf(&b, "v %g %g %d\n", math.Cos(a), math.Sin(a), r)
		}
	}
	for r := 0; r < 2; r++ {
		for s := 0; s < segments; s++ {
			next := (s + 1) % segments
			fmt.Fprintf(&b, "f %d %d %d %d\n",
				r*segments+s+1, r*segments+next+1, (r+1)*segments+next+1, (r+1)*segments+s+1)
		}
	}
	path := filepath.Join(t.TempDir(), "scalp.obj")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	src := fmt.Sprintf("(def m (load-obj %q))\n(curve-count (center-curve m))", path)
	res := mustEval(t, newTestEngine(), src)
	if res.Value != "1" {
		t.Errorf("Value = %q, want 1", res.Value)
	}
	if res.Scene.Lookup("scalp_CenterCRV") == nil {
		t.Error("center curve not named after the mesh")
	}

	mustFail(t, newTestEngine(), `(load-obj "does/not/exist.obj")`)
}

// ---------------------------------------------------------------------------
// Growing
// ---------------------------------------------------------------------------

func TestGrowScript(t *testing.T) {
	res := mustEval(t, newTestEngine(), growScript+"(curve-count g)")

	ids := groupMembers(t, res.Scene, "head_hairCurves")
	if len(ids) == 0 {
		t.Fatal("no strands grown")
	}
	if res.Value != strconv.Itoa(len(ids)) {
		t.Errorf("curve-count = %s, want %d", res.Value, len(ids))
	}
	if got := len(res.Scene.Curves()); got != len(ids) {
		t.Errorf("scene holds %d curves, want only the %d strands", got, len(ids))
	}
	if res.Scene.Lookup("head_1CRV") == nil {
		t.Error("strands not renamed")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestGrowDefaultsToFirstBorder(t *testing.T) {
	res := mustEval(t, newTestEngine(), "(curve-count (grow (tube) :layers 1))")
	if n, err := strconv.Atoi(res.Value); err != nil || n == 0 {
		t.Errorf("curve-count = %q, want a positive count", res.Value)
	}
}

func TestGrowUsesSettings(t *testing.T) {
	st := DefaultSettings()
	st.Grow.Layers = 1
	one := mustEval(t, NewEngine(st, nil), "(curve-count (grow (tube)))")
	st.Grow.Layers = 3
	three := mustEval(t, NewEngine(st, nil), "(curve-count (grow (tube)))")

	a, _ := strconv.Atoi(one.Value)
	b, _ := strconv.Atoi(three.Value)
	if b <= a {
		t.Errorf("3 layers grew %d strands, 1 layer grew %d", b, a)
	}
}

func TestGrowNotBorderLoopWarns(t *testing.T) {
	res := mustEval(t, newTestEngine(), "(grow (tube) [8 9 10 11 12 13 14 15])")
	if len(res.Warnings) == 0 {
		t.Fatal("expected a warning")
	}
	w := res.Warnings[0]
	if w.Form != "grow" || !strings.Contains(w.Message, "not a border loop") {
		t.Errorf("warning = %+v", w)
	}
	if n := len(res.Scene.Curves()); n != 0 {
		t.Errorf("%d curves left behind", n)
	}
}

func TestGrowErrors(t *testing.T) {
	for _, src := range []string{
		"(grow (tube) :density 0)",
		"(grow (tube) :layers 0)",
		"(grow 1)",
		"(grow)",
	} {
		t.Run(src, func(t *testing.T) {
			errs := mustFail(t, newTestEngine(), src)
			if errs[0].Message == "" {
				t.Error("eval error should have a non-empty message")
			}
		})
	}
}

func TestCenterCurve(t *testing.T) {
	res := mustEval(t, newTestEngine(), "(def m (tube :height 3))\n(center-curve m (border-loop m))")
	n := res.Scene.Lookup("pCylinder1_CenterCRV")
	if n == nil {
		t.Fatal("center curve missing")
	}
	p, err := res.Scene.PointAt(kernel.CurveID(n.ID), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Hypot(p.X, p.Y) > 1e-6 {
		t.Errorf("center curve off axis at %v", p)
	}
}

// ---------------------------------------------------------------------------
// Grooming
// ---------------------------------------------------------------------------

func TestRandomizeDeterministicWithSeed(t *testing.T) {
	src := growScript + `
(randomize g :profile [0.1 0.4 0.6])
(trim-tips g :min 0.5 :percent 0.5)
`
	a := mustEval(t, newTestEngine(), src)
	b := mustEval(t, newTestEngine(), src)
	if diff := cmp.Diff(snapshot(t, a.Scene), snapshot(t, b.Scene)); diff != "" {
		t.Errorf("same seed produced different curves (-a +b):\n%s", diff)
	}

	st := DefaultSettings()
	st.Seed = 8
	c := mustEval(t, NewEngine(st, nil), src)
	if cmp.Equal(snapshot(t, a.Scene), snapshot(t, c.Scene)) {
		t.Error("different seeds produced identical curves")
	}
}

func TestRandomizeBadProfile(t *testing.T) {
	mustFail(t, newTestEngine(), growScript+"(randomize g :profile [0.1])")
	mustFail(t, newTestEngine(), "(randomize 5)")
}

func TestTrimScript(t *testing.T) {
	res := mustEval(t, newTestEngine(), growScript+"(trim-tips g :min 0.5 :percent 1)")
	ids := groupMembers(t, res.Scene, "head_hairCurves")
	if res.Value != strconv.Itoa(len(ids)) {
		t.Errorf("trimmed %s curves, want all %d", res.Value, len(ids))
	}
	if got := len(res.Scene.Curves()); got != len(ids) {
		t.Errorf("cut tips left behind: %d curves, want %d", got, len(ids))
	}
	mustFail(t, newTestEngine(), growScript+"(trim-tips g :min 0)")
}

func TestTrimRootScript(t *testing.T) {
	res := mustEval(t, newTestEngine(), growScript+"(trim-root g :shortest 0.5)")
	ids := groupMembers(t, res.Scene, "head_hairCurves")
	if res.Value != strconv.Itoa(len(ids)) {
		t.Errorf("trim-root = %s, want %d", res.Value, len(ids))
	}
	for _, c := range ids {
		if n, _ := res.Scene.CVCount(c); n != 13 {
			t.Errorf("curve has %d CVs after trim-root, want 13", n)
		}
	}
}

func TestInterpolateBatchScript(t *testing.T) {
	res := mustEval(t, newTestEngine(), growScript+"(curve-count (interpolate-batch g :count 4))")
	if res.Value != "4" {
		t.Errorf("curve-count = %s, want 4", res.Value)
	}
	grown := groupMembers(t, res.Scene, "head_hairCurves")
	if got := len(res.Scene.Curves()); got != len(grown)+4 {
		t.Errorf("scene holds %d curves, want %d", got, len(grown)+4)
	}
}

func TestInterpolateBatchNeedsTwoCurves(t *testing.T) {
	res := mustEval(t, newTestEngine(), "(interpolate-batch (center-curve (tube)) :count 2)")
	if res.Value != "nil" {
		t.Errorf("Value = %q, want nil", res.Value)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Form != "interpolate_batch" {
		t.Errorf("warnings = %+v, want one from interpolate_batch", res.Warnings)
	}
	if got := len(res.Scene.Curves()); got != 1 {
		t.Errorf("scene holds %d curves, want only the center curve", got)
	}
}

func TestAverageCVsScript(t *testing.T) {
	res := mustEval(t, newTestEngine(), growScript+"(average-cvs g :amount 1)")
	if res.Value != `(group "head_hairCurves")` {
		t.Errorf("Value = %q", res.Value)
	}
	mustFail(t, newTestEngine(), growScript+"(average-cvs g :indices [0])")
}

// ---------------------------------------------------------------------------
// Scalps
// ---------------------------------------------------------------------------

func TestSnapBaseToSphere(t *testing.T) {
	res := mustEval(t, newTestEngine(), growScript+
		"(snap-base g (scalp-sphere :radius 0.5 :center (vec3 0 0 0)))")
	for _, c := range groupMembers(t, res.Scene, "head_hairCurves") {
		root, err := res.Scene.CV(c, 0)
		if err != nil {
			t.Fatal(err)
		}
		if d := root.Length(); math.Abs(d-0.5) > 1e-3 {
			t.Errorf("root %v is %g from the center, want 0.5", root, d)
		}
	}
}

func TestPushOutToSphere(t *testing.T) {
	res := mustEval(t, newTestEngine(), growScript+
		"(push-out g (scalp-sphere :radius 5) :mult 1)")
	for _, cvs := range snapshot(t, res.Scene) {
		for _, p := range cvs {
			if d := p.Length(); math.Abs(d-5) > 1e-3 {
				t.Errorf("cv %v is %g from the center, want 5", p, d)
			}
		}
	}
}

func TestScalpMesh(t *testing.T) {
	res := mustEval(t, newTestEngine(), "(scalp-mesh (tube))")
	if res.Value != "(scalp :mesh)" {
		t.Errorf("Value = %q", res.Value)
	}
	mustFail(t, newTestEngine(), growScript+"(snap-base g 1)")
	mustFail(t, newTestEngine(), "(scalp-sphere :radius -1)")
}

func TestScalpFieldForms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"box", "(scalp-box :size (vec3 2 2 2))", "(scalp :box)"},
		{"cylinder", "(scalp-cylinder :height 4 :radius 0.5 :center (vec3 0 0 1))", "(scalp :cylinder)"},
		{"rotate keeps kind", "(scalp-rotate (scalp-cylinder) (vec3 90 0 0))", "(scalp :cylinder)"},
		{"union", "(scalp-union (scalp-sphere) (scalp-box :center (vec3 0 0 1)))", "(scalp :union)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustEval(t, newTestEngine(), tt.source)
			if res.Value != tt.want {
				t.Errorf("Value = %q, want %q", res.Value, tt.want)
			}
		})
	}
}

func TestScalpToMesh(t *testing.T) {
	res := mustEval(t, newTestEngine(), `(scalp-to-mesh (scalp-sphere) :name "ball" :cells 12)`)
	if !strings.HasPrefix(res.Value, `(mesh "ball" :verts `) {
		t.Errorf("Value = %q", res.Value)
	}
	res = mustEval(t, newTestEngine(), growScript+
		"(snap-base g (scalp-mesh (scalp-to-mesh (scalp-sphere :radius 0.5) :cells 16)))")
	if res.Value != `(group "head_hairCurves")` {
		t.Errorf("Value = %q", res.Value)
	}
}

func TestScalpFieldFormErrors(t *testing.T) {
	for _, src := range []string{
		"(scalp-union (scalp-sphere))",
		"(scalp-union (scalp-sphere) (scalp-mesh (tube)))",
		"(scalp-rotate (scalp-mesh (tube)) (vec3 0 0 1))",
		"(scalp-rotate (scalp-box))",
		"(scalp-to-mesh (scalp-sphere) :cells 1)",
		"(scalp-cylinder :radius -1)",
	} {
		mustFail(t, newTestEngine(), src)
	}
}

// ---------------------------------------------------------------------------
// Plain Lisp
// ---------------------------------------------------------------------------

func TestArithmeticStillWorks(t *testing.T) {
	res := mustEval(t, newTestEngine(), "(def x (* 6 7))\nx")
	if res.Value != "42" {
		t.Errorf("Value = %q, want 42", res.Value)
	}
}

func TestCommentsAreIgnored(t *testing.T) {
	src := "; grow a patch\n(curve-count (grow (tube) :layers 1)) ;; trailing"
	mustEval(t, newTestEngine(), src)
}
