package main

import (
	"cmp"
	"context"
	"slices"

	"github.com/dbokser/hairball/internal/config"
	"github.com/dbokser/hairball/pkg/engine"
	"github.com/dbokser/hairball/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/zap"
)

// samplesPerSpan is how densely curves are sampled for display.
const samplesPerSpan = 8

// App is the evaluation facade shared by the CLI commands.
type App struct {
	engine *engine.Engine
	log    *zap.Logger
}

// CurveData is the JSON-serializable curve format.
type CurveData struct {
	Name   string       `json:"name"`
	Group  string       `json:"group,omitempty"`
	Degree int          `json:"degree"`
	Closed bool         `json:"closed"`
	Length float64      `json:"length"`
	CVs    [][3]float64 `json:"cvs"`
	Points [][3]float64 `json:"points"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalWarningData is a JSON-serializable operator warning.
type EvalWarningData struct {
	Form    string `json:"form,omitempty"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a script.
type EvalResult struct {
	Curves   []CurveData       `json:"curves"`
	Errors   []EvalErrorData   `json:"errors"`
	Warnings []EvalWarningData `json:"warnings"`
	Value    string            `json:"value,omitempty"`
}

// NewApp creates a new App whose engine falls back to cfg's parameters.
func NewApp(cfg *config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		engine: engine.NewEngine(cfg.EngineSettings(), log.Named("engine")),
		log:    log,
	}
}

// Evaluate takes groom script source and returns curve data + errors.
func (a *App) Evaluate(source string) EvalResult {
	return a.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate bounded by ctx.
func (a *App) EvaluateContext(ctx context.Context, source string) EvalResult {
	result := EvalResult{
		Curves:   []CurveData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalWarningData{},
	}

	// Step 1: Evaluate the script into a scene.
	res, evalErrs, err := a.engine.EvaluateContext(ctx, source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error("evaluate failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the output format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalWarningData{Form: w.Form, Message: w.Message})
	}
	result.Value = res.Value

	// Step 3: Sample every curve left in the scene.
	curves, err := curveData(res.Scene)
	if err != nil {
		a.log.Error("sampling curves failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: "sampling failed: " + err.Error()})
		return result
	}
	result.Curves = curves
	return result
}

// curveData converts the curves of s into their JSON form, sorted by name.
func curveData(s *scene.Scene) ([]CurveData, error) {
	out := make([]CurveData, 0, len(s.Curves()))
	for _, id := range s.Curves() {
		c, err := s.WorldCurve(id)
		if err != nil {
			return nil, err
		}
		cd := CurveData{
			Name:   s.Name(string(id)),
			Degree: c.Degree,
			Closed: c.Periodic,
			Length: c.ArcLength(),
			CVs:    triples(c.CVs),
			Points: triples(c.Sample(samplesPerSpan * c.Spans())),
		}
		if n := s.Get(string(id)); n != nil && n.Parent != "" {
			cd.Group = s.Name(n.Parent)
		}
		out = append(out, cd)
	}
	slices.SortFunc(out, func(a, b CurveData) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func triples(ps []v3.Vec) [][3]float64 {
	out := make([][3]float64, len(ps))
	for i, p := range ps {
		out[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return out
}
