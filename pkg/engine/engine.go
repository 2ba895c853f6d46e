// Package engine provides the groom script engine for Hairball.
// It wraps zygomys in a sandboxed environment and runs hair growing and
// grooming operations against a fresh in-memory scene.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dbokser/hairball/pkg/groom"
	"github.com/dbokser/hairball/pkg/hair"
	"github.com/dbokser/hairball/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a user-visible notice raised by a hair operation, such as
// a loop that is not on the mesh border.
type EvalWarning struct {
	Form    string // builtin that raised the warning
	Message string
}

// EvalResult bundles the output of a successful evaluation.
type EvalResult struct {
	Scene    *scene.Scene
	Warnings []EvalWarning
	Value    string // printed value of the last form
}

// Settings are the parameters scripts fall back to when a keyword is
// omitted.
type Settings struct {
	Grow             hair.GrowOptions
	MinTrimFraction  float64
	TrimPercent      float64
	Profile          []float64
	Falloffs         []float64
	PushMultiplier   float64
	ShortestRootTrim float64
	Seed             uint64 // 0 draws a fresh seed for every evaluation
	Timeout          time.Duration
}

// DefaultSettings returns the stock parameters.
func DefaultSettings() Settings {
	return Settings{
		Grow:             hair.GrowOptions{Density: 0.4, Layers: 5},
		MinTrimFraction:  0.3,
		TrimPercent:      0.5,
		Profile:          []float64{0.1, 0.4, 0.6},
		Falloffs:         append([]float64(nil), groom.DefaultFalloffs...),
		PushMultiplier:   1.5,
		ShortestRootTrim: 0.2,
		Timeout:          EvalTimeout,
	}
}

// Engine wraps the zygomys interpreter for groom scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and scene.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	settings Settings
	log      *zap.Logger
}

// NewEngine creates a new Engine. A nil logger disables logging.
func NewEngine(s Settings, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if s.Timeout <= 0 {
		s.Timeout = EvalTimeout
	}
	return &Engine{settings: s, log: log}
}

// Settings returns the engine's fallback parameters.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Evaluate runs a groom script and returns the scene it built.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*EvalResult, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate with cancellation. A cancelled ctx returns
// ctx.Err(); the interpreter goroutine finishes in the background and its
// result is dropped.
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*EvalResult, []EvalError, error) {
	gen := e.begin()
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(source)
		ch <- outcome{result: res, errors: evalErrs, err: err}
	}()

	return e.await(ctx, ch, gen)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*EvalResult, []EvalError, error) {
	start := time.Now()
	s := newSession(e.settings, e.log)

	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return s.result(""), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, s)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}

	val, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	var printed string
	if val != nil {
		printed = val.SexpString(nil)
	}
	e.log.Debug("script evaluated",
		zap.Int("nodes", s.scene.NodeCount()),
		zap.Int("warnings", len(s.warnings)),
		zap.Duration("elapsed", time.Since(start)))
	return s.result(printed), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
