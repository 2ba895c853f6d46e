package engine

import (
	"errors"

	"github.com/dbokser/hairball/pkg/groom"
	"github.com/dbokser/hairball/pkg/hair"
	"github.com/dbokser/hairball/pkg/kernel"
	"github.com/dbokser/hairball/pkg/loop"
	"github.com/dbokser/hairball/pkg/scene"
	"go.uber.org/zap"
)

// session is the state of one evaluation: a private scene, the operators
// acting on it and the warnings they raised.
type session struct {
	settings Settings
	log      *zap.Logger

	scene   *scene.Scene
	grower  *hair.Grower
	groomer *groom.Groomer

	form     string // builtin currently running
	warnings []EvalWarning
}

var _ kernel.Reporter = (*session)(nil)

func newSession(st Settings, log *zap.Logger) *session {
	s := &session{settings: st, log: log, scene: scene.New()}
	s.grower = hair.NewGrower(s.scene, s)
	s.groomer = groom.New(s.scene, groom.NewRand(st.Seed), s)
	return s
}

// Warn records a warning against the running builtin.
func (s *session) Warn(msg string) {
	s.log.Warn(msg, zap.String("form", s.form))
	s.warnings = append(s.warnings, EvalWarning{Form: s.form, Message: msg})
}

func (s *session) result(value string) *EvalResult {
	return &EvalResult{Scene: s.scene, Warnings: s.warnings, Value: value}
}

// precondition reports whether err is a precondition failure that has
// already been surfaced as a warning.
func precondition(err error) bool {
	return errors.Is(err, loop.ErrNotCycle) ||
		errors.Is(err, loop.ErrNotBorderLoop) ||
		errors.Is(err, loop.ErrUnevenTopology) ||
		errors.Is(err, hair.ErrNoStrands) ||
		errors.Is(err, hair.ErrCVMismatch) ||
		errors.Is(err, groom.ErrNotEnoughCurves)
}
