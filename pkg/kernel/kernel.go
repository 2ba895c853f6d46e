// Package kernel defines the capability interfaces the hair core needs from
// a host 3D application: mesh adjacency queries, curve construction and
// editing, closest-point queries against a scalp surface, and user-visible
// warnings. Implementations (the in-memory scene, an SDF scalp, a host
// adapter) live behind these interfaces so the core never addresses
// geometry by name.
package kernel

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CurveID is an opaque handle to a curve owned by a CurveKernel.
type CurveID string

// GroupID is an opaque handle to a group node owned by a CurveKernel.
type GroupID string

// CurveKernel is the curve construction and editing surface of the host.
// Parameters are normalized: every curve's domain is [0, 1].
type CurveKernel interface {
	// Construction
	BuildCurve(points []v3.Vec, degree int, closed bool) (CurveID, error)
	Rebuild(c CurveID, spans, degree int) error
	Close(c CurveID) error
	Duplicate(c CurveID) (CurveID, error)

	// Queries
	ArcLength(c CurveID) (float64, error)
	PointAt(c CurveID, u float64) (v3.Vec, error)
	CVCount(c CurveID) (int, error)
	Spans(c CurveID) (int, error)
	Degree(c CurveID) (int, error)
	CV(c CurveID, i int) (v3.Vec, error)

	// Edits
	SetCV(c CurveID, i int, p v3.Vec) error
	CenterPivot(c CurveID) error
	ScaleAboutPivot(c CurveID, factor float64) error // absolute, 1 = original size
	Detach(c CurveID, u float64) (keep, discard CurveID, err error)

	// Scene
	Delete(curves ...CurveID)
	Rename(c CurveID, name string) error
	Group(name string, curves ...CurveID) (GroupID, error)
}

// Scalp answers closest-point queries against a surface.
type Scalp interface {
	ClosestPoint(p v3.Vec) v3.Vec
}

// Reporter receives non-fatal, user-visible notices.
type Reporter interface {
	Warn(msg string)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(msg string)

// Warn calls f(msg).
func (f ReporterFunc) Warn(msg string) { f(msg) }

// Discard is a Reporter that drops every message.
var Discard Reporter = ReporterFunc(func(string) {})
