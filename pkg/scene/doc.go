// Package scene is an in-memory scene graph of curves and groups. It
// implements kernel.CurveKernel on top of package spline so the hair core
// can run without a host 3D application.
package scene
