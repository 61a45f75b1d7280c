// Package gfx defines the pluggable graphics backend contract for the
// presentation pipeline: the Backend/Display interfaces, the capability
// model, scaling layout math shared by all backends, and a Registry
// that owns backend selection and lifecycle.
//
// A Backend is a factory for a Display bound to one frame geometry.
// Mandatory operations (Present, Close) are on the Display interface
// itself; optional operations are separate single-method interfaces
// asserted at runtime:
//
//	if sc, ok := display.(gfx.ScalingControl); ok {
//	    sc.SetScaling(gfx.ScaleAspect)
//	}
//
// Callers degrade gracefully when an assertion fails; a backend that
// cannot scale is still a usable backend.
package gfx
