package gfx

import (
	"fmt"

	"github.com/e7canasta/videopipe/pixel"
)

// Capability is a bitset advertising what a backend can do. Callers
// must treat every bit as advisory and handle its absence.
type Capability uint32

const (
	// CapVSync means presentation can synchronize to display refresh.
	CapVSync Capability = 1 << iota
	// CapTripleBuffer means the backend can page-flip between three
	// buffers.
	CapTripleBuffer
	// CapHardwareAccel means scaling and composition run on the GPU.
	CapHardwareAccel
	// CapShaders means the backend accepts shader effects.
	CapShaders
	// CapRotation means the backend can rotate output.
	CapRotation
	// CapOverlay means the backend can composite overlay surfaces.
	CapOverlay
)

// Has reports whether every bit of flag is set.
func (c Capability) Has(flag Capability) bool {
	return c&flag == flag
}

// ScalingMode selects how a source frame is laid out on the display.
type ScalingMode int

const (
	// ScaleNearest centers the frame unscaled.
	ScaleNearest ScalingMode = iota
	// ScaleLinear is like ScaleNearest but requests smooth filtering
	// from backends that can filter.
	ScaleLinear
	// ScaleInteger scales by the largest whole factor that fits.
	ScaleInteger
	// ScaleAspect fills the display while preserving aspect ratio.
	ScaleAspect
	// ScaleFullscreen stretches to fill the display exactly.
	ScaleFullscreen
)

func (m ScalingMode) String() string {
	switch m {
	case ScaleNearest:
		return "nearest"
	case ScaleLinear:
		return "linear"
	case ScaleInteger:
		return "integer"
	case ScaleAspect:
		return "aspect"
	case ScaleFullscreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("scaling(%d)", int(m))
	}
}

// ParseScalingMode maps a resolved configuration value to a mode.
func ParseScalingMode(s string) (ScalingMode, error) {
	switch s {
	case "nearest":
		return ScaleNearest, nil
	case "linear":
		return ScaleLinear, nil
	case "integer":
		return ScaleInteger, nil
	case "aspect":
		return ScaleAspect, nil
	case "fullscreen":
		return ScaleFullscreen, nil
	default:
		return ScaleNearest, fmt.Errorf("gfx: unknown scaling mode %q", s)
	}
}

// Backend creates displays for a given output device or toolkit.
// Implementations must be safe to register before any display exists.
type Backend interface {
	// Name identifies the backend for registry lookup.
	Name() string

	// Capabilities advertises optional features. The corresponding
	// optional interfaces may still be absent on the Display.
	Capabilities() Capability

	// Init opens the device and prepares presentation of frames with
	// the given geometry. On error no resources remain held.
	Init(width, height int, format pixel.Format) (Display, error)
}

// Display is an initialized presentation surface.
type Display interface {
	// Present shows one frame. buf holds height rows of pitch bytes.
	Present(buf []byte, width, height, pitch int) error

	// Close releases the device. Tolerant of partial initialization.
	Close() error
}

// ScalingControl is implemented by displays that can change the
// scaling mode after Init.
type ScalingControl interface {
	SetScaling(mode ScalingMode) error
}

// VSyncControl is implemented by displays that can toggle refresh
// synchronization.
type VSyncControl interface {
	SetVSync(enabled bool) error
	SupportsVSync() bool
}

// Clearer is implemented by displays that can blank themselves,
// including every back buffer.
type Clearer interface {
	Clear() error
}

// FramebufferAccess is implemented by displays that expose their
// current back buffer for direct pixel writes. The bool reports
// whether direct access is actually available.
type FramebufferAccess interface {
	Framebuffer() (buf []byte, pitch int, ok bool)
}

// Rotator is implemented by displays that can rotate output in 90
// degree steps.
type Rotator interface {
	SetRotation(degrees int) error
}
