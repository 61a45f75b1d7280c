// Package pixel provides pixel format descriptions shared by the frame
// queue and the graphics backends.
//
// Formats are raw framebuffer layouts, not color spaces: the pipeline
// never converts between them, it only needs to know how many bytes a
// pixel and a scanline occupy.
package pixel

import "fmt"

// Format identifies a raw pixel memory layout.
type Format int

const (
	// RGB565 is 16-bit with red in the top 5 bits.
	RGB565 Format = iota
	// BGR565 is the byte-swapped 16-bit layout some panels use.
	BGR565
	// XRGB8888 is 32-bit with an unused high byte.
	XRGB8888
	// ARGB8888 is 32-bit with an alpha high byte.
	ARGB8888
)

// BytesPerPixel returns the storage size of one pixel, or 0 for an
// unknown format.
func (f Format) BytesPerPixel() int {
	switch f {
	case RGB565, BGR565:
		return 2
	case XRGB8888, ARGB8888:
		return 4
	default:
		return 0
	}
}

// Pitch returns the number of bytes in one scanline of the given width.
func (f Format) Pitch(width int) int {
	return width * f.BytesPerPixel()
}

// String returns the conventional name of the format.
func (f Format) String() string {
	switch f {
	case RGB565:
		return "rgb565"
	case BGR565:
		return "bgr565"
	case XRGB8888:
		return "xrgb8888"
	case ARGB8888:
		return "argb8888"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat resolves a configuration value (e.g. "rgb565") to a
// Format. This is the boundary to the configuration collaborator, which
// hands the pipeline resolved string values only.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "rgb565":
		return RGB565, nil
	case "bgr565":
		return BGR565, nil
	case "xrgb8888":
		return XRGB8888, nil
	case "argb8888":
		return ARGB8888, nil
	default:
		return 0, fmt.Errorf("pixel: unknown format %q", s)
	}
}
