package gstsink

import (
	"fmt"

	"github.com/e7canasta/videopipe/pixel"
)

// capsFormat maps a pixel format to the GStreamer video/x-raw format
// name for the same memory layout on little-endian targets.
func capsFormat(f pixel.Format) (string, error) {
	switch f {
	case pixel.RGB565:
		return "RGB16", nil
	case pixel.BGR565:
		return "BGR16", nil
	case pixel.XRGB8888:
		return "BGRx", nil
	case pixel.ARGB8888:
		return "BGRA", nil
	default:
		return "", fmt.Errorf("gstsink: no caps mapping for format %v", f)
	}
}

// buildCaps builds the appsrc caps string for raw frames of the given
// geometry. Framerate 0/1 marks a variable-rate live source; pacing
// comes from the producer, not the pipeline clock.
func buildCaps(format pixel.Format, width, height int) (string, error) {
	name, err := capsFormat(format)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"video/x-raw,format=%s,width=%d,height=%d,framerate=0/1",
		name, width, height,
	), nil
}
