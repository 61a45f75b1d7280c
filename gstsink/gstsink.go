// Package gstsink implements a gfx.Backend on a GStreamer pipeline:
// appsrc → videoconvert → videoscale → autovideosink. It is the
// software presentation path for targets with a display server or a
// GStreamer video sink, and leaves format conversion and windowing to
// the pipeline.
package gstsink

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/videopipe/gfx"
	"github.com/e7canasta/videopipe/pixel"
)

// Backend presents frames through GStreamer. It registers under the
// name "gstsink".
type Backend struct {
	log *slog.Logger
}

// New creates a GStreamer backend. A nil logger falls back to
// slog.Default().
func New(log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{log: log}
}

func (b *Backend) Name() string { return "gstsink" }

func (b *Backend) Capabilities() gfx.Capability {
	return gfx.CapVSync
}

// Init builds and starts the pipeline for frames of the given
// geometry. The pipeline stays in PLAYING state until Close.
func (b *Backend) Init(width, height int, format pixel.Format) (gfx.Display, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gstsink: invalid source dimensions %dx%d", width, height)
	}
	capsStr, err := buildCaps(format, width, height)
	if err != nil {
		return nil, err
	}

	// Safe to call multiple times.
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("gstsink: failed to create pipeline: %w", err)
	}
	// Unwind the pipeline on any failure below so a half-built
	// session holds no GStreamer resources.
	fail := func(err error) (gfx.Display, error) {
		pipeline.SetState(gst.StateNull)
		return nil, err
	}

	src, err := app.NewAppSrc()
	if err != nil {
		return fail(fmt.Errorf("gstsink: failed to create appsrc: %w", err))
	}
	src.SetProperty("caps", gst.NewCapsFromString(capsStr))
	src.SetProperty("is-live", true)
	src.SetProperty("do-timestamp", true)
	src.SetProperty("block", false)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return fail(fmt.Errorf("gstsink: failed to create videoconvert: %w", err))
	}

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return fail(fmt.Errorf("gstsink: failed to create videoscale: %w", err))
	}
	// Nearest-neighbor keeps pixel-art frames crisp; borders preserve
	// aspect ratio until a fullscreen scaling mode is selected.
	scaler.SetProperty("method", 0)
	scaler.SetProperty("add-borders", true)

	sink, err := gst.NewElement("autovideosink")
	if err != nil {
		return fail(fmt.Errorf("gstsink: failed to create autovideosink: %w", err))
	}
	sink.SetProperty("sync", true)

	pipeline.AddMany(src.Element, converter, scaler, sink)
	if err := gst.ElementLinkMany(src.Element, converter, scaler, sink); err != nil {
		return fail(fmt.Errorf("gstsink: failed to link pipeline elements: %w", err))
	}

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return fail(fmt.Errorf("gstsink: failed to start pipeline: %w", err))
	}

	b.log.Info("gstsink: pipeline playing",
		"caps", capsStr, "width", width, "height", height)

	return &display{
		log:      b.log,
		pipeline: pipeline,
		src:      src,
		scaler:   scaler,
		sink:     sink,
		frameLen: format.Pitch(width) * height,
	}, nil
}

type display struct {
	log      *slog.Logger
	pipeline *gst.Pipeline
	src      *app.Source
	scaler   *gst.Element
	sink     *gst.Element
	frameLen int
}

// Present pushes one frame into the pipeline. The buffer is copied;
// the caller may reuse buf immediately.
func (d *display) Present(buf []byte, width, height, pitch int) error {
	if len(buf) < pitch*height {
		return fmt.Errorf("gstsink: short frame buffer (%d bytes for %dx%d pitch %d)",
			len(buf), width, height, pitch)
	}
	buffer := gst.NewBufferFromBytes(buf[:pitch*height])
	if ret := d.src.PushBuffer(buffer); ret != gst.FlowOK {
		return fmt.Errorf("gstsink: push buffer: flow %v", ret)
	}
	return nil
}

// SetScaling maps the layout mode onto videoscale. Fullscreen drops
// the letterbox borders so the sink stretches; every other mode keeps
// them and lets the sink preserve aspect ratio.
func (d *display) SetScaling(mode gfx.ScalingMode) error {
	d.scaler.SetProperty("add-borders", mode != gfx.ScaleFullscreen)
	method := 0 // nearest
	if mode == gfx.ScaleLinear {
		method = 1 // bilinear
	}
	d.scaler.SetProperty("method", method)
	return nil
}

// SetVSync toggles sink clock synchronization.
func (d *display) SetVSync(enabled bool) error {
	d.sink.SetProperty("sync", enabled)
	return nil
}

func (d *display) SupportsVSync() bool { return true }

// Clear pushes one black frame.
func (d *display) Clear() error {
	black := make([]byte, d.frameLen)
	if ret := d.src.PushBuffer(gst.NewBufferFromBytes(black)); ret != gst.FlowOK {
		return fmt.Errorf("gstsink: push clear frame: flow %v", ret)
	}
	return nil
}

// Close stops the pipeline and releases its resources. Safe to call
// twice.
func (d *display) Close() error {
	if d.pipeline == nil {
		return nil
	}
	if err := d.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("gstsink: failed to stop pipeline: %w", err)
	}
	d.pipeline = nil
	return nil
}
