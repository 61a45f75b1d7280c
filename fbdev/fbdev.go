//go:build linux

package fbdev

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/e7canasta/videopipe/gfx"
	"github.com/e7canasta/videopipe/pixel"
)

// DefaultDevice is the primary framebuffer node.
const DefaultDevice = "/dev/fb0"

// vsyncFallback approximates one 60 Hz refresh period when the driver
// does not implement the vsync ioctl.
const vsyncFallback = 16666 * time.Microsecond

// Backend presents frames directly on a Linux framebuffer device.
// It registers under the name "fbdev".
type Backend struct {
	device string
	log    *slog.Logger
}

// New creates a framebuffer backend for the given device node. An
// empty device selects DefaultDevice, a nil logger slog.Default().
func New(device string, log *slog.Logger) *Backend {
	if device == "" {
		device = DefaultDevice
	}
	if log == nil {
		log = slog.Default()
	}
	return &Backend{device: device, log: log}
}

func (b *Backend) Name() string { return "fbdev" }

func (b *Backend) Capabilities() gfx.Capability {
	return gfx.CapTripleBuffer
}

// Init opens and maps the device. Frames of width x height in the
// given format will be presented; their pixel size must match the
// panel depth, the blitters copy raw pixels without conversion.
func (b *Backend) Init(width, height int, format pixel.Format) (gfx.Display, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("fbdev: invalid source dimensions %dx%d", width, height)
	}

	fd, err := unix.Open(b.device, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("fbdev: open %s: %w", b.device, err)
	}

	var vinfo varScreenInfo
	if err := getVarScreenInfo(fd, &vinfo); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("fbdev: FBIOGET_VSCREENINFO: %w", err)
	}
	var finfo fixScreenInfo
	if err := getFixScreenInfo(fd, &finfo); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("fbdev: FBIOGET_FSCREENINFO: %w", err)
	}

	panelFormat, known := formatFromBits(int(vinfo.BitsPerPixel), int(vinfo.Red.Offset))
	if !known {
		b.log.Warn("fbdev: unsupported depth, assuming rgb565",
			"bpp", vinfo.BitsPerPixel, "device", b.device)
	}
	if panelFormat.BytesPerPixel() != format.BytesPerPixel() {
		unix.Close(fd)
		return nil, fmt.Errorf("fbdev: frame format %s does not fit %d bpp panel",
			format, vinfo.BitsPerPixel)
	}
	if panelFormat != format {
		b.log.Warn("fbdev: panel channel order differs from frame format",
			"frame", format.String(), "panel", panelFormat.String())
	}

	buffers := bufferCount(int(vinfo.YRes), int(vinfo.YResVirtual))

	mem, err := unix.Mmap(fd, 0, int(finfo.SmemLen),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("fbdev: mmap %d bytes: %w", finfo.SmemLen, err)
	}

	d := &display{
		log:     b.log,
		fd:      fd,
		mem:     mem,
		vinfo:   vinfo,
		width:   int(vinfo.XRes),
		height:  int(vinfo.YRes),
		pitch:   int(finfo.LineLength),
		bpp:     panelFormat.BytesPerPixel(),
		format:  panelFormat,
		buffers: buffers,
		scaling: gfx.ScaleFullscreen,
		vsync:   true,
	}
	d.scratch = make([]byte, d.pitch*d.height)

	// Start on a known-black buffer 0.
	if err := d.Clear(); err != nil {
		d.Close()
		return nil, fmt.Errorf("fbdev: initial clear: %w", err)
	}

	b.log.Info("fbdev: display initialized",
		"device", b.device,
		"panel", fmt.Sprintf("%dx%d", d.width, d.height),
		"format", panelFormat.String(),
		"pitch", d.pitch,
		"buffers", buffers)
	return d, nil
}

// display is one mapped framebuffer. It is driven by a single
// presentation goroutine.
type display struct {
	log *slog.Logger

	fd  int
	mem []byte

	vinfo  varScreenInfo
	width  int
	height int
	pitch  int
	bpp    int
	format pixel.Format

	buffers int
	current int
	scratch []byte

	scaling gfx.ScalingMode
	vsync   bool

	probeOnce  sync.Once
	vsyncWorks bool
}

// buffer returns the mapped region of buffer i, clipped to the mapping.
func (d *display) buffer(i int) []byte {
	off := i * d.height * d.pitch
	end := off + d.height*d.pitch
	if end > len(d.mem) {
		end = len(d.mem)
	}
	if off >= end {
		return nil
	}
	return d.mem[off:end]
}

func (d *display) Present(buf []byte, width, height, pitch int) error {
	if d.mem == nil {
		return fmt.Errorf("fbdev: present on closed display")
	}
	if width <= 0 || height <= 0 || len(buf) < pitch*height {
		return fmt.Errorf("fbdev: short frame buffer (%d bytes for %dx%d pitch %d)",
			len(buf), width, height, pitch)
	}

	target := d.current
	if d.buffers > 1 {
		target = (d.current + 1) % d.buffers
	}
	back := d.buffer(target)
	if back == nil {
		return fmt.Errorf("fbdev: buffer %d outside mapping", target)
	}

	r := gfx.DestRect(d.scaling, width, height, d.width, d.height)
	if r.W == width && r.H == height {
		dst := surface{buf: back, width: d.width, height: d.height, pitch: d.pitch, bpp: d.bpp}
		blitDirect(dst, r, buf, width, height, pitch)
	} else {
		// Scale into the scratch frame first, then copy rows into
		// the mapped buffer in order. Letterbox borders stay black
		// because scratch is only ever written inside the rect.
		dst := surface{buf: d.scratch, width: d.width, height: d.height, pitch: d.pitch, bpp: d.bpp}
		blitNearest(dst, r, buf, width, height, pitch)
		copy(back, d.scratch)
	}

	return d.flip(target)
}

// flip makes buffer target visible and waits for vblank when enabled.
func (d *display) flip(target int) error {
	if d.buffers > 1 {
		d.vinfo.YOffset = uint32(target * d.height)
		d.vinfo.XOffset = 0
		if err := panDisplay(d.fd, &d.vinfo); err != nil {
			return fmt.Errorf("fbdev: FBIOPAN_DISPLAY: %w", err)
		}
		d.current = target
	}
	if d.vsync {
		d.waitVBlank()
	}
	return nil
}

// waitVBlank blocks until the next vertical blank, or sleeps one
// refresh period when the driver has no vsync ioctl.
func (d *display) waitVBlank() {
	if err := waitForVSync(d.fd); err != nil {
		time.Sleep(vsyncFallback)
	}
}

// SetScaling changes the layout for subsequent Present calls.
func (d *display) SetScaling(mode gfx.ScalingMode) error {
	d.scaling = mode
	return nil
}

// SetVSync toggles blocking on vertical blank after each flip.
func (d *display) SetVSync(enabled bool) error {
	d.vsync = enabled
	return nil
}

// SupportsVSync probes the vsync ioctl once and caches the answer.
func (d *display) SupportsVSync() bool {
	d.probeOnce.Do(func() {
		d.vsyncWorks = waitForVSync(d.fd) == nil
	})
	return d.vsyncWorks
}

// Clear blanks every buffer, then flips once so the visible buffer is
// black even on single-buffered panels.
func (d *display) Clear() error {
	if d.mem == nil {
		return fmt.Errorf("fbdev: clear on closed display")
	}
	for i := range d.mem {
		d.mem[i] = 0
	}
	for i := range d.scratch {
		d.scratch[i] = 0
	}
	return d.flip(0)
}

// Framebuffer exposes the back buffer for direct writes.
func (d *display) Framebuffer() ([]byte, int, bool) {
	if d.mem == nil {
		return nil, 0, false
	}
	target := d.current
	if d.buffers > 1 {
		target = (d.current + 1) % d.buffers
	}
	buf := d.buffer(target)
	return buf, d.pitch, buf != nil
}

// Close unmaps and closes the device. Safe after a partial Init and
// when called twice.
func (d *display) Close() error {
	var first error
	if d.mem != nil {
		if err := unix.Munmap(d.mem); err != nil && first == nil {
			first = fmt.Errorf("fbdev: munmap: %w", err)
		}
		d.mem = nil
	}
	if d.fd >= 0 {
		if err := unix.Close(d.fd); err != nil && first == nil {
			first = fmt.Errorf("fbdev: close: %w", err)
		}
		d.fd = -1
	}
	d.scratch = nil
	return first
}
