package presenter_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/e7canasta/videopipe/framequeue"
	"github.com/e7canasta/videopipe/gfx"
	"github.com/e7canasta/videopipe/pixel"
	"github.com/e7canasta/videopipe/presenter"
)

// memBackend is an in-memory display that records presents.
type memBackend struct {
	name    string
	initErr error

	mu        sync.Mutex
	presents  int
	lastPixel byte
	scaling   gfx.ScalingMode
	vsync     bool
	closed    bool

	presentErr error
}

type memDisplay struct{ b *memBackend }

func (b *memBackend) Name() string                 { return b.name }
func (b *memBackend) Capabilities() gfx.Capability { return gfx.CapVSync }

func (b *memBackend) Init(width, height int, format pixel.Format) (gfx.Display, error) {
	if b.initErr != nil {
		return nil, b.initErr
	}
	return &memDisplay{b: b}, nil
}

func (d *memDisplay) Present(buf []byte, width, height, pitch int) error {
	d.b.mu.Lock()
	defer d.b.mu.Unlock()
	if d.b.presentErr != nil {
		return d.b.presentErr
	}
	d.b.presents++
	if len(buf) > 0 {
		d.b.lastPixel = buf[0]
	}
	return nil
}

func (d *memDisplay) SetScaling(mode gfx.ScalingMode) error {
	d.b.mu.Lock()
	defer d.b.mu.Unlock()
	d.b.scaling = mode
	return nil
}

func (d *memDisplay) SetVSync(enabled bool) error {
	d.b.mu.Lock()
	defer d.b.mu.Unlock()
	d.b.vsync = enabled
	return nil
}

func (d *memDisplay) SupportsVSync() bool { return true }

func (d *memDisplay) Close() error {
	d.b.mu.Lock()
	defer d.b.mu.Unlock()
	d.b.closed = true
	return nil
}

func newSession(t *testing.T, b *memBackend, cfg presenter.Config) *presenter.Presenter {
	t.Helper()
	reg := gfx.NewRegistry(slog.Default())
	if err := reg.Register(b); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	p, err := presenter.New(reg, cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return p
}

// TestNewAppliesConfig validates session setup.
//
// Contract:
//   - New activates the backend and applies scaling/vsync through the
//     optional interfaces
//   - every session gets a distinct trace ID
func TestNewAppliesConfig(t *testing.T) {
	b := &memBackend{name: "mem"}
	p := newSession(t, b, presenter.Config{
		Width: 160, Height: 144, Format: pixel.RGB565,
		Scaling: gfx.ScaleInteger, VSync: true,
	})
	defer p.Stop()

	b.mu.Lock()
	scaling, vsync := b.scaling, b.vsync
	b.mu.Unlock()
	if scaling != gfx.ScaleInteger {
		t.Errorf("scaling = %v, want ScaleInteger", scaling)
	}
	if !vsync {
		t.Error("vsync not applied")
	}
	if p.TraceID() == "" {
		t.Error("empty trace ID")
	}

	b2 := &memBackend{name: "mem"}
	p2 := newSession(t, b2, presenter.Config{Width: 160, Height: 144, Format: pixel.RGB565})
	defer p2.Stop()
	if p.TraceID() == p2.TraceID() {
		t.Error("two sessions share a trace ID")
	}

	t.Logf("✅ Session setup applies config (trace_id=%s)", p.TraceID())
}

// TestNewFailureLeavesNothingActive validates setup unwinding.
func TestNewFailureLeavesNothingActive(t *testing.T) {
	reg := gfx.NewRegistry(slog.Default())
	b := &memBackend{name: "mem", initErr: errors.New("no device")}
	if err := reg.Register(b); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := presenter.New(reg, presenter.Config{
		Width: 160, Height: 144, Format: pixel.RGB565,
	}, slog.Default())
	if err == nil {
		t.Fatal("New() with failing backend succeeded")
	}
	if _, _, ok := reg.Active(); ok {
		t.Error("registry active after failed New()")
	}

	// Invalid config is rejected before any resource is touched.
	if _, err := presenter.New(reg, presenter.Config{Width: 0, Height: 144}, slog.Default()); err == nil {
		t.Error("New() with zero width succeeded")
	}

	t.Logf("✅ Failed setup leaves nothing active")
}

// TestPresentLoopDeliversFrames validates the end-to-end frame path.
//
// Scenario:
//  1. Core produces 10 frames through the queue
//  2. Loop presents them to the display
//  3. Stats reflect presented frames, display saw the last pattern
func TestPresentLoopDeliversFrames(t *testing.T) {
	b := &memBackend{name: "mem"}
	p := newSession(t, b, presenter.Config{Width: 160, Height: 144, Format: pixel.RGB565})

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	q := p.Queue()
	for i := 1; i <= 10; i++ {
		h := q.AcquireWriteWait(time.Second)
		if h == framequeue.InvalidHandle {
			t.Fatalf("frame %d: AcquireWriteWait failed", i)
		}
		q.Buffer(h)[0] = byte(i)
		q.Submit(h)
	}

	// Let the loop drain.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p.Stats().Presented >= 10 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	stats := p.Stats()
	if stats.Presented != 10 {
		t.Errorf("Presented=%d (expected 10)", stats.Presented)
	}
	if stats.PresentErrors != 0 {
		t.Errorf("PresentErrors=%d (expected 0)", stats.PresentErrors)
	}
	b.mu.Lock()
	last := b.lastPixel
	closed := b.closed
	b.mu.Unlock()
	if last != 10 {
		t.Errorf("display last pixel = %d (expected 10)", last)
	}
	if !closed {
		t.Error("display not closed by Stop()")
	}

	t.Logf("✅ 10 frames delivered end to end (queue stats: %+v)", stats.Queue)
}

// TestPresentErrorsDoNotKillLoop validates degraded operation.
//
// Contract:
//   - A failing Present is counted and logged, the loop keeps going
func TestPresentErrorsDoNotKillLoop(t *testing.T) {
	b := &memBackend{name: "mem", presentErr: errors.New("panel gone")}
	p := newSession(t, b, presenter.Config{Width: 160, Height: 144, Format: pixel.RGB565})

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	q := p.Queue()
	for i := 0; i < 3; i++ {
		h := q.AcquireWriteWait(time.Second)
		if h == framequeue.InvalidHandle {
			t.Fatalf("AcquireWriteWait failed")
		}
		q.Submit(h)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p.Stats().PresentErrors >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	stats := p.Stats()
	if stats.PresentErrors != 3 {
		t.Errorf("PresentErrors=%d (expected 3)", stats.PresentErrors)
	}
	if stats.Presented != 0 {
		t.Errorf("Presented=%d (expected 0)", stats.Presented)
	}

	t.Logf("✅ Loop survived %d present errors", stats.PresentErrors)
}

// TestStopIdempotentAndUnblocks validates shutdown.
//
// Contract:
//   - Stop wakes the loop out of its read wait promptly
//   - A second Stop is a no-op
//   - Start after Stop fails
func TestStopIdempotentAndUnblocks(t *testing.T) {
	b := &memBackend{name: "mem"}
	p := newSession(t, b, presenter.Config{
		Width: 160, Height: 144, Format: pixel.RGB565,
		// Long timeout: Stop must interrupt the wait, not ride it out.
		ReadTimeout: 10 * time.Second,
	})

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop() took %v (expected to interrupt the read wait)", elapsed)
	}

	if err := p.Stop(); err != nil {
		t.Errorf("second Stop() = %v, want nil", err)
	}
	if err := p.Start(context.Background()); err == nil {
		t.Error("Start() after Stop() succeeded")
	}

	t.Logf("✅ Stop interrupts the loop and is idempotent")
}
