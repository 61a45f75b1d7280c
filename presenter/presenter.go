// Package presenter drives the presentation side of the pipeline: it
// owns the frame queue, activates a graphics backend through the
// registry, and runs the loop that moves frames from the queue to the
// display. The emulation core only ever sees the producer half of the
// queue.
package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/videopipe/framequeue"
	"github.com/e7canasta/videopipe/gfx"
	"github.com/e7canasta/videopipe/pixel"
)

// DefaultReadTimeout is one 60 Hz refresh period. A stalled core then
// degrades to one timeout per refresh rather than a hung loop.
const DefaultReadTimeout = 16 * time.Millisecond

// maxCapacity caps the session's queue depth at triple buffering. The
// queue itself accepts more; for interactive presentation extra slots
// only add latency.
const maxCapacity = 3

// Config describes one presentation session.
type Config struct {
	// Width and Height are the core's output geometry.
	Width  int
	Height int
	// Format is the pixel format the core renders in.
	Format pixel.Format
	// Capacity is the frame queue depth (2 or 3). Zero selects
	// double buffering.
	Capacity int
	// Backend names the registered backend to activate. Empty
	// selects the registry default.
	Backend string
	// Scaling is applied when the display supports it.
	Scaling gfx.ScalingMode
	// VSync is applied when the display supports it.
	VSync bool
	// ReadTimeout bounds each wait for a frame. Zero selects
	// DefaultReadTimeout.
	ReadTimeout time.Duration
}

func (c *Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("presenter: invalid dimensions %dx%d", c.Width, c.Height)
	}
	if c.Capacity == 0 {
		c.Capacity = framequeue.MinCapacity
	}
	if c.Capacity < framequeue.MinCapacity || c.Capacity > maxCapacity {
		return fmt.Errorf("presenter: capacity %d out of range [%d, %d]",
			c.Capacity, framequeue.MinCapacity, maxCapacity)
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return nil
}

// Stats is a snapshot of one session's counters.
type Stats struct {
	Presented     uint64
	PresentErrors uint64
	ReadTimeouts  uint64
	Queue         framequeue.QueueStats
	TraceID       string
}

// Presenter runs the presentation loop for one display session.
type Presenter struct {
	log     *slog.Logger
	cfg     Config
	traceID string

	reg     *gfx.Registry
	queue   framequeue.Queue
	display gfx.Display

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	presented     atomic.Uint64
	presentErrors atomic.Uint64
	readTimeouts  atomic.Uint64
}

// New creates a presenter: it builds the frame queue, activates the
// configured backend and applies scaling and vsync where the display
// supports them. On error nothing remains active. The returned
// presenter is idle until Start.
func New(reg *gfx.Registry, cfg Config, log *slog.Logger) (*Presenter, error) {
	if reg == nil {
		return nil, fmt.Errorf("presenter: nil registry")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	traceID := uuid.New().String()
	log = log.With("trace_id", traceID)

	queue, err := framequeue.New(cfg.Width, cfg.Height, cfg.Format, cfg.Capacity)
	if err != nil {
		return nil, err
	}

	display, err := reg.Activate(cfg.Backend, cfg.Width, cfg.Height, cfg.Format)
	if err != nil {
		queue.Shutdown()
		return nil, err
	}

	if sc, ok := display.(gfx.ScalingControl); ok {
		if err := sc.SetScaling(cfg.Scaling); err != nil {
			log.Warn("presenter: set scaling failed", "mode", cfg.Scaling.String(), "error", err)
		}
	}
	if vc, ok := display.(gfx.VSyncControl); ok {
		if err := vc.SetVSync(cfg.VSync && vc.SupportsVSync()); err != nil {
			log.Warn("presenter: set vsync failed", "error", err)
		}
	}

	backend, _, _ := reg.Active()
	log.Info("presenter: session ready",
		"backend", backend.Name(),
		"geometry", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"format", cfg.Format.String(),
		"capacity", cfg.Capacity,
		"scaling", cfg.Scaling.String(),
		"vsync", cfg.VSync)

	return &Presenter{
		log:     log,
		cfg:     cfg,
		traceID: traceID,
		reg:     reg,
		queue:   queue,
		display: display,
	}, nil
}

// Queue returns the producer surface for the emulation core.
func (p *Presenter) Queue() framequeue.Queue { return p.queue }

// TraceID identifies this session in logs.
func (p *Presenter) TraceID() string { return p.traceID }

// Start spawns the presentation loop. A second call fails.
func (p *Presenter) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("presenter: already started")
	}
	if p.stopped {
		return fmt.Errorf("presenter: already stopped")
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.presentLoop(ctx)

	p.log.Info("presenter: loop started")
	return nil
}

// Stop shuts the queue down, joins the loop and closes the backend.
// Idempotent.
func (p *Presenter) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	p.queue.Shutdown()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	err := p.reg.Shutdown()
	p.log.Info("presenter: stopped",
		"presented", p.presented.Load(),
		"present_errors", p.presentErrors.Load(),
		"read_timeouts", p.readTimeouts.Load())
	return err
}

// presentLoop moves frames from the queue to the display until the
// queue shuts down. Timeouts are normal operation; present errors are
// counted and logged but never end the loop, a transient display
// hiccup must not kill the session.
func (p *Presenter) presentLoop(ctx context.Context) {
	defer p.wg.Done()

	for {
		if ctx.Err() != nil || p.queue.IsShutdown() {
			return
		}

		h := p.queue.AcquireRead(p.cfg.ReadTimeout)
		if h == framequeue.InvalidHandle {
			if p.queue.IsShutdown() {
				return
			}
			p.readTimeouts.Add(1)
			continue
		}

		info, err := p.queue.Info(h)
		if err != nil {
			p.queue.Release(h)
			continue
		}
		if err := p.display.Present(p.queue.Buffer(h), info.Width, info.Height, info.Pitch); err != nil {
			p.presentErrors.Add(1)
			p.log.Error("presenter: present failed", "error", err)
		} else {
			p.presented.Add(1)
		}
		p.queue.Release(h)
	}
}

// Stats returns a snapshot of the session counters.
func (p *Presenter) Stats() Stats {
	return Stats{
		Presented:     p.presented.Load(),
		PresentErrors: p.presentErrors.Load(),
		ReadTimeouts:  p.readTimeouts.Load(),
		Queue:         p.queue.Stats(),
		TraceID:       p.traceID,
	}
}
