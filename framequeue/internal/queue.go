package internal

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/videopipe/pixel"
)

// MinCapacity is the smallest useful queue: one slot being written
// while another is being rendered. There is no upper bound; larger
// capacities trade latency for smoothness.
const MinCapacity = 2

type slot struct {
	data  []byte
	state slotState
	info  FrameInfo
}

// Queue is a fixed-capacity single-producer single-consumer frame
// queue. All buffers are allocated at construction; the hot path never
// allocates.
type Queue struct {
	mu    sync.Mutex
	slots []slot

	// writeIdx is where the producer starts scanning for a FREE
	// slot; readIdx is the only slot the consumer will take, which
	// preserves submission order.
	writeIdx int
	readIdx  int

	width  int
	height int
	pitch  int
	format pixel.Format

	// frameReady carries at most one pending wakeup for the
	// consumer, frameConsumed one for a waiting producer. Waiters
	// always re-check the slot state after waking.
	frameReady    chan struct{}
	frameConsumed chan struct{}

	// done is closed exactly once on Shutdown and wakes every
	// blocked waiter at once.
	done     chan struct{}
	shutdown atomic.Bool
	downOnce sync.Once

	epoch time.Time

	queued       atomic.Int64
	submitted    atomic.Uint64
	dropped      atomic.Uint64
	rendered     atomic.Uint64
	totalLatency atomic.Int64 // nanoseconds
}

// NewQueue creates a queue of capacity pre-allocated frame buffers of
// the given geometry. Capacity must be at least MinCapacity.
func NewQueue(width, height int, format pixel.Format, capacity int) (*Queue, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("framequeue: invalid dimensions %dx%d", width, height)
	}
	if format.BytesPerPixel() == 0 {
		return nil, fmt.Errorf("framequeue: unknown pixel format %v", format)
	}
	if capacity < MinCapacity {
		return nil, fmt.Errorf("framequeue: capacity %d below minimum %d",
			capacity, MinCapacity)
	}

	pitch := format.Pitch(width)
	q := &Queue{
		slots:         make([]slot, capacity),
		width:         width,
		height:        height,
		pitch:         pitch,
		format:        format,
		frameReady:    make(chan struct{}, 1),
		frameConsumed: make(chan struct{}, 1),
		done:          make(chan struct{}),
		epoch:         time.Now(),
	}
	for i := range q.slots {
		q.slots[i].data = make([]byte, pitch*height)
	}
	return q, nil
}

// Capacity returns the number of slots.
func (q *Queue) Capacity() int { return len(q.slots) }

// AcquireWrite claims a FREE slot for the producer without blocking.
// It returns InvalidHandle if every slot is occupied (the drop counter
// is incremented) or if the queue is shut down.
func (q *Queue) AcquireWrite() Handle {
	if q.shutdown.Load() {
		return InvalidHandle
	}
	q.mu.Lock()
	h, ok := q.tryAcquireWriteLocked()
	q.mu.Unlock()
	if !ok {
		q.dropped.Add(1)
		return InvalidHandle
	}
	return h
}

// AcquireWriteWait claims a FREE slot, waiting up to timeout for the
// consumer to release one. A negative timeout waits indefinitely. The
// drop counter is incremented only if the wait gives up.
func (q *Queue) AcquireWriteWait(timeout time.Duration) Handle {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		if q.shutdown.Load() {
			return InvalidHandle
		}
		q.mu.Lock()
		h, ok := q.tryAcquireWriteLocked()
		q.mu.Unlock()
		if ok {
			return h
		}
		if !q.waitSignal(q.frameConsumed, timeout, deadline) {
			q.dropped.Add(1)
			return InvalidHandle
		}
	}
}

// tryAcquireWriteLocked scans forward from writeIdx for a FREE slot.
// Scanning (rather than checking a single cursor) lets the producer
// reuse a slot freed out of order by a slow consumer.
func (q *Queue) tryAcquireWriteLocked() (Handle, bool) {
	for i := 0; i < len(q.slots); i++ {
		idx := (q.writeIdx + i) % len(q.slots)
		s := &q.slots[idx]
		if s.state != slotFree {
			continue
		}
		s.state = slotWriting
		s.info = FrameInfo{
			Width:     q.width,
			Height:    q.height,
			Pitch:     q.pitch,
			Format:    q.format,
			Timestamp: time.Since(q.epoch),
		}
		return Handle(idx), true
	}
	return InvalidHandle, false
}

// Submit marks a WRITING slot READY and wakes a waiting consumer.
// Submitting a handle not in WRITING state is a no-op, which makes
// double submission harmless.
func (q *Queue) Submit(h Handle) {
	if !q.validHandle(h) {
		return
	}
	q.mu.Lock()
	s := &q.slots[h]
	if s.state != slotWriting {
		q.mu.Unlock()
		return
	}
	s.state = slotReady
	q.writeIdx = (int(h) + 1) % len(q.slots)
	q.mu.Unlock()

	q.queued.Add(1)
	q.submitted.Add(1)
	q.signal(q.frameReady)
}

// AcquireRead takes the next READY slot in submission order and marks
// it RENDERING. The timeout selects the wait mode: zero polls and
// returns immediately, positive bounds the wait, negative waits until
// a frame arrives or the queue shuts down.
func (q *Queue) AcquireRead(timeout time.Duration) Handle {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		if q.shutdown.Load() {
			return InvalidHandle
		}
		q.mu.Lock()
		s := &q.slots[q.readIdx]
		if s.state == slotReady {
			s.state = slotRendering
			h := Handle(q.readIdx)
			q.mu.Unlock()
			q.queued.Add(-1)
			return h
		}
		q.mu.Unlock()

		if timeout == 0 {
			return InvalidHandle
		}
		if !q.waitSignal(q.frameReady, timeout, deadline) {
			return InvalidHandle
		}
	}
}

// Release returns a RENDERING slot to FREE, records its latency and
// wakes a waiting producer. Releasing a handle not in RENDERING state
// is a no-op.
func (q *Queue) Release(h Handle) {
	if !q.validHandle(h) {
		return
	}
	q.mu.Lock()
	s := &q.slots[h]
	if s.state != slotRendering {
		q.mu.Unlock()
		return
	}
	latency := time.Since(q.epoch) - s.info.Timestamp
	s.state = slotFree
	q.readIdx = (int(h) + 1) % len(q.slots)
	q.mu.Unlock()

	if latency > 0 {
		q.totalLatency.Add(int64(latency))
	}
	q.rendered.Add(1)
	q.signal(q.frameConsumed)
}

// Buffer returns the pixel buffer of a slot, or nil for an out-of-range
// handle. The caller may only touch the buffer while holding the slot
// in WRITING or RENDERING state.
func (q *Queue) Buffer(h Handle) []byte {
	if !q.validHandle(h) {
		return nil
	}
	return q.slots[h].data
}

// Info returns a copy of the frame metadata for a slot.
func (q *Queue) Info(h Handle) (FrameInfo, error) {
	if !q.validHandle(h) {
		return FrameInfo{}, ErrInvalidHandle
	}
	q.mu.Lock()
	info := q.slots[h].info
	q.mu.Unlock()
	return info, nil
}

// Shutdown marks the queue as shut down and wakes every blocked
// waiter. It is idempotent and safe to call from any goroutine.
// Buffers stay valid until the Queue itself is garbage collected, so a
// consumer mid-Present is never left with a dangling pointer.
func (q *Queue) Shutdown() {
	q.downOnce.Do(func() {
		q.shutdown.Store(true)
		close(q.done)
	})
}

// IsShutdown reports whether Shutdown has been called.
func (q *Queue) IsShutdown() bool {
	return q.shutdown.Load()
}

func (q *Queue) validHandle(h Handle) bool {
	return h >= 0 && int(h) < len(q.slots)
}

// signal delivers a non-blocking wakeup. A full channel means a wakeup
// is already pending, which is enough: waiters re-check state in a
// loop.
func (q *Queue) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// waitSignal blocks until ch fires, the deadline passes, or the queue
// shuts down. It returns false when the caller should give up.
func (q *Queue) waitSignal(ch chan struct{}, timeout time.Duration, deadline time.Time) bool {
	if timeout < 0 {
		select {
		case <-ch:
			return true
		case <-q.done:
			return false
		}
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-q.done:
		return false
	case <-timer.C:
		return false
	}
}
