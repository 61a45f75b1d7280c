package framequeue

import (
	"time"

	"github.com/e7canasta/videopipe/framequeue/internal"
	"github.com/e7canasta/videopipe/pixel"
)

// Handle identifies an acquired slot. See internal package for the
// slot lifecycle.
type Handle = internal.Handle

// InvalidHandle signals that no slot was acquired.
const InvalidHandle = internal.InvalidHandle

// FrameInfo describes the frame held in a slot.
type FrameInfo = internal.FrameInfo

// QueueStats is a snapshot of queue counters.
type QueueStats = internal.QueueStats

// ErrInvalidHandle is returned by Info for an out-of-range handle.
var ErrInvalidHandle = internal.ErrInvalidHandle

// MinCapacity is the smallest valid queue capacity.
const MinCapacity = internal.MinCapacity

// Queue is a thread-safe fixed-capacity frame queue between an
// emulation core and a presentation thread.
//
// The producer side never blocks: AcquireWrite drops the frame when no
// slot is free. The consumer side blocks with a bounded timeout. Both
// sides unblock promptly on Shutdown.
type Queue interface {
	// AcquireWrite claims a free slot without blocking, or returns
	// InvalidHandle (counted as a drop) when the queue is full.
	AcquireWrite() Handle

	// AcquireWriteWait claims a free slot, waiting up to timeout
	// for one to be released. Negative timeout waits indefinitely.
	AcquireWriteWait(timeout time.Duration) Handle

	// Submit publishes a written slot to the consumer. Calling it
	// on a handle that was not acquired for writing is a no-op.
	Submit(h Handle)

	// AcquireRead takes the oldest submitted frame. Zero timeout
	// polls, positive bounds the wait, negative waits until a frame
	// arrives or the queue shuts down.
	AcquireRead(timeout time.Duration) Handle

	// Release returns a rendered slot to the free pool. Calling it
	// on a handle that was not acquired for reading is a no-op.
	Release(h Handle)

	// Buffer returns the slot's pixel buffer. The caller owns it
	// only between acquire and the matching Submit or Release.
	Buffer(h Handle) []byte

	// Info returns the frame metadata recorded when the slot was
	// acquired for writing.
	Info(h Handle) (FrameInfo, error)

	// Capacity returns the number of slots.
	Capacity() int

	// Stats returns a snapshot of the counters.
	Stats() QueueStats

	// ResetStats zeroes the counters used for diagnostics.
	ResetStats()

	// Shutdown wakes all blocked waiters and makes every further
	// acquire return InvalidHandle. Idempotent.
	Shutdown()

	// IsShutdown reports whether Shutdown has been called.
	IsShutdown() bool
}

// New creates a queue with capacity pre-allocated buffers sized for
// width x height frames in the given format. Capacity must be at
// least MinCapacity; larger capacities trade latency for smoothness.
func New(width, height int, format pixel.Format, capacity int) (Queue, error) {
	q, err := internal.NewQueue(width, height, format, capacity)
	if err != nil {
		return nil, err
	}
	return q, nil
}
