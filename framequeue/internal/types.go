package internal

import (
	"errors"
	"time"

	"github.com/e7canasta/videopipe/pixel"
)

// Handle identifies an acquired queue slot. A valid handle grants
// exclusive access to that slot's buffer until it is returned with
// Submit (producer) or Release (consumer).
type Handle int

// InvalidHandle is returned when no slot could be acquired: the queue
// is full, the wait timed out, or the queue is shut down.
const InvalidHandle Handle = -1

// slotState tracks where a slot is in its lifecycle. Transitions only
// happen under the queue mutex.
type slotState int

const (
	slotFree slotState = iota
	slotWriting
	slotReady
	slotRendering
)

// FrameInfo describes the pixel data held in a slot. Timestamp is the
// moment the producer acquired the slot, relative to queue creation.
type FrameInfo struct {
	Width     int
	Height    int
	Pitch     int
	Format    pixel.Format
	Timestamp time.Duration
}

// QueueStats is a point-in-time snapshot of queue counters.
type QueueStats struct {
	// Queued is the number of slots currently in READY state.
	Queued int
	// Submitted counts frames handed over by the producer.
	Submitted uint64
	// Dropped counts producer acquisitions that failed because no
	// slot was free.
	Dropped uint64
	// Rendered counts frames released by the consumer.
	Rendered uint64
	// AvgLatency is the mean submit-to-release latency over all
	// rendered frames since creation or the last ResetStats.
	AvgLatency time.Duration
}

var (
	// ErrInvalidHandle is returned by Info for a handle outside the
	// queue's slot range.
	ErrInvalidHandle = errors.New("framequeue: invalid handle")
)
