// Package framequeue implements a thread-safe, fixed-capacity frame
// queue decoupling an emulation core (producer) from the presentation
// thread (consumer).
//
// # Philosophy
//
// "Drop frames, never block the core. Gameplay > Completeness."
//
// The emulation thread's forward progress is latency-critical: a
// stalled renderer must degrade smoothness, never game logic. The
// producer side is therefore strictly non-blocking — when every slot is
// occupied the frame is dropped and counted, and the core moves on.
// The consumer side blocks with a bounded timeout, so a stalled core
// degrades to repeated timeouts rather than hanging the presentation
// thread.
//
// # Design
//
//   - Fixed arena of reusable pixel buffers (typically 2 or 3),
//     allocated once at creation. Steady-state operation performs zero
//     allocation.
//   - Each slot cycles FREE → WRITING → READY → RENDERING → FREE under
//     one mutex; holding a Handle is the access right to the slot's
//     buffer for exactly that window.
//   - Waits are signal-and-recheck loops on single-slot signal
//     channels; wakeups are never trusted without re-checking the
//     predicate.
//   - Latency and drop statistics for on-screen diagnostics, not
//     control flow.
//
// # Basic Usage
//
// Producer side (core thread):
//
//	if h := queue.AcquireWrite(); h != framequeue.InvalidHandle {
//	    copy(queue.Buffer(h), framePixels)
//	    queue.Submit(h)
//	}
//
// Consumer side (presentation thread):
//
//	for !queue.IsShutdown() {
//	    h := queue.AcquireRead(16 * time.Millisecond)
//	    if h == framequeue.InvalidHandle {
//	        continue // timeout: producer stalled, not an error
//	    }
//	    info, _ := queue.Info(h)
//	    display.Present(queue.Buffer(h), info.Width, info.Height, info.Pitch)
//	    queue.Release(h)
//	}
//
// Shutdown is cooperative: Shutdown() wakes every blocked waiter, which
// observes the flag and returns InvalidHandle immediately.
package framequeue
