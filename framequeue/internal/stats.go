package internal

import "time"

// Stats returns a consistent snapshot of the queue counters.
func (q *Queue) Stats() QueueStats {
	s := QueueStats{
		Queued:    int(q.queued.Load()),
		Submitted: q.submitted.Load(),
		Dropped:   q.dropped.Load(),
		Rendered:  q.rendered.Load(),
	}
	if s.Rendered > 0 {
		s.AvgLatency = time.Duration(uint64(q.totalLatency.Load()) / s.Rendered)
	}
	return s
}

// ResetStats zeroes the drop, submit, render and latency counters. The
// in-flight count and the timestamp epoch are left untouched so frames
// already in the queue keep coherent latencies.
func (q *Queue) ResetStats() {
	q.submitted.Store(0)
	q.dropped.Store(0)
	q.rendered.Store(0)
	q.totalLatency.Store(0)
}
