package events

import (
	"slices"
	"sync"
	"time"
)

// latencySampleSize bounds the ring of recent delivery latencies used for
// percentile reporting.
const latencySampleSize = 100

// latencyRing is a fixed-size ring buffer of recent end-to-end delivery
// latencies. Writers are the consumer loop only; readers are the metrics
// snapshot path.
type latencyRing struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	filled  bool
}

func newLatencyRing(size int) *latencyRing {
	if size <= 0 {
		size = latencySampleSize
	}
	return &latencyRing{samples: make([]time.Duration, size)}
}

// Add records one latency sample, overwriting the oldest when full.
func (r *latencyRing) Add(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples[r.next] = d
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.filled = true
	}
}

// snapshot returns a sorted copy of the recorded samples.
func (r *latencyRing) snapshot() []time.Duration {
	r.mu.Lock()
	n := len(r.samples)
	if !r.filled {
		n = r.next
	}
	out := make([]time.Duration, n)
	if r.filled {
		copy(out, r.samples)
	} else {
		copy(out, r.samples[:n])
	}
	r.mu.Unlock()

	slices.Sort(out)
	return out
}

// percentile returns the p-th percentile (0..100) of sorted samples using
// nearest-rank selection.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(float64(len(sorted)-1) * p / 100.0)
	return sorted[rank]
}

// QueueMetrics is a read-only snapshot of queue throughput and delivery
// latency, recomputed from the bounded sample ring on every call.
type QueueMetrics struct {
	Enqueued   uint64        `json:"enqueued"`
	Processed  uint64        `json:"processed"`
	Dropped    uint64        `json:"dropped"`
	Rejected   uint64        `json:"rejected"`
	Depth      int           `json:"depth"`
	LatencyP50 time.Duration `json:"latency_p50"`
	LatencyP95 time.Duration `json:"latency_p95"`
	LatencyMax time.Duration `json:"latency_max"`
}
