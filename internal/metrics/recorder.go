package metrics

import (
	"sort"
	"sync"
	"time"
)

// DefaultLatencyWindow bounds the latency sample buffer.
const DefaultLatencyWindow = 10000

// LatencySnapshot holds sliding-window latency percentiles in milliseconds.
type LatencySnapshot struct {
	P50   int64
	P95   int64
	P99   int64
	Count int
}

// Snapshot is a point-in-time view of the pipeline counters and latencies.
type Snapshot struct {
	RequestsTotal     uint64
	ChatRequests      uint64
	RecommenderCalls  uint64
	BackendBatchCalls uint64
	BackendItemCalls  uint64
	Errors            uint64
	Latency           LatencySnapshot
	Timestamp         time.Time
}

// Recorder accumulates monotonically increasing counters and a bounded
// sliding window of request durations. Safe for concurrent use; all methods
// are no-ops on a nil receiver so tests can leave it unwired.
type Recorder struct {
	mu        sync.Mutex
	window    []time.Duration // ring buffer
	head      int
	requests  uint64
	chats     uint64
	recCalls  uint64
	batchGets uint64
	itemGets  uint64
	errors    uint64
}

// NewRecorder creates a Recorder with the given latency window size.
func NewRecorder(windowSize int) *Recorder {
	if windowSize <= 0 {
		windowSize = DefaultLatencyWindow
	}
	return &Recorder{window: make([]time.Duration, 0, windowSize)}
}

// IncRequests counts any core invocation.
func (r *Recorder) IncRequests() {
	if r == nil {
		return
	}
	r.inc(&r.requests)
}

// IncChatRequests counts answer pipeline invocations.
func (r *Recorder) IncChatRequests() {
	if r == nil {
		return
	}
	r.inc(&r.chats)
}

// IncRecommenderCalls counts semantic recommender calls.
func (r *Recorder) IncRecommenderCalls() {
	if r == nil {
		return
	}
	r.inc(&r.recCalls)
}

// IncBackendBatchCalls counts detail provider batch calls.
func (r *Recorder) IncBackendBatchCalls() {
	if r == nil {
		return
	}
	r.inc(&r.batchGets)
}

// IncBackendItemCalls counts detail provider per-item calls.
func (r *Recorder) IncBackendItemCalls() {
	if r == nil {
		return
	}
	r.inc(&r.itemGets)
}

// IncErrors counts upstream and internal errors.
func (r *Recorder) IncErrors() {
	if r == nil {
		return
	}
	r.inc(&r.errors)
}

func (r *Recorder) inc(field *uint64) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}

// ObserveLatency records one request duration, evicting the oldest sample
// once the window is full.
func (r *Recorder) ObserveLatency(d time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.window) < cap(r.window) {
		r.window = append(r.window, d)
		return
	}
	r.window[r.head] = d
	r.head = (r.head + 1) % cap(r.window)
}

// TakeSnapshot copies the counters and computes latency percentiles over the
// current window.
func (r *Recorder) TakeSnapshot() Snapshot {
	if r == nil {
		return Snapshot{Timestamp: time.Now()}
	}
	r.mu.Lock()
	samples := make([]time.Duration, len(r.window))
	copy(samples, r.window)
	snap := Snapshot{
		RequestsTotal:     r.requests,
		ChatRequests:      r.chats,
		RecommenderCalls:  r.recCalls,
		BackendBatchCalls: r.batchGets,
		BackendItemCalls:  r.itemGets,
		Errors:            r.errors,
		Timestamp:         time.Now(),
	}
	r.mu.Unlock()

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	snap.Latency = LatencySnapshot{
		P50:   percentileMs(samples, 50),
		P95:   percentileMs(samples, 95),
		P99:   percentileMs(samples, 99),
		Count: len(samples),
	}
	return snap
}

func percentileMs(sorted []time.Duration, q int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (q * (len(sorted) - 1)) / 100
	return sorted[idx].Milliseconds()
}
