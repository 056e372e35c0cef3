package metrics

import (
	"testing"
	"time"
)

func TestRecorder_CountersAndSnapshot(t *testing.T) {
	r := NewRecorder(100)

	r.IncRequests()
	r.IncRequests()
	r.IncChatRequests()
	r.IncRecommenderCalls()
	r.IncBackendBatchCalls()
	r.IncBackendItemCalls()
	r.IncErrors()
	r.ObserveLatency(10 * time.Millisecond)
	r.ObserveLatency(20 * time.Millisecond)

	snap := r.TakeSnapshot()
	if snap.RequestsTotal != 2 || snap.ChatRequests != 1 {
		t.Errorf("requests = (%d, %d), want (2, 1)", snap.RequestsTotal, snap.ChatRequests)
	}
	if snap.RecommenderCalls != 1 || snap.BackendBatchCalls != 1 || snap.BackendItemCalls != 1 || snap.Errors != 1 {
		t.Errorf("stage counters = %+v, want 1 each", snap)
	}
	if snap.Latency.Count != 2 || snap.Latency.P50 != 10 {
		t.Errorf("latency = %+v, want count 2 and p50 10ms", snap.Latency)
	}
}

func TestRecorder_NilReceiverIsNoOp(t *testing.T) {
	var r *Recorder

	r.IncRequests()
	r.IncChatRequests()
	r.IncRecommenderCalls()
	r.IncBackendBatchCalls()
	r.IncBackendItemCalls()
	r.IncErrors()
	r.ObserveLatency(time.Millisecond)

	snap := r.TakeSnapshot()
	if snap.RequestsTotal != 0 || snap.Latency.Count != 0 {
		t.Errorf("nil recorder snapshot = %+v, want zero values", snap)
	}
	if snap.Timestamp.IsZero() {
		t.Error("snapshot timestamp should still be set")
	}
}

func TestRecorder_WindowEviction(t *testing.T) {
	r := NewRecorder(3)
	for i := 1; i <= 5; i++ {
		r.ObserveLatency(time.Duration(i) * time.Millisecond)
	}

	snap := r.TakeSnapshot()
	if snap.Latency.Count != 3 {
		t.Fatalf("window count = %d, want 3", snap.Latency.Count)
	}
	// Samples 1 and 2 were evicted, so the window holds 3..5ms.
	if snap.Latency.P50 != 4 {
		t.Errorf("p50 = %dms, want 4ms", snap.Latency.P50)
	}
}
