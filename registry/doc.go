// Package registry implements the concurrent in-process metrics backend:
// recording operations, per-key handles, and bounded time-series history.
//
// # Recording
//
// Call sites record fire-and-forget updates from any goroutine:
//
//	reg, _ := registry.New(nil, nil)
//	reg.IncCounter("http.requests", map[string]string{"code": "200"}, 1)
//	reg.SetGauge("runtime.goroutines", nil, 42)
//	reg.ObserveHistogram("http.latency", nil, 0.031)
//
// The first update for a key creates its handle atomically; concurrent first
// use from multiple goroutines still creates exactly one handle. A key's
// kind is fixed at first use: updates under a different kind are logged and
// dropped without touching existing data. Malformed names (empty name or
// empty segment) are likewise logged and dropped.
//
// # Sampling
//
// Writers only touch live accumulators. History grows on snapshot ticks,
// decoupling write frequency from storage:
//
//	reg.SnapshotTick() // counters/gauges push current value,
//	                   // histograms flush one summary per window
//
// Each metric retains a fixed number of points in a ring buffer; total
// memory is bounded by keys x capacity regardless of write rate. The
// optional Sampler runs ticks on the configured interval.
//
// # Reading
//
// Series and the namespace accessors return point-in-time copies, safe to
// call concurrently with ongoing writes. Readers may miss the latest
// in-flight update but never observe a torn sample.
package registry
