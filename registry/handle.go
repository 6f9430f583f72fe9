package registry

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Kind is the closed set of metric kinds. A key's kind is fixed at first
// registration and never changes.
type Kind uint8

const (
	// KindCounter is a monotonically non-decreasing accumulated value.
	KindCounter Kind = iota
	// KindGauge is an arbitrary last-write-wins value.
	KindGauge
	// KindHistogram is a distribution of observed values, summarized into
	// quantiles on each snapshot tick.
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	}
	return "unknown"
}

// handle is the per-key state: the kind-specific live accumulator plus the
// bounded time-series history. Writers touch only the atomics (counter,
// gauge) or the window mutex (histogram); the series mutex is shared between
// the snapshot tick and readers.
type handle struct {
	key  Key
	kind Kind

	counter atomic.Uint64
	gauge   atomic.Uint64 // float64 bits

	windowMu sync.Mutex
	window   []float64

	seriesMu  sync.Mutex
	samples   *series[Sample]
	summaries *series[Summary]
}

func newHandle(key Key, kind Kind, capacity int) *handle {
	h := &handle{key: key, kind: kind}
	switch kind {
	case KindCounter, KindGauge:
		h.samples = newSeries[Sample](capacity)
	case KindHistogram:
		h.summaries = newSeries[Summary](capacity)
	}
	return h
}

// addCounter accumulates a non-negative delta, saturating at the maximum
// instead of wrapping so the counter never decreases.
func (h *handle) addCounter(delta uint64) {
	for {
		old := h.counter.Load()
		next := old + delta
		if next < old {
			next = math.MaxUint64
		}
		if h.counter.CompareAndSwap(old, next) {
			return
		}
	}
}

func (h *handle) setGauge(v float64) {
	h.gauge.Store(math.Float64bits(v))
}

func (h *handle) gaugeValue() float64 {
	return math.Float64frombits(h.gauge.Load())
}

func (h *handle) observe(v float64) {
	h.windowMu.Lock()
	h.window = append(h.window, v)
	h.windowMu.Unlock()
}

// snapshot advances the handle by one sampling period: counters and gauges
// push their current value, histograms flush the accumulated window into one
// summary and reset it. An empty histogram window pushes nothing.
func (h *handle) snapshot(now time.Time, quantiles []float64) {
	switch h.kind {
	case KindCounter:
		h.pushSample(Sample{At: now, Value: float64(h.counter.Load())})
	case KindGauge:
		h.pushSample(Sample{At: now, Value: h.gaugeValue()})
	case KindHistogram:
		h.windowMu.Lock()
		window := h.window
		h.window = nil
		h.windowMu.Unlock()
		if len(window) == 0 {
			return
		}
		sum := summarize(now, window, quantiles)
		h.seriesMu.Lock()
		h.summaries.push(sum)
		h.seriesMu.Unlock()
	}
}

func (h *handle) pushSample(s Sample) {
	h.seriesMu.Lock()
	h.samples.push(s)
	h.seriesMu.Unlock()
}

// currentSeries copies the retained history. The copy is a point-in-time
// snapshot; in-flight accumulator updates since the last tick are not
// included.
func (h *handle) currentSeries() ([]Sample, []Summary) {
	h.seriesMu.Lock()
	defer h.seriesMu.Unlock()
	switch h.kind {
	case KindCounter, KindGauge:
		return h.samples.snapshot(), nil
	case KindHistogram:
		return nil, h.summaries.snapshot()
	}
	return nil, nil
}

// summarize computes deterministic statistics over one histogram window.
// Values are sorted ascending (ties keep stable ascending order) and
// quantiles are taken by the nearest-rank method, so a given multiset always
// produces the same summary.
func summarize(at time.Time, values []float64, quantiles []float64) Summary {
	sort.Float64s(values)

	var sum float64
	for _, v := range values {
		sum += v
	}

	n := len(values)
	s := Summary{
		At:    at,
		Count: uint64(n),
		Sum:   sum,
		Min:   values[0],
		Max:   values[n-1],
		Mean:  sum / float64(n),
	}

	s.Quantiles = make([]Quantile, 0, len(quantiles))
	for _, q := range quantiles {
		rank := int(math.Ceil(q*float64(n))) - 1
		if rank < 0 {
			rank = 0
		}
		if rank >= n {
			rank = n - 1
		}
		s.Quantiles = append(s.Quantiles, Quantile{Q: q, Value: values[rank]})
	}
	return s
}
