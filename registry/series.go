package registry

import "time"

// Sample is one recorded (timestamp, value) point for a counter or gauge.
type Sample struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// Quantile is one quantile of a histogram summary.
type Quantile struct {
	Q     float64 `json:"q"`
	Value float64 `json:"value"`
}

// Summary is one flushed histogram window: statistics over the raw
// observations accumulated since the previous snapshot tick.
type Summary struct {
	At        time.Time  `json:"at"`
	Count     uint64     `json:"count"`
	Sum       float64    `json:"sum"`
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	Mean      float64    `json:"mean"`
	Quantiles []Quantile `json:"quantiles"`
}

// series is a fixed-capacity ring buffer. Pushing beyond capacity overwrites
// the oldest element. Not safe for concurrent use; callers hold the owning
// handle's lock.
type series[T any] struct {
	buf   []T
	next  int
	count int
}

func newSeries[T any](capacity int) *series[T] {
	return &series[T]{buf: make([]T, capacity)}
}

func (s *series[T]) push(v T) {
	s.buf[s.next] = v
	s.next = (s.next + 1) % len(s.buf)
	if s.count < len(s.buf) {
		s.count++
	}
}

func (s *series[T]) len() int {
	return s.count
}

func (s *series[T]) capacity() int {
	return len(s.buf)
}

// snapshot copies the retained elements in chronological order.
func (s *series[T]) snapshot() []T {
	if s.count == 0 {
		return nil
	}
	out := make([]T, 0, s.count)
	start := s.next - s.count
	if start < 0 {
		start += len(s.buf)
	}
	for i := 0; i < s.count; i++ {
		out = append(out, s.buf[(start+i)%len(s.buf)])
	}
	return out
}
