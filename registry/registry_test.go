package registry

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulseboard/pulseboard/config"
)

func testConfig(capacity int) *config.Config {
	return &config.Config{
		BufferCapacity: capacity,
		SampleInterval: time.Second,
		Quantiles:      []float64{0.5, 0.9, 0.99},
		Separator:      ".",
	}
}

func testRegistry(t *testing.T, capacity int) *Registry {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	reg, err := New(testConfig(capacity), log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return reg
}

func TestCounterConcurrentIncrements(t *testing.T) {
	const (
		goroutines = 8
		increments = 1000
		delta      = 3
	)
	reg := testRegistry(t, 16)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				reg.IncCounter("load.requests", nil, delta)
			}
		}()
	}
	wg.Wait()
	reg.SnapshotTick()

	snap, err := reg.Series(NewKey("load.requests", nil))
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	want := float64(goroutines * increments * delta)
	if got := snap.Samples[len(snap.Samples)-1].Value; got != want {
		t.Errorf("counter total = %v, want %v", got, want)
	}
}

func TestExactlyOneHandlePerKey(t *testing.T) {
	reg := testRegistry(t, 16)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.IncCounter("race.first.use", nil, 1)
		}()
	}
	wg.Wait()

	if got := len(reg.Metrics()); got != 1 {
		t.Errorf("registered metrics = %d, want 1", got)
	}
	reg.SnapshotTick()
	snap, err := reg.Series(NewKey("race.first.use", nil))
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if got := snap.Samples[0].Value; got != 16 {
		t.Errorf("counter = %v, want 16 (lost updates across duplicate handles)", got)
	}
}

func TestGaugeLastWriteWins(t *testing.T) {
	reg := testRegistry(t, 16)

	reg.SetGauge("app.load", nil, 1)
	reg.SetGauge("app.load", nil, 2.5)
	reg.SetGauge("app.load", nil, -7)
	reg.SnapshotTick()

	snap, err := reg.Series(NewKey("app.load", nil))
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if got := snap.Samples[len(snap.Samples)-1].Value; got != -7 {
		t.Errorf("gauge = %v, want -7", got)
	}
}

func TestHistogramFlushPerTick(t *testing.T) {
	reg := testRegistry(t, 16)

	for i := 1; i <= 10; i++ {
		reg.ObserveHistogram("rpc.latency", nil, float64(i))
	}
	reg.SnapshotTick()
	reg.ObserveHistogram("rpc.latency", nil, 100)
	reg.SnapshotTick()
	reg.SnapshotTick() // empty window, no summary

	snap, err := reg.Series(NewKey("rpc.latency", nil))
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if snap.Kind != KindHistogram {
		t.Fatalf("kind = %v, want histogram", snap.Kind)
	}
	if len(snap.Summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(snap.Summaries))
	}
	if snap.Summaries[0].Count != 10 || snap.Summaries[1].Count != 1 {
		t.Errorf("window counts = %d, %d, want 10, 1",
			snap.Summaries[0].Count, snap.Summaries[1].Count)
	}
	if snap.Summaries[1].Max != 100 {
		t.Errorf("second window max = %v, want 100", snap.Summaries[1].Max)
	}
}

func TestKindConflictDropped(t *testing.T) {
	reg := testRegistry(t, 16)

	reg.IncCounter("x", nil, 5)
	reg.ObserveHistogram("x", nil, 1) // conflicting kind, must be a no-op
	reg.SnapshotTick()

	snap, err := reg.Series(NewKey("x", nil))
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if snap.Kind != KindCounter {
		t.Errorf("kind = %v, want counter", snap.Kind)
	}
	if got := snap.Samples[0].Value; got != 5 {
		t.Errorf("counter = %v, want 5 (conflicting write corrupted state)", got)
	}
	if got := len(reg.Metrics()); got != 1 {
		t.Errorf("metrics = %d, want 1 (conflict created a handle)", got)
	}
}

func TestMalformedNameDropped(t *testing.T) {
	reg := testRegistry(t, 16)

	reg.IncCounter("", nil, 1)
	reg.IncCounter("a..b", nil, 1)
	reg.IncCounter(".leading", nil, 1)
	reg.IncCounter("trailing.", nil, 1)

	if got := len(reg.Metrics()); got != 0 {
		t.Errorf("metrics = %d, want 0", got)
	}
	if _, err := reg.Series(NewKey("a..b", nil)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Series error = %v, want ErrNotFound", err)
	}
}

func TestSeriesNotFound(t *testing.T) {
	reg := testRegistry(t, 16)
	if _, err := reg.Series(NewKey("never.registered", nil)); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLabelVariantsAreDistinctMetrics(t *testing.T) {
	reg := testRegistry(t, 16)

	reg.IncCounter("http.requests", map[string]string{"code": "200"}, 2)
	reg.IncCounter("http.requests", map[string]string{"code": "500"}, 7)
	reg.SnapshotTick()

	ok, err := reg.Series(NewKey("http.requests", map[string]string{"code": "200"}))
	if err != nil {
		t.Fatalf("Series(200): %v", err)
	}
	bad, err := reg.Series(NewKey("http.requests", map[string]string{"code": "500"}))
	if err != nil {
		t.Fatalf("Series(500): %v", err)
	}
	if ok.Samples[0].Value != 2 || bad.Samples[0].Value != 7 {
		t.Errorf("label variants shared state: %v, %v", ok.Samples[0].Value, bad.Samples[0].Value)
	}

	if got := len(reg.Names()); got != 1 {
		t.Errorf("distinct names = %d, want 1", got)
	}
	if got := len(reg.Leaves("http", "requests")); got != 2 {
		t.Errorf("leaves at http.requests = %d, want 2", got)
	}
}

func TestCapacityOverride(t *testing.T) {
	cfg := testConfig(8)
	cfg.CapacityOverrides = map[string]int{"small.series": 2}
	log := logrus.New()
	log.SetOutput(io.Discard)
	reg, err := New(cfg, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 5; i++ {
		reg.SetGauge("small.series", nil, float64(i))
		reg.SnapshotTick()
	}

	snap, err := reg.Series(NewKey("small.series", nil))
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(snap.Samples) != 2 {
		t.Fatalf("samples = %d, want override capacity 2", len(snap.Samples))
	}
	if snap.Samples[0].Value != 3 || snap.Samples[1].Value != 4 {
		t.Errorf("retained samples = %v, want the 2 most recent", snap.Samples)
	}
}

func TestNamespaceObservesInsertAfterReturn(t *testing.T) {
	reg := testRegistry(t, 16)

	reg.IncCounter("a.b.c", nil, 1)
	if got := reg.Children("a"); len(got) != 1 || got[0] != "b" {
		t.Errorf(`Children("a") = %v, want ["b"]`, got)
	}

	reg.IncCounter("a.b.d", nil, 1)
	got := reg.Children("a", "b")
	if len(got) != 2 || got[0] != "c" || got[1] != "d" {
		t.Errorf(`Children("a","b") = %v, want ["c","d"]`, got)
	}
}

func TestReadersConcurrentWithWriters(t *testing.T) {
	reg := testRegistry(t, 32)
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					reg.IncCounter("hot.counter", nil, 1)
					reg.ObserveHistogram("hot.latency", nil, 1)
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		reg.SnapshotTick()
		if snap, err := reg.Series(NewKey("hot.counter", nil)); err == nil {
			for j := 1; j < len(snap.Samples); j++ {
				if snap.Samples[j].Value < snap.Samples[j-1].Value {
					t.Errorf("counter series decreased: %v then %v",
						snap.Samples[j-1].Value, snap.Samples[j].Value)
				}
			}
		}
		_ = reg.Names()
		_ = reg.Children()
	}
	close(done)
	wg.Wait()
}

func BenchmarkIncCounter(b *testing.B) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	reg, _ := New(testConfig(512), log)
	reg.IncCounter("bench.counter", nil, 1)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			reg.IncCounter("bench.counter", nil, 1)
		}
	})
}

func BenchmarkObserveHistogram(b *testing.B) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	reg, _ := New(testConfig(512), log)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			reg.ObserveHistogram("bench.latency", nil, 1.5)
		}
	})
}
