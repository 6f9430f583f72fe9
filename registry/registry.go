package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/namespace"
)

var (
	// ErrNotFound is returned when a series is requested for a key that was
	// never registered.
	ErrNotFound = errors.New("metric not found")
	// ErrKindConflict is reported when a key registered under one kind
	// receives an operation for a different kind.
	ErrKindConflict = errors.New("metric kind conflict")
	// ErrInvalidName is reported for malformed metric names.
	ErrInvalidName = errors.New("invalid metric name")
)

// MetricInfo describes one registered metric.
type MetricInfo struct {
	Key  Key
	Kind Kind
}

// Registry is the concurrent recording backend. It routes counter, gauge,
// and histogram updates to per-key handles, creating each handle exactly
// once on first use and indexing its name in the namespace tree.
//
// The registry is owned by the host application and passed by reference to
// producers and consumers; its lifecycle is the process lifetime. Metrics
// are add-only: once created, a handle is never removed or replaced.
type Registry struct {
	cfg       *config.Config
	log       logrus.FieldLogger
	quantiles []float64

	handles sync.Map // canonical key string -> *handle
	index   *namespace.Index[string]

	mu      sync.Mutex
	ordered []MetricInfo
	names   []string
	nameSet map[string]struct{}
}

// New creates a registry. A nil cfg uses config.Default(); a nil log uses
// the logrus standard logger.
func New(cfg *config.Config, log logrus.FieldLogger) (*Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("metrics registry: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		cfg:       cfg,
		log:       log,
		quantiles: cfg.SortedQuantiles(),
		index:     namespace.New[string](),
		nameSet:   make(map[string]struct{}),
	}, nil
}

// Separator returns the configured namespace separator.
func (r *Registry) Separator() string {
	return r.cfg.Separator
}

// IncCounter adds a non-negative delta to the counter identified by name and
// labels, registering it on first use.
func (r *Registry) IncCounter(name string, labels map[string]string, delta uint64) {
	if h := r.route(KindCounter, name, labels); h != nil {
		h.addCounter(delta)
	}
}

// SetGauge sets the gauge identified by name and labels, registering it on
// first use.
func (r *Registry) SetGauge(name string, labels map[string]string, v float64) {
	if h := r.route(KindGauge, name, labels); h != nil {
		h.setGauge(v)
	}
}

// ObserveHistogram records one observation into the histogram identified by
// name and labels, registering it on first use. Observations accumulate
// until the next snapshot tick flushes them into one summary.
func (r *Registry) ObserveHistogram(name string, labels map[string]string, v float64) {
	if h := r.route(KindHistogram, name, labels); h != nil {
		h.observe(v)
	}
}

// route resolves the handle for a recording call, creating it on first use.
// Malformed names and kind conflicts are logged and return nil; the update
// is dropped without touching existing state.
func (r *Registry) route(kind Kind, name string, labels map[string]string) *handle {
	key := NewKey(name, labels)
	canon := key.String()

	v, ok := r.handles.Load(canon)
	if !ok {
		segments, err := SplitName(name, r.cfg.Separator)
		if err != nil {
			r.log.WithError(err).WithField("metric", name).Warn("dropping metric update")
			return nil
		}
		created := newHandle(key, kind, r.cfg.CapacityFor(name))
		var loaded bool
		v, loaded = r.handles.LoadOrStore(canon, created)
		if !loaded {
			// This goroutine won the insert-if-absent race; it alone
			// publishes the key to the ordered views and the namespace.
			r.publish(key, kind, canon)
			r.index.Insert(segments, canon)
		}
	}

	h := v.(*handle)
	if h.kind != kind {
		r.log.WithFields(logrus.Fields{
			"metric":     canon,
			"registered": h.kind.String(),
			"requested":  kind.String(),
		}).Warn("dropping metric update: kind conflict")
		return nil
	}
	return h
}

func (r *Registry) publish(key Key, kind Kind, canon string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ordered = append(r.ordered, MetricInfo{Key: key, Kind: kind})
	if _, ok := r.nameSet[key.Name()]; !ok {
		r.nameSet[key.Name()] = struct{}{}
		r.names = append(r.names, key.Name())
	}
}

// SnapshotTick advances every handle by one sampling period. The host's
// sampling driver calls this on a fixed cadence; the registry does not
// schedule it itself (see Sampler for an optional driver).
func (r *Registry) SnapshotTick() {
	now := time.Now()
	r.handles.Range(func(_, v any) bool {
		v.(*handle).snapshot(now, r.quantiles)
		return true
	})
}

// Metrics returns every registered metric in registration order.
func (r *Registry) Metrics() []MetricInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MetricInfo, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Names returns the distinct metric names in first-registration order.
// Label variants of the same name appear once.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Children returns the sorted child segments under the given namespace path.
func (r *Registry) Children(path ...string) []string {
	return r.index.ChildrenOf(path...)
}

// Leaves returns the metrics registered exactly at the given namespace path,
// one per label variant.
func (r *Registry) Leaves(path ...string) []MetricInfo {
	ids := r.index.LeavesAt(path...)
	out := make([]MetricInfo, 0, len(ids))
	for _, id := range ids {
		if v, ok := r.handles.Load(id); ok {
			h := v.(*handle)
			out = append(out, MetricInfo{Key: h.key, Kind: h.kind})
		}
	}
	return out
}

// SeriesSnapshot is a read-only copy of one metric's retained history.
// Samples is set for counters and gauges, Summaries for histograms.
type SeriesSnapshot struct {
	Key       Key
	Kind      Kind
	Samples   []Sample
	Summaries []Summary
}

// Series returns a point-in-time copy of the key's series, or ErrNotFound.
func (r *Registry) Series(key Key) (SeriesSnapshot, error) {
	return r.SeriesByID(key.String())
}

// SeriesByID is Series keyed by the canonical key string.
func (r *Registry) SeriesByID(id string) (SeriesSnapshot, error) {
	v, ok := r.handles.Load(id)
	if !ok {
		return SeriesSnapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	h := v.(*handle)
	samples, summaries := h.currentSeries()
	return SeriesSnapshot{
		Key:       h.key,
		Kind:      h.kind,
		Samples:   samples,
		Summaries: summaries,
	}, nil
}
