// Package query is the read-only snapshot API consumed by visualization
// layers. Every call returns a point-in-time copy of committed state and
// never mutates the registry.
package query

import (
	"github.com/pulseboard/pulseboard/registry"
	"github.com/pulseboard/pulseboard/search"
)

// ErrNotFound is returned by SeriesFor for unregistered keys.
var ErrNotFound = registry.ErrNotFound

// Facade exposes the registry, namespace tree, and fuzzy search to
// consumers. It holds a shared reference to the registry and tolerates
// concurrent mutation; it never blocks writers.
type Facade struct {
	reg *registry.Registry
}

// New creates a facade over reg.
func New(reg *registry.Registry) *Facade {
	return &Facade{reg: reg}
}

// Separator returns the registry's namespace separator.
func (f *Facade) Separator() string {
	return f.reg.Separator()
}

// ListMetrics returns every registered metric in registration order.
func (f *Facade) ListMetrics() []registry.MetricInfo {
	return f.reg.Metrics()
}

// TreeChildren returns the sorted child segments under a namespace path.
// An empty path addresses the root.
func (f *Facade) TreeChildren(path ...string) []string {
	return f.reg.Children(path...)
}

// TreeLeaves returns the metrics registered exactly at a namespace path,
// one per label variant.
func (f *Facade) TreeLeaves(path ...string) []registry.MetricInfo {
	return f.reg.Leaves(path...)
}

// Search ranks the distinct metric names against a fuzzy query. An empty
// query returns all names unranked.
func (f *Facade) Search(q string) []search.Result {
	return search.Rank(q, f.reg.Names())
}

// SeriesFor returns a copy of the key's retained series, or ErrNotFound.
func (f *Facade) SeriesFor(key registry.Key) (registry.SeriesSnapshot, error) {
	return f.reg.Series(key)
}

// SeriesByID is SeriesFor keyed by the canonical key string, as produced by
// registry.Key.String.
func (f *Facade) SeriesByID(id string) (registry.SeriesSnapshot, error) {
	return f.reg.SeriesByID(id)
}
