package registry

import (
	"fmt"
	"sort"
	"strings"
)

// Label is one name/value pair attached to a metric key.
type Label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Key identifies a metric: a separator-joined name path plus an optional
// label set. Two keys with the same name but different label sets are
// distinct metrics. Keys are immutable once created.
type Key struct {
	name   string
	labels []Label
	canon  string
}

// NewKey builds a key from a name and an optional label map. Labels are
// ordered by name so that equal label sets always produce the same key.
func NewKey(name string, labels map[string]string) Key {
	k := Key{name: name}
	if len(labels) > 0 {
		k.labels = make([]Label, 0, len(labels))
		for n, v := range labels {
			k.labels = append(k.labels, Label{Name: n, Value: v})
		}
		sort.Slice(k.labels, func(i, j int) bool {
			return k.labels[i].Name < k.labels[j].Name
		})
	}
	k.canon = formatKey(k.name, k.labels)
	return k
}

// Name returns the full metric name.
func (k Key) Name() string {
	return k.name
}

// Labels returns a copy of the label set, ordered by label name.
func (k Key) Labels() []Label {
	if len(k.labels) == 0 {
		return nil
	}
	out := make([]Label, len(k.labels))
	copy(out, k.labels)
	return out
}

// String returns the canonical form of the key, e.g. `http.requests{code=200}`.
// Keys are equal exactly when their canonical forms are equal.
func (k Key) String() string {
	return k.canon
}

// Segments splits the name on the given separator.
func (k Key) Segments(sep string) []string {
	return strings.Split(k.name, sep)
}

func formatKey(name string, labels []Label) string {
	if len(labels) == 0 {
		return name
	}
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('{')
	for i, l := range labels {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(l.Name)
		sb.WriteByte('=')
		sb.WriteString(l.Value)
	}
	sb.WriteByte('}')
	return sb.String()
}

// SplitName validates a metric name against the separator and returns its
// segments. A name is malformed if it is empty or contains an empty segment,
// which includes leading, trailing, and doubled separators.
func SplitName(name, sep string) ([]string, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	segments := strings.Split(name, sep)
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidName, name)
		}
	}
	return segments, nil
}
