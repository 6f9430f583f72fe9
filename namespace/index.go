// Package namespace maintains a hierarchical index over metric name
// segments. The tree is append-only: inserting a path never removes or
// replaces existing nodes, matching metrics being permanent once registered.
package namespace

import (
	"sort"
	"sync"
)

// Index is a tree of name segments with leaves of type K registered at
// terminal nodes. Safe for concurrent use: inserts take the write lock for
// one short walk, reads take the read lock, and a node is wired to its
// parent before it becomes visible.
type Index[K comparable] struct {
	mu     sync.RWMutex
	root   *node[K]
	seen   map[K]struct{}
	leaves []K
}

type node[K comparable] struct {
	children map[string]*node[K]
	leaves   []K
}

func newNode[K comparable]() *node[K] {
	return &node[K]{children: make(map[string]*node[K])}
}

// New creates an empty index.
func New[K comparable]() *Index[K] {
	return &Index[K]{
		root: newNode[K](),
		seen: make(map[K]struct{}),
	}
}

// Insert walks the path, creating nodes as needed, and records the leaf at
// the terminal node. Inserting the same (path, leaf) pair again is a no-op.
func (ix *Index[K]) Insert(path []string, leaf K) {
	if len(path) == 0 {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.seen[leaf]; ok {
		return
	}
	ix.seen[leaf] = struct{}{}
	ix.leaves = append(ix.leaves, leaf)

	n := ix.root
	for _, seg := range path {
		child, ok := n.children[seg]
		if !ok {
			child = newNode[K]()
			n.children[seg] = child
		}
		n = child
	}
	n.leaves = append(n.leaves, leaf)
}

// ChildrenOf returns the sorted child segment names under the given path. An
// empty path addresses the root. Unknown paths return nil.
func (ix *Index[K]) ChildrenOf(path ...string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := ix.lookup(path)
	if n == nil || len(n.children) == 0 {
		return nil
	}
	out := make([]string, 0, len(n.children))
	for seg := range n.children {
		out = append(out, seg)
	}
	sort.Strings(out)
	return out
}

// LeavesAt returns the leaves registered exactly at the given path.
func (ix *Index[K]) LeavesAt(path ...string) []K {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := ix.lookup(path)
	if n == nil || len(n.leaves) == 0 {
		return nil
	}
	out := make([]K, len(n.leaves))
	copy(out, n.leaves)
	return out
}

// AllLeaves returns every registered leaf in insertion order.
func (ix *Index[K]) AllLeaves() []K {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.leaves) == 0 {
		return nil
	}
	out := make([]K, len(ix.leaves))
	copy(out, ix.leaves)
	return out
}

// lookup must be called with at least the read lock held.
func (ix *Index[K]) lookup(path []string) *node[K] {
	n := ix.root
	for _, seg := range path {
		child, ok := n.children[seg]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}
