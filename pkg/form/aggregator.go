package form

import "sync"

// Aggregator tracks whether any node of a tree changed since the tree was
// last marked clean, and notifies listeners once per clean→dirty transition.
type Aggregator struct {
	mu         sync.Mutex
	tree       *Tree
	dirty      bool
	savedOnce  bool
	generation uint64
	listeners  []func()
}

// NewAggregator attaches an aggregator to the root of tree. It replaces any
// change listener previously installed with Tree.OnChange.
func NewAggregator(tree *Tree) *Aggregator {
	a := &Aggregator{tree: tree}
	tree.OnChange(a.changed)
	return a
}

// Observe registers fn to be called on every clean→dirty transition.
func (a *Aggregator) Observe(fn func()) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	a.listeners = append(a.listeners, fn)
	a.mu.Unlock()
}

func (a *Aggregator) changed(*Node) {
	a.mu.Lock()
	a.generation++
	if a.dirty {
		a.mu.Unlock()
		return
	}
	a.dirty = true
	listeners := append([]func(){}, a.listeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Dirty reports whether an edit happened since construction or the last
// MarkClean.
func (a *Aggregator) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

// SavedOnce reports whether MarkClean was called at least once.
func (a *Aggregator) SavedOnce() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.savedOnce
}

// Generation counts change signals; it lets callers detect edits that
// happened after a snapshot was taken.
func (a *Aggregator) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// Extractor returns the aggregated value-extraction function of the tree.
func (a *Aggregator) Extractor() ValueFunc {
	return a.tree.Extractor()
}

// Tree returns the tree the aggregator observes.
func (a *Aggregator) Tree() *Tree {
	return a.tree
}

// MarkClean resets the dirty flag after an accepted save, clears every
// node's touched flag and re-arms notification.
func (a *Aggregator) MarkClean() {
	a.mu.Lock()
	a.dirty = false
	a.savedOnce = true
	a.mu.Unlock()
	a.tree.clearTouched()
}

// MarkCleanAt marks the tree clean only if no change signal arrived since
// generation was read. Otherwise the tree stays dirty, savedOnce is still
// recorded, and false is returned.
func (a *Aggregator) MarkCleanAt(generation uint64) bool {
	a.mu.Lock()
	a.savedOnce = true
	if a.generation != generation {
		a.mu.Unlock()
		return false
	}
	a.dirty = false
	a.mu.Unlock()
	a.tree.clearTouched()
	return true
}
