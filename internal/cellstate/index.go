package cellstate

import "sync"

// targetIndex maps (CacheKind, UnflavoredBuildTarget) to every cache key
// registered against it, implementing the index-cover invariant I2: every
// computed node reachable from RawTargetSet is reachable from this index
// too, so invalidate_for(unflavored) can delete exactly the cache entries a
// file change invalidates, one CacheKind at a time.
//
// add is called by concurrent putIfAbsent winners holding the cell state's
// read lock; take is called by invalidate_path holding the write lock. The
// internal mutex only ever guards concurrent adds against each other, since
// the outer cell state lock already excludes add from running concurrently
// with take.
type targetIndex struct {
	mu      sync.Mutex
	entries map[CacheKind]map[UnflavoredBuildTarget][]anyKey
}

func newTargetIndex() *targetIndex {
	return &targetIndex{
		entries: make(map[CacheKind]map[UnflavoredBuildTarget][]anyKey),
	}
}

func (idx *targetIndex) add(k CacheKind, unflavored UnflavoredBuildTarget, key anyKey) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	byTarget, ok := idx.entries[k]
	if !ok {
		byTarget = make(map[UnflavoredBuildTarget][]anyKey)
		idx.entries[k] = byTarget
	}
	byTarget[unflavored] = append(byTarget[unflavored], key)
}

// take removes and returns every key registered under (k, unflavored).
func (idx *targetIndex) take(k CacheKind, unflavored UnflavoredBuildTarget) []anyKey {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	byTarget, ok := idx.entries[k]
	if !ok {
		return nil
	}
	keys := byTarget[unflavored]
	delete(byTarget, unflavored)
	return keys
}

// unflavoredTargets reports every UnflavoredBuildTarget this index has at
// least one registered key for, across every kind.
func (idx *targetIndex) unflavoredTargets() []UnflavoredBuildTarget {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	seen := make(map[UnflavoredBuildTarget]struct{})
	for _, byTarget := range idx.entries {
		for t, keys := range byTarget {
			if len(keys) > 0 {
				seen[t] = struct{}{}
			}
		}
	}
	out := make([]UnflavoredBuildTarget, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	return out
}
