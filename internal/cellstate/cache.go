package cellstate

import (
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/singleflight"
)

// CacheKind tags one computed-node cache. CellState carries exactly two
// kinds: RawNodeKind (keyed by UnconfiguredBuildTarget) and
// ConfiguredNodeKind (keyed by BuildTarget), each with the two projection
// functions every kind needs. There is no way to register further kinds.
type CacheKind string

const (
	// RawNodeKind caches UnconfiguredTargetNodes, keyed by
	// UnconfiguredBuildTarget (a RawTargetNode plus cell context, before any
	// configuration is applied).
	RawNodeKind CacheKind = "RAW_NODE"

	// ConfiguredNodeKind caches MaybeIncompatibleTargetNodes, keyed by the
	// fully configured BuildTarget.
	ConfiguredNodeKind CacheKind = "CONFIGURED_NODE"
)

// anyComputedCache is the type-erased v-table every ComputedNodeCache[K, V]
// satisfies, so CellState can hold a heterogeneous registry of differently
// keyed/valued caches behind one CacheKind tag.
type anyComputedCache interface {
	kind() CacheKind
	// invalidateForAny removes every key currently indexed under unflavored
	// from this cache's value map. Must only be called with the cell
	// state's write lock held.
	invalidateForAny(unflavored UnflavoredBuildTarget, index *targetIndex)
}

// ComputedNodeCache is one keyed cache of computed nodes of kind K. Reads
// (Lookup) never block a writer; putIfAbsent is coordinated by the
// underlying concurrent map plus the cell state's read lock (see
// PutComputedNode), never the write lock.
type ComputedNodeCache[K comparable, V any] struct {
	k      CacheKind
	values sync.Map // K -> V

	projUnconfigured func(K) UnconfiguredBuildTarget
	projUnflavored   func(K) UnflavoredBuildTarget

	group singleflight.Group // coalesces concurrent GetOrCompute calls per key
}

// newComputedNodeCache constructs an empty cache of the given kind with the
// two projection functions every CacheKind carries.
func newComputedNodeCache[K comparable, V any](
	k CacheKind,
	toUnconfigured func(K) UnconfiguredBuildTarget,
	toUnflavored func(K) UnflavoredBuildTarget,
) *ComputedNodeCache[K, V] {
	return &ComputedNodeCache[K, V]{
		k:                k,
		projUnconfigured: toUnconfigured,
		projUnflavored:   toUnflavored,
	}
}

func (c *ComputedNodeCache[K, V]) kind() CacheKind { return c.k }

// Lookup is a pure read: it never blocks a writer and never takes the cell
// state's lock.
func (c *ComputedNodeCache[K, V]) Lookup(key K) (V, bool) {
	v, ok := c.values.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), ok
}

// putIfAbsent is atomic: it returns the value that ends up cached for key,
// which is either the caller's value (if this call won the race) or the
// value some concurrent caller already inserted (if it lost). On a win, it
// registers key into index[projUnflavored(key)] and asserts I1 (raw-cover)
// against rawTargets, panicking with an InvariantViolationError if it does
// not hold — callers of CellState's exported Put* methods only ever reach
// here already holding the cell state's read lock.
func (c *ComputedNodeCache[K, V]) putIfAbsent(key K, value V, index *targetIndex, rawTargets mapset.Set[UnflavoredBuildTarget]) V {
	actual, loaded := c.values.LoadOrStore(key, value)
	won := !loaded
	result := actual.(V)
	if !won {
		return result
	}

	unflavored := c.projUnflavored(key)
	if !rawTargets.Contains(unflavored) {
		panic(&InvariantViolationError{
			Invariant: "I1",
			Msg:       fmt.Sprintf("computed node key %v projects to unflavored target %v, which is not in RawTargetSet", key, unflavored),
		})
	}
	index.add(c.k, unflavored, anyKey{value: key})
	return result
}

// GetOrCompute coalesces concurrent calls for the same key into a single
// invocation of compute: if N goroutines call GetOrCompute(key, ...)
// concurrently before any value is cached, only one runs compute; the rest
// block and receive its result. This covers the case where constructing a
// value is itself expensive (e.g. a resolver call), as opposed to
// putIfAbsent, which assumes the caller already has a value in hand.
func (c *ComputedNodeCache[K, V]) GetOrCompute(key K, index *targetIndex, rawTargets mapset.Set[UnflavoredBuildTarget], compute func() (V, error)) (V, error) {
	if v, ok := c.Lookup(key); ok {
		return v, nil
	}

	sfKey := fmt.Sprintf("%v", key)
	v, err, _ := c.group.Do(sfKey, func() (any, error) {
		if v, ok := c.Lookup(key); ok {
			return v, nil
		}
		value, err := compute()
		if err != nil {
			var zero V
			return zero, err
		}
		return c.putIfAbsent(key, value, index, rawTargets), nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// invalidateForAny implements anyComputedCache.invalidateForAny: it removes
// from values every key the target index currently associates with
// unflavored, then forgets those keys were ever indexed. Must be called only
// with the cell state's write lock held.
func (c *ComputedNodeCache[K, V]) invalidateForAny(unflavored UnflavoredBuildTarget, index *targetIndex) {
	keys := index.take(c.k, unflavored)
	for _, ak := range keys {
		c.values.Delete(ak.value.(K))
	}
}

// anyKey boxes a generic cache key so targetIndex, which is shared across
// every CacheKind, can hold keys of differing concrete types behind one
// comparable wrapper.
type anyKey struct {
	value any
}
