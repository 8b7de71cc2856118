package cellstate

import (
	"strings"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/jboley/buck/internal/celldescriptor"
)

// CellState is the per-cell cache + dependency-graph + invalidation engine.
// One instance exists per cell; it never reads or invalidates another
// cell's state.
//
// Lock discipline: lock guards mutation ordering across every cache and
// index below. Readers (Lookup*, PathDependentPresentIn) take no lock at
// all. Inserters (Put*IfAbsent, the computed-cache Put helpers) take a read
// lock — concurrent inserts are serialized only by their own concurrent
// maps. Invalidators (InvalidatePath) take the write lock for the whole
// cascade.
type CellState struct {
	desc atomic.Pointer[celldescriptor.Descriptor]
	lock deadlock.RWMutex

	buildManifests   sync.Map // AbsPath -> *BuildFileManifest
	packageManifests sync.Map // AbsPath -> *PackageFileManifest

	rawTargets  mapset.Set[UnflavoredBuildTarget]
	targetIndex *targetIndex

	buildDeps   *dependencyIndex
	packageDeps *dependencyIndex

	rawNodeCache        *ComputedNodeCache[UnconfiguredBuildTarget, UnconfiguredTargetNode]
	configuredNodeCache *ComputedNodeCache[BuildTarget, MaybeIncompatibleTargetNode]
}

// New constructs an empty CellState for the given cell descriptor. The
// descriptor is held behind an atomic pointer, a deliberately weak coupling,
// so SwapDescriptor can replace it on reconfiguration without rebuilding any
// cache.
func New(descriptor *celldescriptor.Descriptor) *CellState {
	cs := &CellState{
		rawTargets:  mapset.NewSet[UnflavoredBuildTarget](),
		targetIndex: newTargetIndex(),
		buildDeps:   newDependencyIndex(),
		packageDeps: newDependencyIndex(),
	}
	cs.desc.Store(descriptor)
	cs.rawNodeCache = newComputedNodeCache[UnconfiguredBuildTarget, UnconfiguredTargetNode](
		RawNodeKind,
		func(k UnconfiguredBuildTarget) UnconfiguredBuildTarget { return k },
		func(k UnconfiguredBuildTarget) UnflavoredBuildTarget { return k.Unflavored() },
	)
	cs.configuredNodeCache = newComputedNodeCache[BuildTarget, MaybeIncompatibleTargetNode](
		ConfiguredNodeKind,
		func(k BuildTarget) UnconfiguredBuildTarget { return k.Unconfigured() },
		func(k BuildTarget) UnflavoredBuildTarget { return k.Unconfigured().Unflavored() },
	)
	return cs
}

// Descriptor returns the cell's current descriptor.
func (cs *CellState) Descriptor() *celldescriptor.Descriptor {
	return cs.desc.Load()
}

// SwapDescriptor atomically replaces the cell descriptor, e.g. when
// .buckconfig.cells.json is edited. Existing caches are left untouched.
func (cs *CellState) SwapDescriptor(d *celldescriptor.Descriptor) {
	cs.desc.Store(d)
}

// CellRoot returns the cell's root path.
func (cs *CellState) CellRoot() AbsPath {
	return AbsPath(cs.desc.Load().Root)
}

// RawNodeCache returns the handle for the RAW_NODE computed cache.
func (cs *CellState) RawNodeCache() *ComputedNodeCache[UnconfiguredBuildTarget, UnconfiguredTargetNode] {
	return cs.rawNodeCache
}

// ConfiguredNodeCache returns the handle for the CONFIGURED_NODE computed
// cache.
func (cs *CellState) ConfiguredNodeCache() *ComputedNodeCache[BuildTarget, MaybeIncompatibleTargetNode] {
	return cs.configuredNodeCache
}

func (cs *CellState) allComputedCaches() []anyComputedCache {
	return []anyComputedCache{cs.rawNodeCache, cs.configuredNodeCache}
}

// PutComputedNode performs cache's put_if_absent under the cell state's read
// lock, asserting I1 on a win. Go has no generic methods, so this lives as a
// package-level function parametric over the same (K, V) the target cache
// was built with.
func PutComputedNode[K comparable, V any](cs *CellState, cache *ComputedNodeCache[K, V], key K, value V) V {
	cs.lock.RLock()
	defer cs.lock.RUnlock()
	return cache.putIfAbsent(key, value, cs.targetIndex, cs.rawTargets)
}

// ComputeNodeIfAbsent coalesces concurrent computations of the same key
// before falling back to PutComputedNode's semantics.
func ComputeNodeIfAbsent[K comparable, V any](cs *CellState, cache *ComputedNodeCache[K, V], key K, compute func() (V, error)) (V, error) {
	cs.lock.RLock()
	defer cs.lock.RUnlock()
	return cache.GetOrCompute(key, cs.targetIndex, cs.rawTargets, compute)
}

// PutRawNode is the RAW_NODE convenience wrapper over PutComputedNode.
func (cs *CellState) PutRawNode(key UnconfiguredBuildTarget, value UnconfiguredTargetNode) UnconfiguredTargetNode {
	return PutComputedNode(cs, cs.rawNodeCache, key, value)
}

// LookupRawNode is a lock-free point read.
func (cs *CellState) LookupRawNode(key UnconfiguredBuildTarget) (UnconfiguredTargetNode, bool) {
	return cs.rawNodeCache.Lookup(key)
}

// PutConfiguredNode is the CONFIGURED_NODE convenience wrapper over
// PutComputedNode.
func (cs *CellState) PutConfiguredNode(key BuildTarget, value MaybeIncompatibleTargetNode) MaybeIncompatibleTargetNode {
	return PutComputedNode(cs, cs.configuredNodeCache, key, value)
}

// LookupConfiguredNode is a lock-free point read.
func (cs *CellState) LookupConfiguredNode(key BuildTarget) (MaybeIncompatibleTargetNode, bool) {
	return cs.configuredNodeCache.Lookup(key)
}

// LookupBuildManifest is a lock-free point read.
func (cs *CellState) LookupBuildManifest(path AbsPath) (*BuildFileManifest, bool) {
	v, ok := cs.buildManifests.Load(path)
	if !ok {
		return nil, false
	}
	return v.(*BuildFileManifest), true
}

// LookupPackageManifest is a lock-free point read.
func (cs *CellState) LookupPackageManifest(path AbsPath) (*PackageFileManifest, bool) {
	v, ok := cs.packageManifests.Load(path)
	if !ok {
		return nil, false
	}
	return v.(*PackageFileManifest), true
}

// rawTargetFor resolves one manifest target to its unflavored identity using
// only the cell's own name and the manifest's own package path. This step
// can fail with ErrTargetParse; it never calls out to the external parser,
// which has already produced the RawTargetNode by the time it reaches
// PutBuildManifestIfAbsent.
func (cs *CellState) rawTargetFor(shortName string, node RawTargetNode) (UnflavoredBuildTarget, error) {
	shortName = strings.TrimSpace(shortName)
	pkg := strings.TrimSpace(node.PackagePath)
	if shortName == "" || pkg == "" {
		return UnflavoredBuildTarget{}, &TargetParseError{
			ShortName: shortName,
			Err:       ErrTargetParse,
		}
	}
	return UnflavoredBuildTarget{
		Cell:        cs.desc.Load().Name,
		PackagePath: pkg,
		ShortName:   shortName,
	}, nil
}

func (cs *CellState) unflavoredTargetsOf(manifest *BuildFileManifest) ([]UnflavoredBuildTarget, error) {
	out := make([]UnflavoredBuildTarget, 0, len(manifest.TargetOrder))
	for _, name := range manifest.TargetOrder {
		t, err := cs.rawTargetFor(name, manifest.Targets[name])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// PutBuildManifestIfAbsent inserts manifest at path if absent, and either
// way adds every target of the manifest actually cached at path to
// RawTargetSet; if this call won the race, it registers path as a dependent
// of every file in dependents.
func (cs *CellState) PutBuildManifestIfAbsent(path AbsPath, manifest *BuildFileManifest, dependents mapset.Set[AbsPath]) (*BuildFileManifest, error) {
	targets, err := cs.unflavoredTargetsOf(manifest)
	if err != nil {
		if tpe, ok := err.(*TargetParseError); ok {
			tpe.Path = path
		}
		return nil, err
	}

	cs.lock.RLock()
	defer cs.lock.RUnlock()

	actual, loaded := cs.buildManifests.LoadOrStore(path, manifest)
	result := actual.(*BuildFileManifest)

	resultTargets := targets
	if loaded && result != manifest {
		resultTargets, err = cs.unflavoredTargetsOf(result)
		if err != nil {
			return nil, err
		}
	}
	for _, t := range resultTargets {
		cs.rawTargets.Add(t)
	}

	if !loaded && dependents != nil {
		for _, aux := range dependents.ToSlice() {
			cs.buildDeps.addDependent(aux, path)
		}
	}
	return result, nil
}

// PutPackageManifestIfAbsent is the package-manifest analogue of
// PutBuildManifestIfAbsent. Package manifests carry no raw targets, so there
// is no RawTargetSet bookkeeping here.
func (cs *CellState) PutPackageManifestIfAbsent(path AbsPath, manifest *PackageFileManifest, dependents mapset.Set[AbsPath]) *PackageFileManifest {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	actual, loaded := cs.packageManifests.LoadOrStore(path, manifest)
	result := actual.(*PackageFileManifest)

	if !loaded && dependents != nil {
		for _, aux := range dependents.ToSlice() {
			cs.packageDeps.addDependent(aux, path)
		}
	}
	return result
}
