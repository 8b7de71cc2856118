package cellstate

import "path/filepath"

// InvalidatePath runs the cascading invalidation engine. It runs under the
// cell state's write lock for its entire cascade and returns the number of
// raw target nodes invalidated across every recursive step.
//
// A path absent from every cache and index is a legal no-op returning 0.
func (cs *CellState) InvalidatePath(path AbsPath, invalidateManifests bool) uint64 {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	return cs.invalidatePathLocked(path, invalidateManifests, make(map[AbsPath]struct{}))
}

// stack guards against unbounded recursion on a malformed cyclic dependency
// graph, which is treated as input malformation rather than something the
// cache silently tolerates. It tracks only the current call stack, not every
// path ever visited in this
// invocation, since a legitimate diamond-shaped dependency DAG can and does
// reach the same path twice from different branches without cycling.
func (cs *CellState) invalidatePathLocked(path AbsPath, invalidateManifests bool, stack map[AbsPath]struct{}) uint64 {
	if _, onStack := stack[path]; onStack {
		return 0
	}
	stack[path] = struct{}{}
	defer delete(stack, path)

	var count uint64

	// Step A: invalidate nodes at path itself.
	if manifest, ok := cs.LookupBuildManifest(path); ok {
		for _, name := range manifest.TargetOrder {
			unflavored, err := cs.rawTargetFor(name, manifest.Targets[name])
			if err != nil {
				continue
			}
			for _, c := range cs.allComputedCaches() {
				c.invalidateForAny(unflavored, cs.targetIndex)
			}
			if invalidateManifests {
				cs.rawTargets.Remove(unflavored)
			}
			count++
		}
	}

	// Step B: manifests.
	if invalidateManifests {
		cs.buildManifests.Delete(path)
		cs.packageManifests.Delete(path)
	}

	// Step C: classify path.
	isPackageFile := cs.isPackageFile(path)

	// Step D: cascade through build-file dependents.
	for _, d := range cs.buildDeps.dependents(path).ToSlice() {
		if d == path {
			continue
		}
		if isPackageFile {
			count += cs.invalidateNodesInPath(d)
		} else {
			count += cs.invalidatePathLocked(d, true, stack)
		}
	}
	if !isPackageFile {
		cs.buildDeps.remove(path)
	}

	// Step E: cascade through package-file dependents.
	for _, d := range cs.packageDeps.dependents(path).ToSlice() {
		if d == path {
			continue
		}
		if isPackageFile {
			count += cs.invalidatePathLocked(d, false, stack)
		} else {
			count += cs.invalidatePathLocked(d, true, stack)
		}
	}
	if !isPackageFile {
		cs.packageDeps.remove(path)
	}

	// Step F.
	return count
}

// invalidateNodesInPath invalidates only the computed-node cascade for
// targets declared in path, leaving path's own manifest and RawTargetSet
// membership untouched. Used by Step D when a package file's content change
// needs to invalidate the nodes of build files it injects metadata into,
// without forcing those build files to be re-parsed (their own parse result
// did not change).
func (cs *CellState) invalidateNodesInPath(path AbsPath) uint64 {
	manifest, ok := cs.LookupBuildManifest(path)
	if !ok {
		return 0
	}
	var count uint64
	for _, name := range manifest.TargetOrder {
		unflavored, err := cs.rawTargetFor(name, manifest.Targets[name])
		if err != nil {
			continue
		}
		for _, c := range cs.allComputedCaches() {
			c.invalidateForAny(unflavored, cs.targetIndex)
		}
		count++
	}
	return count
}

// isPackageFile reports whether path's base name matches the cell's
// configured package-file name.
func (cs *CellState) isPackageFile(path AbsPath) bool {
	return filepath.Base(string(path)) == cs.desc.Load().PackageFileName
}
