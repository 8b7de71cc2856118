package cellstate

import mapset "github.com/deckarep/golang-set/v2"

// PathDependentPresentIn answers, without mutating any state, whether any
// file in candidates is registered as a build-file dependent of the file at
// relativePath, i.e. whether editing that file would disturb one of
// candidates. relativePath is resolved against the cell root before the
// lookup.
func (cs *CellState) PathDependentPresentIn(relativePath string, candidates mapset.Set[AbsPath]) bool {
	resolved := AbsPath(cs.desc.Load().ResolvePath(relativePath))
	dependents := cs.buildDeps.dependents(resolved)
	return dependents.Intersect(candidates).Cardinality() > 0
}
