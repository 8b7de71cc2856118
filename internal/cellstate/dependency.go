package cellstate

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// dependencyIndex maps an auxiliary file to the set of files whose parse
// result depends on it. Two instances exist per CellState, one for
// build-file dependents and one for package-file dependents, because
// invalidate_path's cascade rules treat the two differently.
type dependencyIndex struct {
	sets sync.Map // AbsPath -> mapset.Set[AbsPath]
}

func newDependencyIndex() *dependencyIndex {
	return &dependencyIndex{}
}

// addDependent records that dependent's parse depended on aux: an edit to
// aux must cascade to dependent.
func (d *dependencyIndex) addDependent(aux AbsPath, dependent AbsPath) {
	v, _ := d.sets.LoadOrStore(aux, mapset.NewSet[AbsPath]())
	v.(mapset.Set[AbsPath]).Add(dependent)
}

// dependents returns a snapshot of the files currently registered against
// aux. The returned set is a copy: callers may iterate it while concurrent
// invalidation mutates the index.
func (d *dependencyIndex) dependents(aux AbsPath) mapset.Set[AbsPath] {
	v, ok := d.sets.Load(aux)
	if !ok {
		return mapset.NewSet[AbsPath]()
	}
	return v.(mapset.Set[AbsPath]).Clone()
}

// remove drops aux's entire entry, used once a non-package path finishes its
// cascade. Package-file entries are kept across a package-content change
// since the set of build files depending on the package file is stable.
func (d *dependencyIndex) remove(aux AbsPath) {
	d.sets.Delete(aux)
}
