package celldescriptor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultPackageFileName is the literal package-file name used when a cell's
// config does not override it.
const DefaultPackageFileName = "PACKAGE"

// DefaultParsingParallelism is used when a cell's config does not specify a
// parallelism hint. The hint is carried on the Descriptor only: the
// concurrent maps in internal/cellstate are unsized and do not read it.
const DefaultParsingParallelism = 8

var (
	// ErrInvalidRoot indicates the cell root could not be resolved to an
	// existing directory.
	ErrInvalidRoot = errors.New("invalid cell root")

	// ErrInvalidName indicates an empty or malformed cell name.
	ErrInvalidName = errors.New("invalid cell name")
)

// Descriptor carries the identity of one cell: its canonical name, its root
// path (already canonicalized, absolute, free of trailing slashes and `.`/`..`
// segments), its package-file name, and its parsing-parallelism hint.
//
// Descriptor is immutable once constructed. CellState holds a replaceable
// pointer to one so that a reconfiguration (e.g. a cell's root moving because
// a symlink was repointed) can be applied without rebuilding every cache —
// see CellState.SwapDescriptor.
type Descriptor struct {
	Name               string
	Root               string
	PackageFileName    string
	ParsingParallelism int
}

// Resolve validates name and resolves root (which may be relative) against
// fs into a canonical absolute Descriptor. An empty packageFileName or
// non-positive parallelism falls back to the package defaults.
func Resolve(fs afero.Fs, name, root, packageFileName string, parallelism int) (*Descriptor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	clean := filepath.Clean(strings.TrimSpace(root))
	if clean == "" || clean == "." {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}
	abs := clean
	if !filepath.IsAbs(abs) {
		a, err := filepath.Abs(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
		}
		abs = a
	}
	abs = filepath.Clean(abs)

	info, err := fs.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, abs)
	}

	pfn := strings.TrimSpace(packageFileName)
	if pfn == "" {
		pfn = DefaultPackageFileName
	}
	if parallelism <= 0 {
		parallelism = DefaultParsingParallelism
	}

	return &Descriptor{
		Name:               name,
		Root:               abs,
		PackageFileName:    pfn,
		ParsingParallelism: parallelism,
	}, nil
}

// ResolvePath canonicalizes a path relative to d.Root into an absolute path.
// Absolute inputs are cleaned and returned as-is (still resolved relative to
// the same filesystem view, never relative to the process's real CWD).
func (d *Descriptor) ResolvePath(p string) string {
	clean := filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(clean) {
		return clean
	}
	return filepath.Clean(filepath.Join(d.Root, clean))
}
