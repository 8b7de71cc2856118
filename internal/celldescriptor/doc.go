// Package celldescriptor resolves and validates the identity of a single
// cell: its canonical name, its root path on disk, and the handful of
// per-cell knobs (package-file name, parsing parallelism) carried into the
// cache layer in internal/cellstate at construction time.
//
// Resolution goes through an afero.Fs so tests can run against
// afero.NewMemMapFs() instead of touching the real filesystem, the same
// swappable-filesystem-boundary style internal/projectintegration's
// workspace resolver uses against the real OS filesystem.
package celldescriptor
