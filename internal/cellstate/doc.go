// Package cellstate implements the daemonic per-cell cache: the concurrent
// build-file/package-file manifest caches, the computed-node caches keyed by
// cache kind, the two dependency indices, and the cascading invalidation
// engine that keeps them all consistent as files change on disk.
//
// One CellState is owned by exactly one cell. It never reaches across cells;
// cascading invalidation across cell boundaries is the caller's
// responsibility (see cell/DaemonicCellState in the parser daemon this
// package backs).
package cellstate
