// Package rawparse is the external parser boundary: it turns the on-disk
// JSON form of a build file or package file into the
// cellstate.BuildFileManifest / cellstate.PackageFileManifest structures the
// cache layer stores. It has no knowledge of caching, invalidation, or
// dependency indices — it only decodes and validates one file at a time.
package rawparse
