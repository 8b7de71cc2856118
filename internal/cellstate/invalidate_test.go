package cellstate

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/require"
)

// A package-file change cascades into its build-file dependents' node
// caches only — it must not remove their manifests or RawTargetSet entries.
func TestInvalidatePath_PackageFileCascadeSparesBuildManifest(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	buildPath := AbsPath("/root/path/to/BUCK")
	pkgPath := AbsPath("/root/path/to/PACKAGE")

	_, err := cs.PutBuildManifestIfAbsent(buildPath, buildManifest("target"), mapset.NewSet[AbsPath](pkgPath))
	require.NoError(t, err)

	key := NewUnconfiguredBuildTarget(UnflavoredBuildTarget{Cell: "root", PackagePath: "path/to", ShortName: "target"}, nil)
	cs.PutRawNode(key, UnconfiguredTargetNode{Target: key})

	cs.PutPackageManifestIfAbsent(pkgPath, &PackageFileManifest{}, nil)

	count := cs.InvalidatePath(pkgPath, true)
	require.Equal(t, uint64(1), count)

	_, nodeStillCached := cs.LookupRawNode(key)
	require.False(t, nodeStillCached, "node cache must be invalidated")

	_, manifestStillCached := cs.LookupBuildManifest(buildPath)
	require.True(t, manifestStillCached, "build file's own manifest must survive a package-only change")
}

// An ordinary auxiliary/script change cascades through the build dependency
// index and re-invalidates the whole downstream manifest.
func TestInvalidatePath_ScriptChangeInvalidatesDownstreamManifest(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	scriptPath := AbsPath("/root/path/to/helper.bzl")
	buildPath := AbsPath("/root/path/to/BUCK")

	_, err := cs.PutBuildManifestIfAbsent(buildPath, buildManifest("target"), mapset.NewSet[AbsPath](scriptPath))
	require.NoError(t, err)

	count := cs.InvalidatePath(scriptPath, true)
	require.Equal(t, uint64(1), count)

	_, ok := cs.LookupBuildManifest(buildPath)
	require.False(t, ok, "a script change must invalidate the whole downstream manifest")

	key := UnflavoredBuildTarget{Cell: "root", PackagePath: "path/to", ShortName: "target"}
	require.False(t, rawTargetSetContains(cs, key))
}

// A parent-package invalidation (Step E, package-file branch) invalidates
// the child package file's node cascade but leaves the child's own manifest
// intact — it is not re-parsed.
func TestInvalidatePath_ParentPackageCascadeSparesChildManifest(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	parentPkg := AbsPath("/root/PACKAGE")
	childPkg := AbsPath("/root/path/to/PACKAGE")

	cs.PutPackageManifestIfAbsent(parentPkg, &PackageFileManifest{}, nil)
	childManifest := &PackageFileManifest{Metadata: map[string]string{"v": "1"}}
	got := cs.PutPackageManifestIfAbsent(childPkg, childManifest, mapset.NewSet[AbsPath](parentPkg))
	require.Same(t, childManifest, got)

	cs.InvalidatePath(parentPkg, true)

	_, childStillCached := cs.LookupPackageManifest(childPkg)
	require.True(t, childStillCached, "a parent-package invalidation must not re-parse the child package file")
}

// Dep-closure: a manifest declared with dependent d is fully removed,
// including its RawTargetSet entries, when d is invalidated.
func TestInvalidatePath_DepClosureRemovesRawTargets(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	p1 := AbsPath("/root/a/BUCK")
	d := AbsPath("/root/a/helper.bzl")

	_, err := cs.PutBuildManifestIfAbsent(p1, buildManifest("x", "y"), mapset.NewSet[AbsPath](d))
	require.NoError(t, err)

	cs.InvalidatePath(d, true)

	_, ok := cs.LookupBuildManifest(p1)
	require.False(t, ok)
	require.False(t, rawTargetSetContains(cs, UnflavoredBuildTarget{Cell: "root", PackagePath: "path/to", ShortName: "x"}))
	require.False(t, rawTargetSetContains(cs, UnflavoredBuildTarget{Cell: "root", PackagePath: "path/to", ShortName: "y"}))
}

func rawTargetSetContains(cs *CellState, t UnflavoredBuildTarget) bool {
	return cs.rawTargets.Contains(t)
}
