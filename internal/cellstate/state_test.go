package cellstate

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/jboley/buck/internal/celldescriptor"
)

func newTestCellState(t *testing.T, name, root string) *CellState {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(root, 0o755))
	desc, err := celldescriptor.Resolve(fs, name, root, "", 0)
	require.NoError(t, err)
	return New(desc)
}

func buildManifest(shortNames ...string) *BuildFileManifest {
	targets := make(map[string]RawTargetNode, len(shortNames))
	for _, n := range shortNames {
		targets[n] = RawTargetNode{PackagePath: "path/to", RuleTypeName: "rule"}
	}
	return &BuildFileManifest{
		Targets:     targets,
		TargetOrder: append([]string{}, shortNames...),
	}
}

// Scenario 1: put-computed-node-if-absent.
func TestPutComputedNodeIfAbsent_FirstWriterWins(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	manifest := buildManifest("target")
	_, err := cs.PutBuildManifestIfAbsent("/root/path/to/BUCK", manifest, nil)
	require.NoError(t, err)

	key := NewUnconfiguredBuildTarget(UnflavoredBuildTarget{Cell: "root", PackagePath: "path/to", ShortName: "target"}, nil)
	n1 := UnconfiguredTargetNode{Target: key, RuleTypeName: "rule_v1"}
	n2 := UnconfiguredTargetNode{Target: key, RuleTypeName: "rule_v2"}

	got1 := cs.PutRawNode(key, n1)
	require.Equal(t, n1, got1)

	got2 := cs.PutRawNode(key, n2)
	require.Equal(t, n1, got2, "second insert must return the first winner's value")

	looked, ok := cs.LookupRawNode(key)
	require.True(t, ok)
	require.Equal(t, n1, looked)
}

// Scenario 2: cell-qualified invalidation.
func TestInvalidatePath_CellQualified(t *testing.T) {
	cs := newTestCellState(t, "xplat", "/xplat")

	manifest := buildManifest("target")
	path := AbsPath("/xplat/path/to/BUCK")
	_, err := cs.PutBuildManifestIfAbsent(path, manifest, nil)
	require.NoError(t, err)

	key := NewUnconfiguredBuildTarget(UnflavoredBuildTarget{Cell: "xplat", PackagePath: "path/to", ShortName: "target"}, nil)
	cs.PutRawNode(key, UnconfiguredTargetNode{Target: key})

	// Re-insert the same manifest: a no-op race loser.
	_, err = cs.PutBuildManifestIfAbsent(path, manifest, nil)
	require.NoError(t, err)

	count := cs.InvalidatePath(path, true)
	require.Equal(t, uint64(1), count)

	_, ok := cs.LookupRawNode(key)
	require.False(t, ok)
}

// Scenario 3: package manifest put-if-absent.
func TestPutPackageManifestIfAbsent_FirstWriterWins(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	p := AbsPath("/root/path/to/PACKAGE")
	m1 := &PackageFileManifest{Metadata: map[string]string{"v": "1"}}
	m2 := &PackageFileManifest{Metadata: map[string]string{"v": "2"}}

	got1 := cs.PutPackageManifestIfAbsent(p, m1, nil)
	require.Same(t, m1, got1)

	got2 := cs.PutPackageManifestIfAbsent(p, m2, nil)
	require.Same(t, m1, got2)
}

// Scenario 4: unrelated path invalidation leaves an unrelated manifest alone.
func TestInvalidatePath_UnrelatedPathIsNoop(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	p := AbsPath("/root/path/to/PACKAGE")
	m := &PackageFileManifest{Metadata: map[string]string{"v": "1"}}
	cs.PutPackageManifestIfAbsent(p, m, nil)

	q := AbsPath("/root/other/path/PACKAGE")
	count := cs.InvalidatePath(q, true)
	require.Equal(t, uint64(0), count)

	got, ok := cs.LookupPackageManifest(p)
	require.True(t, ok)
	require.Same(t, m, got)
}

// Scenario 5: direct package-file invalidation.
func TestInvalidatePath_DirectPackageFile(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	p := AbsPath("/root/path/to/PACKAGE")
	m := &PackageFileManifest{Metadata: map[string]string{"v": "1"}}
	cs.PutPackageManifestIfAbsent(p, m, nil)

	cs.InvalidatePath(p, true)

	_, ok := cs.LookupPackageManifest(p)
	require.False(t, ok)
}

// Scenario 6: dependent-triggered invalidation.
func TestInvalidatePath_DependentTriggered(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	p := AbsPath("/root/path/to/PACKAGE")
	d := AbsPath("/root/path/to/pkg_dependent.bzl")
	m := &PackageFileManifest{Metadata: map[string]string{"v": "1"}}

	cs.PutPackageManifestIfAbsent(p, m, mapset.NewSet[AbsPath](d))

	count := cs.InvalidatePath(d, true)
	require.Equal(t, uint64(0), count, "package manifests carry no raw targets to count")

	_, ok := cs.LookupPackageManifest(p)
	require.False(t, ok)
}

// Idempotent invalidation: the second call is a no-op returning 0.
func TestInvalidatePath_Idempotent(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	path := AbsPath("/root/path/to/BUCK")
	_, err := cs.PutBuildManifestIfAbsent(path, buildManifest("a", "b"), nil)
	require.NoError(t, err)

	first := cs.InvalidatePath(path, true)
	require.Equal(t, uint64(2), first)

	second := cs.InvalidatePath(path, true)
	require.Equal(t, uint64(0), second)
}

// I1 (raw-cover): a computed node may not be inserted whose unflavored
// target is absent from RawTargetSet.
func TestPutComputedNode_PanicsOnRawCoverViolation(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")

	key := NewUnconfiguredBuildTarget(UnflavoredBuildTarget{Cell: "root", PackagePath: "never/seen", ShortName: "target"}, nil)

	require.Panics(t, func() {
		cs.PutRawNode(key, UnconfiguredTargetNode{Target: key})
	})
}

// Put-wins-once under concurrency: N goroutines racing PutRawNode for the
// same key must all observe the same winning value afterward.
func TestPutRawNode_ConcurrentInsertsAgreeOnOneWinner(t *testing.T) {
	cs := newTestCellState(t, "root", "/root")
	_, err := cs.PutBuildManifestIfAbsent(AbsPath("/root/p/BUCK"), buildManifest("t"), nil)
	require.NoError(t, err)

	key := NewUnconfiguredBuildTarget(UnflavoredBuildTarget{Cell: "root", PackagePath: "path/to", ShortName: "t"}, nil)

	const n = 32
	results := make([]UnconfiguredTargetNode, n)
	done := make(chan int, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			results[i] = cs.PutRawNode(key, UnconfiguredTargetNode{Target: key, RuleTypeName: "variant"})
			done <- i
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}

	want := results[0]
	for _, r := range results {
		require.Equal(t, want, r)
	}
}
