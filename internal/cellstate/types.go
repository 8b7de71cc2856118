package cellstate

import (
	"sort"
	"strings"
)

// AbsPath is a canonicalized absolute file path. Two AbsPaths are equal iff
// they are byte-identical after canonicalization; canonicalization itself is
// the caller's responsibility (celldescriptor.Descriptor.ResolvePath).
type AbsPath string

// UnflavoredBuildTarget identifies a rule as declared in a build file,
// without configuration or flavor decoration. It is the unit of invalidation:
// invalidating an unflavored target removes every flavored/configured
// variant derived from it.
type UnflavoredBuildTarget struct {
	Cell        string
	PackagePath string
	ShortName   string
}

// String renders the target the way build tooling conventionally does:
// cell//package/path:short_name.
func (t UnflavoredBuildTarget) String() string {
	var b strings.Builder
	b.WriteString(t.Cell)
	b.WriteString("//")
	b.WriteString(t.PackagePath)
	b.WriteByte(':')
	b.WriteString(t.ShortName)
	return b.String()
}

// UnconfiguredBuildTarget is an UnflavoredBuildTarget plus an optional,
// order-independent flavor set. The flavor set is stored pre-canonicalized
// (sorted, deduplicated, joined) so the struct stays comparable and usable as
// a plain map key without a custom Equal/Hash pair.
type UnconfiguredBuildTarget struct {
	UnflavoredBuildTarget
	Flavors string // canonical form: sorted flavor names joined by "#"
}

// NewUnconfiguredBuildTarget canonicalizes flavors into a stable key so two
// callers supplying the same flavor set in different orders produce an equal
// UnconfiguredBuildTarget.
func NewUnconfiguredBuildTarget(base UnflavoredBuildTarget, flavors []string) UnconfiguredBuildTarget {
	return UnconfiguredBuildTarget{
		UnflavoredBuildTarget: base,
		Flavors:               canonicalFlavors(flavors),
	}
}

func canonicalFlavors(flavors []string) string {
	if len(flavors) == 0 {
		return ""
	}
	uniq := make(map[string]struct{}, len(flavors))
	out := make([]string, 0, len(flavors))
	for _, f := range flavors {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := uniq[f]; ok {
			continue
		}
		uniq[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return strings.Join(out, "#")
}

// Unflavored projects an UnconfiguredBuildTarget back to its unflavored
// parent, dropping the flavor decoration.
func (t UnconfiguredBuildTarget) Unflavored() UnflavoredBuildTarget {
	return t.UnflavoredBuildTarget
}

// String renders cell//package:short_name[flavor1#flavor2].
func (t UnconfiguredBuildTarget) String() string {
	if t.Flavors == "" {
		return t.UnflavoredBuildTarget.String()
	}
	return t.UnflavoredBuildTarget.String() + "[" + t.Flavors + "]"
}

// BuildTarget is a fully configured target: an UnconfiguredBuildTarget plus a
// configuration reference. Configuration is an opaque, comparable string
// here — the resolver that produces configured nodes owns the scheme used to
// name configurations; this package only needs it to be a stable map key.
type BuildTarget struct {
	UnconfiguredBuildTarget
	Configuration string
}

// Unconfigured projects a BuildTarget back to its UnconfiguredBuildTarget,
// dropping the configuration.
func (t BuildTarget) Unconfigured() UnconfiguredBuildTarget {
	return t.UnconfiguredBuildTarget
}

// String renders cell//package:short_name[flavors](configuration).
func (t BuildTarget) String() string {
	if t.Configuration == "" {
		return t.UnconfiguredBuildTarget.String()
	}
	return t.UnconfiguredBuildTarget.String() + "(" + t.Configuration + ")"
}
