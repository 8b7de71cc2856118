package rawparse

import (
	"sort"

	"github.com/samber/lo"
)

// normalizeTarget canonicalizes a decoded target into deterministic
// AttributeKeys order (alphabetical: JSON objects carry no ordering of
// their own) and deduplicated, sorted Visibility/WithinView slices.
func normalizeTarget(t targetDocument) (attrKeys []string) {
	attrKeys = make([]string, 0, len(t.Attributes))
	for k := range t.Attributes {
		attrKeys = append(attrKeys, k)
	}
	sort.Strings(attrKeys)
	sort.Strings(t.Visibility)
	sort.Strings(t.WithinView)
	return attrKeys
}

// dedupSorted returns items deduplicated and sorted lexicographically, so a
// manifest's glob/parent-ref lists serialize identically regardless of the
// order the source document declared them in.
func dedupSorted(items []string) []string {
	uniq := lo.Uniq(items)
	sort.Strings(uniq)
	return uniq
}
