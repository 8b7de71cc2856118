package rawparse

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/jboley/buck/internal/cellstate"
)

// ComputeManifestHash computes a stable, deterministic hash of a build file
// manifest's target content. It is keyed off TargetOrder (already
// deterministic: insertion order from the source document) rather than map
// iteration, so the hash never depends on Go's randomized map ordering.
func ComputeManifestHash(m *cellstate.BuildFileManifest) (string, error) {
	type hashable struct {
		Name string                  `json:"name"`
		Node cellstate.RawTargetNode `json:"node"`
	}
	ordered := make([]hashable, 0, len(m.TargetOrder))
	for _, name := range m.TargetOrder {
		ordered = append(ordered, hashable{Name: name, Node: m.Targets[name]})
	}

	data, err := json.Marshal(ordered)
	if err != nil {
		return "", &DecodeError{Path: "<manifest>", Err: err}
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
