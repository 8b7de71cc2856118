package rawparse

import (
	"encoding/json"
	"io"

	"github.com/jboley/buck/internal/cellstate"
)

// ParseBuildFile decodes and validates one build file's JSON representation
// into a cellstate.BuildFileManifest. path is used only for error messages;
// it does not need to be the file's real on-disk path.
func ParseBuildFile(r io.Reader, path string) (*cellstate.BuildFileManifest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc buildFileDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if err := validateBuildFile(path, &doc); err != nil {
		return nil, err
	}

	targets := make(map[string]cellstate.RawTargetNode, len(doc.Targets))
	order := make([]string, 0, len(doc.Targets))
	for _, t := range doc.Targets {
		attrKeys := normalizeTarget(t)
		targets[t.Name] = cellstate.RawTargetNode{
			PackagePath:   doc.Package,
			RuleTypeName:  t.RuleType,
			Visibility:    dedupSorted(t.Visibility),
			WithinView:    dedupSorted(t.WithinView),
			AttributeKeys: attrKeys,
			Attributes:    t.Attributes,
		}
		order = append(order, t.Name)
	}

	includes := make(map[cellstate.AbsPath]struct{}, len(doc.Includes))
	for _, inc := range doc.Includes {
		includes[cellstate.AbsPath(inc)] = struct{}{}
	}

	return &cellstate.BuildFileManifest{
		Targets:     targets,
		TargetOrder: order,
		Includes:    includes,
		Globs:       dedupSorted(doc.Globs),
		Metadata:    doc.Metadata,
	}, nil
}

// ParsePackageFile decodes and validates one package file's JSON
// representation into a cellstate.PackageFileManifest.
func ParsePackageFile(r io.Reader, path string) (*cellstate.PackageFileManifest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc packageFileDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if err := validatePackageFile(path, &doc); err != nil {
		return nil, err
	}

	includes := make(map[cellstate.AbsPath]struct{}, len(doc.Includes))
	for _, inc := range doc.Includes {
		includes[cellstate.AbsPath(inc)] = struct{}{}
	}

	return &cellstate.PackageFileManifest{
		Metadata:          doc.Metadata,
		ParentPackageRefs: dedupSorted(doc.ParentPackageRefs),
		Attributes:        doc.Attributes,
		Includes:          includes,
	}, nil
}
