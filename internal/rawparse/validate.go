package rawparse

import "fmt"

func validateSchemaVersion(path, version string) error {
	if version == "" {
		return &SchemaError{Path: path, Field: "schema_version", Msg: "required field is missing"}
	}
	if version != SupportedSchemaVersion {
		return &SchemaError{Path: path, Field: "schema_version", Msg: fmt.Sprintf("unsupported version %q, expected %q", version, SupportedSchemaVersion)}
	}
	return nil
}

func validateBuildFile(path string, doc *buildFileDocument) error {
	if err := validateSchemaVersion(path, doc.SchemaVersion); err != nil {
		return err
	}
	if doc.Package == "" {
		return &SchemaError{Path: path, Field: "package", Msg: "required field is missing"}
	}

	seen := make(map[string]struct{}, len(doc.Targets))
	for i, target := range doc.Targets {
		if target.Name == "" {
			return &SchemaError{Path: path, Field: fmt.Sprintf("targets[%d].name", i), Msg: "required field is missing"}
		}
		if target.RuleType == "" {
			return &SchemaError{Path: path, Field: fmt.Sprintf("targets[%d].rule_type", i), Msg: "required field is missing"}
		}
		if _, dup := seen[target.Name]; dup {
			return &SchemaError{Path: path, Field: fmt.Sprintf("targets[%d].name", i), Msg: fmt.Sprintf("duplicate target name %q", target.Name)}
		}
		seen[target.Name] = struct{}{}
	}
	return nil
}

func validatePackageFile(path string, doc *packageFileDocument) error {
	return validateSchemaVersion(path, doc.SchemaVersion)
}
