package celldescriptor

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func TestParseConfig_ValidFields(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"package_file_name":"BUCK.package","parsing_parallelism":16}`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.PackageFileName != "BUCK.package" {
		t.Errorf("PackageFileName = %q", cfg.PackageFileName)
	}
	if cfg.ParsingParallelism != 16 {
		t.Errorf("ParsingParallelism = %d", cfg.ParsingParallelism)
	}
}

func TestParseConfig_RejectsUnknownField(t *testing.T) {
	_, err := ParseConfig([]byte(`{"package_file_name":"PACKAGE","extra":true}`))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestParseConfig_RejectsNonPositiveParallelism(t *testing.T) {
	_, err := ParseConfig([]byte(`{"parsing_parallelism":0}`))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadOptionalConfig_MissingFileIsNotAnError(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/repo", 0o755)

	cfg, present, err := LoadOptionalConfig(fs, "/repo")
	if err != nil {
		t.Fatalf("LoadOptionalConfig: %v", err)
	}
	if present {
		t.Fatal("expected present=false for missing config file")
	}
	if cfg != (Config{}) {
		t.Fatalf("expected zero Config, got %+v", cfg)
	}
}

func TestResolveWithConfig_OverlayAppliesOnTopOfDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/repo/cells/root", 0o755)
	afero.WriteFile(fs, "/repo/cells/root/.buckconfig.cells.json", []byte(`{"package_file_name":"PACKAGE.bzl"}`), 0o644)

	d, err := ResolveWithConfig(fs, "root", "/repo/cells/root")
	if err != nil {
		t.Fatalf("ResolveWithConfig: %v", err)
	}
	if d.PackageFileName != "PACKAGE.bzl" {
		t.Errorf("PackageFileName = %q, want PACKAGE.bzl", d.PackageFileName)
	}
	if d.ParsingParallelism != DefaultParsingParallelism {
		t.Errorf("ParsingParallelism = %d, want default %d", d.ParsingParallelism, DefaultParsingParallelism)
	}
}
