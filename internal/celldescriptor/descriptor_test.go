package celldescriptor

import (
	"testing"

	"github.com/spf13/afero"
)

func TestResolve_Defaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/repo/cells/root", 0o755); err != nil {
		t.Fatal(err)
	}

	d, err := Resolve(fs, "root", "/repo/cells/root", "", 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d.PackageFileName != DefaultPackageFileName {
		t.Errorf("PackageFileName = %q, want %q", d.PackageFileName, DefaultPackageFileName)
	}
	if d.ParsingParallelism != DefaultParsingParallelism {
		t.Errorf("ParsingParallelism = %d, want %d", d.ParsingParallelism, DefaultParsingParallelism)
	}
}

func TestResolve_RejectsEmptyName(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/repo/cells/root", 0o755)

	if _, err := Resolve(fs, "  ", "/repo/cells/root", "", 0); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestResolve_RejectsMissingRoot(t *testing.T) {
	fs := afero.NewMemMapFs()

	if _, err := Resolve(fs, "root", "/does/not/exist", "", 0); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestResolvePath_JoinsRelativeAgainstRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/repo/cells/root", 0o755)
	d, err := Resolve(fs, "root", "/repo/cells/root", "", 0)
	if err != nil {
		t.Fatal(err)
	}

	got := d.ResolvePath("path/to/BUCK")
	want := "/repo/cells/root/path/to/BUCK"
	if got != want {
		t.Errorf("ResolvePath = %q, want %q", got, want)
	}
}

func TestResolvePath_CleansAbsoluteInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/repo/cells/root", 0o755)
	d, err := Resolve(fs, "root", "/repo/cells/root", "", 0)
	if err != nil {
		t.Fatal(err)
	}

	got := d.ResolvePath("/already/absolute/../absolute/BUCK")
	want := "/already/absolute/BUCK"
	if got != want {
		t.Errorf("ResolvePath = %q, want %q", got, want)
	}
}
