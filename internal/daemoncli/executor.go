package daemoncli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/jboley/buck/internal/celldescriptor"
	"github.com/jboley/buck/internal/cellstate"
	"github.com/jboley/buck/internal/logging"
	"github.com/jboley/buck/internal/rawparse"
	"github.com/jboley/buck/internal/watcher"
)

// CLIResult is the outcome of one Execute call.
type CLIResult struct {
	ExitCode         int
	InvalidatedCount uint64
	ManifestsLoaded  int
	LoadErrors       error
}

// Execute maps a canonical CLIInvocation to daemon behavior.
func Execute(ctx context.Context, inv CLIInvocation) (CLIResult, error) {
	switch inv.Command {
	case CommandServe:
		return executeServe(ctx, inv.Serve)
	case CommandLoad:
		return executeLoad(inv.Load)
	case CommandInvalidate:
		return executeInvalidate(inv.Invalidate)
	default:
		return CLIResult{ExitCode: ExitValidationError}, fmt.Errorf("unknown command: %q", inv.Command)
	}
}

func resolveCell(name, root string) (*cellstate.CellState, error) {
	fs := afero.NewOsFs()
	desc, err := celldescriptor.ResolveWithConfig(fs, name, root)
	if err != nil {
		return nil, err
	}
	return cellstate.New(desc), nil
}

func executeServe(ctx context.Context, inv ServeInvocation) (CLIResult, error) {
	log := logging.NewLogger(inv.CellName, inv.Debug)

	cs, err := resolveCell(inv.CellName, inv.CellRoot)
	if err != nil {
		return CLIResult{ExitCode: ExitCellError}, err
	}

	loaded, loadErr := loadManifestsInto(cs, inv.CellRoot, "**/*.bcache.json")
	if loadErr != nil {
		log.WithError(loadErr).Warn("one or more manifests failed to load; continuing with the rest")
	}
	log.WithField("manifests_loaded", loaded).Info("initial load complete")

	w, err := watcher.New(cs, inv.CellRoot, log)
	if err != nil {
		return CLIResult{ExitCode: ExitExecutionError}, err
	}
	defer w.Close()

	w.Run(ctx)
	return CLIResult{ExitCode: ExitSuccess, ManifestsLoaded: loaded, LoadErrors: loadErr}, nil
}

func executeLoad(inv LoadInvocation) (CLIResult, error) {
	cs, err := resolveCell(inv.CellName, inv.CellRoot)
	if err != nil {
		return CLIResult{ExitCode: ExitCellError}, err
	}

	loaded, loadErr := loadManifestsInto(cs, inv.CellRoot, inv.ManifestsGlob)
	exitCode := ExitSuccess
	if loadErr != nil {
		exitCode = ExitExecutionError
	}
	return CLIResult{ExitCode: exitCode, ManifestsLoaded: loaded, LoadErrors: loadErr}, nil
}

func executeInvalidate(inv InvalidateInvocation) (CLIResult, error) {
	cs, err := resolveCell(inv.CellName, inv.CellRoot)
	if err != nil {
		return CLIResult{ExitCode: ExitCellError}, err
	}

	loaded, loadErr := loadManifestsInto(cs, inv.CellRoot, "**/*.bcache.json")

	resolved := cellstate.AbsPath(cs.Descriptor().ResolvePath(inv.Path))
	count := cs.InvalidatePath(resolved, inv.InvalidateManifests)
	return CLIResult{ExitCode: ExitSuccess, InvalidatedCount: count, ManifestsLoaded: loaded, LoadErrors: loadErr}, nil
}

// loadManifestsInto walks pattern under root, parsing each match as a build
// file (".bcache.json") or package file (named after the cell's configured
// package-file name) and inserting it into cs. Per-file parse failures are
// aggregated with go-multierror rather than aborting the whole load, so one
// malformed file doesn't block every other target in the cell from becoming
// available.
func loadManifestsInto(cs *cellstate.CellState, root, pattern string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return 0, err
	}

	var errs *multierror.Error
	loaded := 0
	packageFileName := cs.Descriptor().PackageFileName

	for _, match := range matches {
		f, err := os.Open(match)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", match, err))
			continue
		}

		path := cellstate.AbsPath(match)
		if filepath.Base(match) == packageFileName+".bcache.json" {
			manifest, perr := rawparse.ParsePackageFile(f, match)
			f.Close()
			if perr != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", match, perr))
				continue
			}
			cs.PutPackageManifestIfAbsent(path, manifest, nil)
			loaded++
			continue
		}

		manifest, perr := rawparse.ParseBuildFile(f, match)
		f.Close()
		if perr != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", match, perr))
			continue
		}
		if _, perr := cs.PutBuildManifestIfAbsent(path, manifest, nil); perr != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", match, perr))
			continue
		}
		loaded++
	}

	return loaded, errs.ErrorOrNil()
}
