// Package daemoncli parses the bcache daemon's command-line invocation into
// a canonical, typed structure, one flag set per subcommand.
package daemoncli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitCellError       = 2
	ExitExecutionError  = 3
)

type Command string

const (
	CommandServe      Command = "serve"
	CommandLoad       Command = "load"
	CommandInvalidate Command = "invalidate"
)

// ServeInvocation starts the daemon's long-lived watch loop for one cell.
type ServeInvocation struct {
	CellName string
	CellRoot string
	Debug    bool
}

// LoadInvocation bulk-loads every build/package file under a directory into
// a fresh cell state, reporting aggregate parse failures, then exits.
type LoadInvocation struct {
	CellName      string
	CellRoot      string
	ManifestsGlob string
}

// InvalidateInvocation loads the cell's manifests into a fresh cell state,
// runs a single invalidate_path call against it and prints the invalidated
// count — mainly a
// diagnostic/scripting entry point, since the daemon normally drives
// invalidation from its filesystem watcher instead.
type InvalidateInvocation struct {
	CellName            string
	CellRoot            string
	Path                string
	InvalidateManifests bool
}

// CLIInvocation is the canonical parsed invocation: exactly one subcommand
// field is populated, selected by Command.
type CLIInvocation struct {
	Command    Command
	Serve      ServeInvocation
	Load       LoadInvocation
	Invalidate InvalidateInvocation
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitValidationError, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation parses CLI flags into a canonical CLIInvocation.
func ParseInvocation(args []string) (CLIInvocation, error) {
	if len(args) == 0 {
		return CLIInvocation{}, invalidInvocationf("missing subcommand")
	}

	sub := strings.TrimSpace(args[0])
	rest := args[1:]

	switch Command(sub) {
	case CommandServe:
		fs := flag.NewFlagSet("bcache serve", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		var cellName, cellRoot string
		var debug bool
		fs.StringVar(&cellName, "cell", "", "Canonical cell name. Required.")
		fs.StringVar(&cellRoot, "root", "", "Cell root directory. Required.")
		fs.BoolVar(&debug, "debug", false, "Enable human-readable debug logging.")
		if err := fs.Parse(rest); err != nil {
			return CLIInvocation{}, invalidInvocationf("%v", err)
		}
		if fs.NArg() != 0 {
			return CLIInvocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
		}
		if strings.TrimSpace(cellName) == "" {
			return CLIInvocation{}, invalidInvocationf("--cell is required")
		}
		rootAbs, err := cleanAbsPath(cellRoot, "--root")
		if err != nil {
			return CLIInvocation{}, err
		}
		return CLIInvocation{Command: CommandServe, Serve: ServeInvocation{
			CellName: cellName,
			CellRoot: rootAbs,
			Debug:    debug,
		}}, nil

	case CommandLoad:
		fs := flag.NewFlagSet("bcache load", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		var cellName, cellRoot, manifestsGlob string
		fs.StringVar(&cellName, "cell", "", "Canonical cell name. Required.")
		fs.StringVar(&cellRoot, "root", "", "Cell root directory. Required.")
		fs.StringVar(&manifestsGlob, "manifests", "**/*.bcache.json", "Glob (relative to root) of manifest files to load.")
		if err := fs.Parse(rest); err != nil {
			return CLIInvocation{}, invalidInvocationf("%v", err)
		}
		if fs.NArg() != 0 {
			return CLIInvocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
		}
		if strings.TrimSpace(cellName) == "" {
			return CLIInvocation{}, invalidInvocationf("--cell is required")
		}
		rootAbs, err := cleanAbsPath(cellRoot, "--root")
		if err != nil {
			return CLIInvocation{}, err
		}
		return CLIInvocation{Command: CommandLoad, Load: LoadInvocation{
			CellName:      cellName,
			CellRoot:      rootAbs,
			ManifestsGlob: manifestsGlob,
		}}, nil

	case CommandInvalidate:
		fs := flag.NewFlagSet("bcache invalidate", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		var cellName, cellRoot, path string
		var invalidateManifests bool
		fs.StringVar(&cellName, "cell", "", "Canonical cell name. Required.")
		fs.StringVar(&cellRoot, "root", "", "Cell root directory. Required.")
		fs.StringVar(&path, "path", "", "Path to invalidate, absolute or relative to root. Required.")
		fs.BoolVar(&invalidateManifests, "invalidate-manifests", true, "Also remove cached manifests at path.")
		if err := fs.Parse(rest); err != nil {
			return CLIInvocation{}, invalidInvocationf("%v", err)
		}
		if fs.NArg() != 0 {
			return CLIInvocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
		}
		if strings.TrimSpace(cellName) == "" {
			return CLIInvocation{}, invalidInvocationf("--cell is required")
		}
		if strings.TrimSpace(path) == "" {
			return CLIInvocation{}, invalidInvocationf("--path is required")
		}
		rootAbs, err := cleanAbsPath(cellRoot, "--root")
		if err != nil {
			return CLIInvocation{}, err
		}
		return CLIInvocation{Command: CommandInvalidate, Invalidate: InvalidateInvocation{
			CellName:            cellName,
			CellRoot:            rootAbs,
			Path:                path,
			InvalidateManifests: invalidateManifests,
		}}, nil

	default:
		return CLIInvocation{}, invalidInvocationf("unknown subcommand %q", sub)
	}
}

func cleanAbsPath(p, flagName string) (string, error) {
	clean := filepath.Clean(strings.TrimSpace(p))
	if clean == "" || clean == "." {
		return "", invalidInvocationf("%s is required", flagName)
	}
	if filepath.IsAbs(clean) {
		return clean, nil
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", flagName, err)
	}
	return abs, nil
}

// ExitCode extracts a semantic exit code from a ParseInvocation error.
func ExitCode(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitValidationError
	}
	if err == nil {
		return ExitSuccess
	}
	return ExitExecutionError
}
