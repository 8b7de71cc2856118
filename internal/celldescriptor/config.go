package celldescriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Config is the strict, on-disk per-cell configuration read from
// <root>/.buckconfig.cells.json. Only the fields below are permitted; any
// other field is a hard error. There is no environment-variable fallback and
// no global/user config location — the only source of truth is this file.
type Config struct {
	PackageFileName    string
	ParsingParallelism int
}

// ErrInvalidConfig wraps every config validation failure so callers can
// errors.Is against one sentinel regardless of which field tripped it.
var ErrInvalidConfig = errors.New("invalid cell config")

// ParseConfig parses and strictly validates cell config JSON. Unknown fields
// are rejected outright rather than silently ignored.
func ParseConfig(data []byte) (Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("%w: parse json: %v", ErrInvalidConfig, err)
	}

	var cfg Config
	for key, value := range raw {
		switch key {
		case "package_file_name":
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return Config{}, fmt.Errorf("%w: package_file_name must be a string", ErrInvalidConfig)
			}
			s = strings.TrimSpace(s)
			if s == "" {
				return Config{}, fmt.Errorf("%w: package_file_name must be non-empty", ErrInvalidConfig)
			}
			cfg.PackageFileName = s
		case "parsing_parallelism":
			var n int
			if err := json.Unmarshal(value, &n); err != nil {
				return Config{}, fmt.Errorf("%w: parsing_parallelism must be an integer", ErrInvalidConfig)
			}
			if n <= 0 {
				return Config{}, fmt.Errorf("%w: parsing_parallelism must be positive", ErrInvalidConfig)
			}
			cfg.ParsingParallelism = n
		default:
			return Config{}, fmt.Errorf("%w: unknown field %q", ErrInvalidConfig, key)
		}
	}

	return cfg, nil
}

// LoadOptionalConfig loads <root>/.buckconfig.cells.json from fs. A missing
// file is not an error: it returns the zero Config, so ResolveWithConfig
// falls back to package defaults.
func LoadOptionalConfig(fs afero.Fs, root string) (Config, bool, error) {
	if strings.TrimSpace(root) == "" {
		return Config{}, false, fmt.Errorf("%w: root is required", ErrInvalidConfig)
	}

	path := root + "/.buckconfig.cells.json"
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		if isNotExist(fs, path) {
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("read config: %w", err)
	}

	cfg, err := ParseConfig(b)
	if err != nil {
		return Config{}, true, err
	}
	return cfg, true, nil
}

// isNotExist reports whether path is simply absent from fs, as opposed to
// some other read failure (permissions, IO error). afero normalizes most
// backends to return an *os.PathError wrapping os.ErrNotExist for a missing
// file, which is what this checks for.
func isNotExist(fs afero.Fs, path string) bool {
	exists, err := afero.Exists(fs, path)
	return err == nil && !exists
}

// ResolveWithConfig is Resolve plus an optional on-disk Config overlay: any
// field left unset in the config falls back to the package defaults that
// Resolve applies.
func ResolveWithConfig(fs afero.Fs, name, root string) (*Descriptor, error) {
	d, err := Resolve(fs, name, root, "", 0)
	if err != nil {
		return nil, err
	}

	cfg, present, err := LoadOptionalConfig(fs, d.Root)
	if err != nil {
		return nil, err
	}
	if !present {
		return d, nil
	}
	if cfg.PackageFileName != "" {
		d.PackageFileName = cfg.PackageFileName
	}
	if cfg.ParsingParallelism > 0 {
		d.ParsingParallelism = cfg.ParsingParallelism
	}
	return d, nil
}
