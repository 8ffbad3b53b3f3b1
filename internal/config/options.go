package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CompilerOptions are the process-wide tunables for the compiler core.
// Loaded from an optional YAML file, mirroring the teacher's use of
// gopkg.in/yaml.v3 in internal/evaluator/builtins_yaml.go for structured
// round-tripping of host values.
type CompilerOptions struct {
	// Debug mirrors runtime.debug (§6 "Diagnostics"): emit one log line per
	// compiled script/procedure carrying its name/code, an estimated closure
	// size and the compile duration (no dump of the compiled code).
	Debug bool `yaml:"debug"`

	// WarpTimerMillis overrides DefaultWarpTimerMillis.
	WarpTimerMillis int `yaml:"warpTimerMillis"`

	// CacheDir, if non-empty, enables the optional compiled-factory cache
	// (internal/cache); the value is used as the path of the SQLite database
	// file itself, not of a directory to create it in. Empty disables it.
	CacheDir string `yaml:"cacheDir"`

	// ColorDiagnostics forces or suppresses ANSI color in diagnostics
	// regardless of isatty detection. nil means "auto" (isatty-detected).
	ColorDiagnostics *bool `yaml:"colorDiagnostics"`
}

// DefaultOptions returns the zero-config baseline: no debug logging, the
// default warp timer, no persistent cache, auto color detection.
func DefaultOptions() CompilerOptions {
	return CompilerOptions{
		Debug:           false,
		WarpTimerMillis: DefaultWarpTimerMillis,
		CacheDir:        "",
		ColorDiagnostics: nil,
	}
}

// LoadOptions reads a YAML options file, falling back to defaults for any
// field the document omits. A missing file is not an error: it returns
// DefaultOptions() unchanged, the way an unset runtime.debug simply means
// "diagnostics off".
func LoadOptions(path string) (CompilerOptions, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if opts.WarpTimerMillis <= 0 {
		opts.WarpTimerMillis = DefaultWarpTimerMillis
	}
	return opts, nil
}
