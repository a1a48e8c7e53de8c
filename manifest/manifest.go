// Package manifest handles cayo.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/cayo/pkg/bytecode"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "cayo.toml"

// Manifest represents a cayo.toml configuration.
type Manifest struct {
	VM     VM     `toml:"vm"`
	Log    Log    `toml:"log"`
	Output Output `toml:"output"`
	Store  Store  `toml:"store"`

	// Dir is the directory containing the cayo.toml file (set at load time).
	// Empty for Default().
	Dir string `toml:"-"`
}

// VM configures the interpreter.
type VM struct {
	Trace     bool `toml:"trace"`
	KeepStack bool `toml:"keep-stack"`
}

// Log configures the logging backend.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Output configures chunk files written by the CLI.
type Output struct {
	Format string `toml:"format"`
}

// Store configures the chunk database. An empty path disables it.
type Store struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no cayo.toml exists.
func Default() *Manifest {
	return &Manifest{
		Output: Output{Format: string(bytecode.FormatBinary)},
	}
}

// Load parses a cayo.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Relative paths are taken from the manifest directory
	m.Log.File = m.resolve(m.Log.File)
	m.Store.Path = m.resolve(m.Store.Path)

	return m, nil
}

// FindAndLoad walks up from startDir to find a cayo.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Dir, path)
}

func (m *Manifest) validate() error {
	if _, err := bytecode.ParseFormat(m.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if m.Log.Verbosity < -4 || m.Log.Verbosity > 2 {
		return fmt.Errorf("log.verbosity %d out of range -4..2", m.Log.Verbosity)
	}
	return nil
}

// VMConfig returns the interpreter settings. TraceOutput is left for the
// caller to set.
func (m *Manifest) VMConfig() bytecode.Config {
	return bytecode.Config{
		Trace:     m.VM.Trace,
		KeepStack: m.VM.KeepStack,
	}
}

// OutputFormat returns the configured chunk file format.
func (m *Manifest) OutputFormat() bytecode.Format {
	f, err := bytecode.ParseFormat(m.Output.Format)
	if err != nil {
		return bytecode.FormatBinary
	}
	return f
}
