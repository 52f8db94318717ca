// Package project locates and loads the vesper.toml manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a loaded vesper.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package PackageConfig `toml:"package"`
	Expand  ExpandConfig  `toml:"expand"`
	Limits  LimitsConfig  `toml:"limits"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

// ExpandConfig drives the expand command: which sources to instantiate and
// where to write the instantiation report.
type ExpandConfig struct {
	Sources []string `toml:"sources"`
	Report  string   `toml:"report"`
}

type LimitsConfig struct {
	MaxDepth       uint `toml:"max_depth"`
	MaxDiagnostics uint `toml:"max_diagnostics"`
}

const (
	DefaultMaxDepth       = 256
	DefaultMaxDiagnostics = 64
)

// FindManifest walks up from startDir to locate vesper.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "vesper.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses the manifest at path and applies limit defaults.
func Load(path string) (*Manifest, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, nil
}

// LoadFrom finds and loads the manifest governing startDir.
func LoadFrom(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := validate(path, meta, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig parses manifest text without touching the filesystem.
func ParseConfig(path, text string) (Config, error) {
	var cfg Config
	meta, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := validate(path, meta, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(path string, meta toml.MetaData, cfg *Config) error {
	if !meta.IsDefined("package") {
		return fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return fmt.Errorf("%s: missing [package].name", path)
	}
	for _, src := range cfg.Expand.Sources {
		if strings.TrimSpace(src) == "" {
			return fmt.Errorf("%s: empty entry in [expand].sources", path)
		}
	}
	if cfg.Limits.MaxDepth == 0 {
		cfg.Limits.MaxDepth = DefaultMaxDepth
	}
	if cfg.Limits.MaxDiagnostics == 0 {
		cfg.Limits.MaxDiagnostics = DefaultMaxDiagnostics
	}
	return nil
}

// SourcePaths resolves the [expand].sources globs against the project root.
// Without an explicit list every .vsp file under the root is used.
func (m *Manifest) SourcePaths() ([]string, error) {
	if len(m.Config.Expand.Sources) == 0 {
		return globSources(filepath.Join(m.Root, "*.vsp"))
	}
	var out []string
	for _, pattern := range m.Config.Expand.Sources {
		matches, err := globSources(filepath.Join(m.Root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}

func globSources(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad source pattern %q: %w", pattern, err)
	}
	return matches, nil
}
