package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig("vesper.toml", `
[package]
name = "demo"
`)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Package.Name != "demo" {
		t.Fatalf("name = %q, want demo", cfg.Package.Name)
	}
	if cfg.Limits.MaxDepth != DefaultMaxDepth {
		t.Fatalf("max depth = %d, want default %d", cfg.Limits.MaxDepth, DefaultMaxDepth)
	}
	if cfg.Limits.MaxDiagnostics != DefaultMaxDiagnostics {
		t.Fatalf("max diagnostics = %d, want default %d", cfg.Limits.MaxDiagnostics, DefaultMaxDiagnostics)
	}
}

func TestParseConfigFull(t *testing.T) {
	cfg, err := ParseConfig("vesper.toml", `
[package]
name = "demo"

[expand]
sources = ["src/*.vsp"]
report = "out/instantiations.msgpack"

[limits]
max_depth = 32
max_diagnostics = 8
`)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if len(cfg.Expand.Sources) != 1 || cfg.Expand.Sources[0] != "src/*.vsp" {
		t.Fatalf("sources = %v", cfg.Expand.Sources)
	}
	if cfg.Expand.Report != "out/instantiations.msgpack" {
		t.Fatalf("report = %q", cfg.Expand.Report)
	}
	if cfg.Limits.MaxDepth != 32 || cfg.Limits.MaxDiagnostics != 8 {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
}

func TestParseConfigRejectsMissingName(t *testing.T) {
	if _, err := ParseConfig("vesper.toml", "[package]\n"); err == nil {
		t.Fatalf("expected an error for the missing name")
	}
	if _, err := ParseConfig("vesper.toml", "[limits]\nmax_depth = 4\n"); err == nil {
		t.Fatalf("expected an error for the missing package table")
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifest := filepath.Join(root, "vesper.toml")
	if err := os.WriteFile(manifest, []byte("[package]\nname = \"demo\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	path, ok, err := FindManifest(sub)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%v err=%v", ok, err)
	}
	if path != manifest {
		t.Fatalf("path = %q, want %q", path, manifest)
	}
	m, ok, err := LoadFrom(sub)
	if err != nil || !ok {
		t.Fatalf("LoadFrom: ok=%v err=%v", ok, err)
	}
	if m.Root != root {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
}

func TestFindManifestAbsent(t *testing.T) {
	_, ok, err := FindManifest(t.TempDir())
	if err != nil {
		t.Fatalf("FindManifest: %v", err)
	}
	if ok {
		t.Fatalf("found a manifest where none exists")
	}
}
