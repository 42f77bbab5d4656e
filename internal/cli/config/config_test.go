package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conduit-lang/typecache/internal/bundle"
	"github.com/conduit-lang/typecache/internal/manifest"
)

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config to be non-nil")
	}

	// Check defaults
	want := []manifest.Source{{Name: "local", Path: "."}}
	if len(cfg.Sources) != 1 || cfg.Sources[0] != want[0] {
		t.Errorf("expected default sources %v, got %v", want, cfg.Sources)
	}

	if cfg.Policy() != bundle.IncludeReferenced {
		t.Errorf("expected default inclusion 'referenced', got %s", cfg.Inclusion)
	}

	if cfg.Workers != 0 {
		t.Errorf("expected default workers 0, got %d", cfg.Workers)
	}

	if cfg.Log.Level != "warn" || cfg.Log.Format != "console" {
		t.Errorf("expected default log warn/console, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}

	if cfg.Output.Format != "tree" {
		t.Errorf("expected default output format 'tree', got %s", cfg.Output.Format)
	}

	if cfg.Server.Addr != "127.0.0.1:8089" {
		t.Errorf("expected default addr '127.0.0.1:8089', got %s", cfg.Server.Addr)
	}

	if cfg.File != "" {
		t.Errorf("expected no config file, got %s", cfg.File)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	// Create temporary directory with config file
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	configContent := `
root: shop
sources:
  - name: app
    path: modules
  - name: vendor
    path: /opt/modules
inclusion: opted-in
workers: 4
log:
  level: debug
  format: json
output:
  format: json
server:
  addr: 0.0.0.0:9000
`
	os.WriteFile("typecache.yml", []byte(configContent), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Root != "shop" {
		t.Errorf("expected root 'shop', got %s", cfg.Root)
	}

	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}

	app := cfg.Sources[0]
	if app.Name != "app" || !filepath.IsAbs(app.Path) || filepath.Base(app.Path) != "modules" {
		t.Errorf("expected relative source resolved against the config dir, got %+v", cfg.Sources[0])
	}

	if cfg.Sources[1].Path != "/opt/modules" {
		t.Errorf("expected absolute source kept, got %s", cfg.Sources[1].Path)
	}

	if cfg.Policy() != bundle.IncludeOptedIn {
		t.Errorf("expected opted-in policy, got %s", cfg.Inclusion)
	}

	if cfg.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Workers)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || cfg.Output.Format != "json" {
		t.Errorf("unexpected log/output settings: %+v %+v", cfg.Log, cfg.Output)
	}

	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("expected addr '0.0.0.0:9000', got %s", cfg.Server.Addr)
	}
}

func TestLoadFileExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "custom.yaml")
	os.WriteFile(path, []byte("sources:\n  - name: here\n    path: catalog\n"), 0644)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if want := filepath.Join(tmpDir, "catalog"); cfg.Sources[0].Path != want {
		t.Errorf("expected source path %s, got %s", want, cfg.Sources[0].Path)
	}

	if _, err := LoadFile(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	t.Setenv("TYPECACHE_WORKERS", "3")
	t.Setenv("TYPECACHE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Workers != 3 {
		t.Errorf("expected workers from environment, got %d", cfg.Workers)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level from environment, got %s", cfg.Log.Level)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"bad inclusion", "inclusion: everything\n", "inclusion"},
		{"negative workers", "workers: -1\n", "workers must not be negative"},
		{"bad log level", "log:\n  level: loud\n", "log.level must be one of"},
		{"bad output", "output:\n  format: xml\n", "output.format must be one of"},
		{"source without path", "sources:\n  - name: a\n", "source a: path is required"},
		{"duplicate source", "sources:\n  - {name: a, path: x}\n  - {name: a, path: y}\n", "defined more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			path := filepath.Join(tmpDir, "typecache.yaml")
			os.WriteFile(path, []byte(tt.content), 0644)

			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("expected error containing %q, got %v", tt.errPart, err)
			}
		})
	}
}

func TestInProject(t *testing.T) {
	// Test in non-project directory
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	if InProject() {
		t.Error("expected InProject to return false in non-project directory")
	}

	os.WriteFile("typecache.yml", []byte(""), 0644)

	if !InProject() {
		t.Error("expected InProject to return true in project directory")
	}
}

func TestGetProjectRoot(t *testing.T) {
	// Create nested directory structure
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	os.WriteFile(filepath.Join(tmpDir, "typecache.yaml"), []byte(""), 0644)

	subDir := filepath.Join(tmpDir, "src", "deep", "nested")
	os.MkdirAll(subDir, 0755)
	os.Chdir(subDir)

	root, err := GetProjectRoot()
	if err != nil {
		t.Fatalf("expected to find project root, got error: %v", err)
	}

	// On macOS, /tmp is symlinked to /private/tmp, so resolve both paths
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	resolvedTmpDir, _ := filepath.EvalSymlinks(tmpDir)

	if resolvedRoot != resolvedTmpDir {
		t.Errorf("expected project root to be %s, got %s", resolvedTmpDir, resolvedRoot)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "typecache.yml")

	cfg := Default()
	cfg.Root = "shop"
	cfg.Inclusion = "opted-in"
	cfg.Sources = []manifest.Source{{Name: "app", Path: "modules"}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("expected no error saving config, got %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("expected saved config to load, got %v", err)
	}
	if loaded.Root != "shop" || loaded.Policy() != bundle.IncludeOptedIn {
		t.Errorf("unexpected round trip: %+v", loaded)
	}
	if want := filepath.Join(tmpDir, "modules"); loaded.Sources[0].Path != want {
		t.Errorf("expected source path %s, got %s", want, loaded.Sources[0].Path)
	}

	bad := Default()
	bad.Output.Format = "xml"
	if err := bad.Save(filepath.Join(tmpDir, "bad.yml")); err == nil {
		t.Error("expected invalid config to be rejected")
	}
}
