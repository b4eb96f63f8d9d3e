package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path == "" {
		t.Error("DefaultConfigPath() returned empty string")
	}

	// Should end with config.yaml
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("DefaultConfigPath() = %q, should end with config.yaml", path)
	}

	// Should contain .brook directory
	dir := filepath.Dir(path)
	if filepath.Base(dir) != ".brook" {
		t.Errorf("DefaultConfigPath() = %q, should be in .brook directory", path)
	}
}

func TestDefaultConfigPathPlatform(t *testing.T) {
	path := DefaultConfigPath()

	if runtime.GOOS == "windows" {
		// Should use USERPROFILE on Windows
		userProfile := os.Getenv("USERPROFILE")
		if userProfile != "" && !strings.HasPrefix(path, userProfile) {
			t.Logf("Note: path %q doesn't start with USERPROFILE %q", path, userProfile)
		}
	} else {
		// Should use HOME on Unix
		home := os.Getenv("HOME")
		if home != "" && !strings.HasPrefix(path, home) {
			t.Logf("Note: path %q doesn't start with HOME %q", path, home)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	if err != nil {
		t.Errorf("LoadConfig() error = %v, want nil for missing file", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfig() returned nil config")
	}

	// Should return empty config
	if cfg.DefaultEndpoint != "" {
		t.Errorf("DefaultEndpoint = %q, want empty", cfg.DefaultEndpoint)
	}
	if cfg.ChunkSize != 0 {
		t.Errorf("ChunkSize = %d, want 0", cfg.ChunkSize)
	}
	if cfg.Endpoints == nil {
		t.Error("Endpoints map is nil")
	}
}

func TestLoadConfigValid(t *testing.T) {
	// Create temp config file
	content := `
default_endpoint: origin
chunk_size: 4096
read_timeout: 30s

endpoints:
  origin:
    base_url: https://files.example.com
    token_ref: origin_token
  mirror:
    base_url: https://mirror.example.com
`
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DefaultEndpoint != "origin" {
		t.Errorf("DefaultEndpoint = %q, want origin", cfg.DefaultEndpoint)
	}
	if cfg.ChunkSize != 4096 {
		t.Errorf("ChunkSize = %d, want 4096", cfg.ChunkSize)
	}
	if time.Duration(cfg.ReadTimeout) != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want 30s", time.Duration(cfg.ReadTimeout))
	}
	if len(cfg.Endpoints) != 2 {
		t.Errorf("len(Endpoints) = %d, want 2", len(cfg.Endpoints))
	}

	origin := cfg.Endpoints["origin"]
	if origin.BaseURL != "https://files.example.com" {
		t.Errorf("origin.BaseURL = %q, want https://files.example.com", origin.BaseURL)
	}
	if origin.TokenRef != "origin_token" {
		t.Errorf("origin.TokenRef = %q, want origin_token", origin.TokenRef)
	}

	mirror := cfg.Endpoints["mirror"]
	if mirror.TokenRef != "" {
		t.Errorf("mirror.TokenRef = %q, want empty", mirror.TokenRef)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	// YAML that will cause unmarshal error (wrong type)
	content := `
default_endpoint: [invalid, array, instead, of, string]
`
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Error("LoadConfig() should return error for invalid YAML")
	}
}

func TestLoadConfigInvalidDuration(t *testing.T) {
	content := `read_timeout: not-a-duration`

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Error("LoadConfig() should return error for invalid duration")
	}
	if err != nil && !strings.Contains(err.Error(), "not-a-duration") {
		t.Errorf("error = %v, should mention the bad duration value", err)
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	// Should return empty config with initialized Endpoints
	if cfg.Endpoints == nil {
		t.Error("Endpoints map is nil for empty file")
	}
}

func TestLoadConfigMinimal(t *testing.T) {
	content := `default_endpoint: origin`

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DefaultEndpoint != "origin" {
		t.Errorf("DefaultEndpoint = %q, want origin", cfg.DefaultEndpoint)
	}
	if cfg.Endpoints == nil {
		t.Error("Endpoints map is nil")
	}
}

func TestConfigGetEndpoint(t *testing.T) {
	cfg := &Config{
		Endpoints: map[string]EndpointConfig{
			"origin": {
				BaseURL:  "https://files.example.com",
				TokenRef: "origin_token",
			},
		},
	}

	ec := cfg.GetEndpoint("origin")
	if ec == nil {
		t.Fatal("GetEndpoint(origin) returned nil")
	}
	if ec.BaseURL != "https://files.example.com" {
		t.Errorf("BaseURL = %q, want https://files.example.com", ec.BaseURL)
	}

	ec = cfg.GetEndpoint("nonexistent")
	if ec != nil {
		t.Error("GetEndpoint(nonexistent) should return nil")
	}
}

func TestConfigGetEndpointNilMap(t *testing.T) {
	cfg := &Config{Endpoints: nil}

	ec := cfg.GetEndpoint("origin")
	if ec != nil {
		t.Error("GetEndpoint on nil Endpoints should return nil")
	}
}

func TestDurationMarshalYAML(t *testing.T) {
	d := Duration(90 * time.Second)

	v, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error = %v", err)
	}

	s, ok := v.(string)
	if !ok {
		t.Fatalf("MarshalYAML() returned %T, want string", v)
	}
	if s != "1m30s" {
		t.Errorf("MarshalYAML() = %q, want 1m30s", s)
	}
}
