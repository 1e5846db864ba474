package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range Keys() {
		t.Setenv(key, "")
	}
	return home
}

func TestGetGlobalConfigDir(t *testing.T) {
	home := isolateHome(t)

	expected := filepath.Join(home, ".gameplan")
	if dir := GetGlobalConfigDir(); dir != expected {
		t.Errorf("expected %s, got %s", expected, dir)
	}
}

func TestEnsureGlobalConfigDir(t *testing.T) {
	home := isolateHome(t)

	if err := EnsureGlobalConfigDir(); err != nil {
		t.Fatalf("failed to ensure global config dir: %v", err)
	}

	expectedDir := filepath.Join(home, ".gameplan")
	if _, err := os.Stat(expectedDir); os.IsNotExist(err) {
		t.Errorf("global config directory was not created at %s", expectedDir)
	}
}

func TestLoadGlobalConfig_WithValidFile(t *testing.T) {
	home := isolateHome(t)

	configDir := filepath.Join(home, ".gameplan")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	content := `GAMEPLAN_BACKEND=postgres
DATABASE_URL=postgres://gp@localhost/gp
REDIS_ADDR=localhost:6379
`
	if err := os.WriteFile(filepath.Join(configDir, "config"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("failed to load global config: %v", err)
	}
	if cfg.Backend != BackendPostgres {
		t.Errorf("expected postgres backend, got %s", cfg.Backend)
	}
	if cfg.DatabaseURL != "postgres://gp@localhost/gp" {
		t.Errorf("expected DATABASE_URL from file, got %s", cfg.DatabaseURL)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected REDIS_ADDR from file, got %s", cfg.RedisAddr)
	}
}

func TestLoadGlobalConfig_WithMissingFile(t *testing.T) {
	isolateHome(t)

	cfg, err := LoadGlobalConfig()
	if err == nil {
		t.Error("expected validation error without NEO4J_PASSWORD")
	}
	if cfg == nil || cfg.Neo4jURI == "" {
		t.Error("expected defaults to be returned alongside the error")
	}
}

func TestSetGlobalConfig(t *testing.T) {
	home := isolateHome(t)

	if err := SetGlobalConfig("NEO4J_PASSWORD", "secret"); err != nil {
		t.Fatalf("failed to set global config: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(home, ".gameplan", "config"))
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if len(data) == 0 {
		t.Error("config file is empty")
	}
}

func TestGetGlobalConfig(t *testing.T) {
	isolateHome(t)

	if err := SetGlobalConfig("GAMEPLAN_TIMEZONE", "Europe/Paris"); err != nil {
		t.Fatalf("failed to set global config: %v", err)
	}

	value, err := GetGlobalConfig("GAMEPLAN_TIMEZONE")
	if err != nil {
		t.Fatalf("failed to get global config: %v", err)
	}
	if value != "Europe/Paris" {
		t.Errorf("expected Europe/Paris, got %s", value)
	}
}

func TestGetGlobalConfig_NonExistentKey(t *testing.T) {
	isolateHome(t)

	if err := SetGlobalConfig("NEO4J_USERNAME", "neo4j"); err != nil {
		t.Fatalf("failed to set global config: %v", err)
	}
	if _, err := GetGlobalConfig("DOES_NOT_EXIST"); err == nil {
		t.Error("expected error for non-existent key, got nil")
	}
}

func TestLoadWithGlobalFallback(t *testing.T) {
	isolateHome(t)

	if err := SetGlobalConfig("NEO4J_PASSWORD", "globalpass"); err != nil {
		t.Fatalf("failed to set global config: %v", err)
	}

	localDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(localDir, ".env"), []byte("NEO4J_URI=neo4j://local:7687"), 0644); err != nil {
		t.Fatalf("failed to write local config: %v", err)
	}

	cfg, err := Load(localDir)
	if err != nil {
		t.Fatalf("failed to load config with global fallback: %v", err)
	}
	if cfg.Neo4jURI != "neo4j://local:7687" {
		t.Errorf("expected local URI, got %s", cfg.Neo4jURI)
	}
	if cfg.Neo4jPassword != "globalpass" {
		t.Errorf("expected global password, got %s", cfg.Neo4jPassword)
	}
}

func TestLocalOverridesGlobal(t *testing.T) {
	isolateHome(t)

	if err := SetGlobalConfig("GAMEPLAN_BACKEND", "neo4j"); err != nil {
		t.Fatalf("failed to set global config: %v", err)
	}
	localDir := t.TempDir()
	if err := Set(localDir, "GAMEPLAN_BACKEND", "memory"); err != nil {
		t.Fatalf("failed to set local config: %v", err)
	}

	cfg, err := Load(localDir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Backend != BackendMemory {
		t.Errorf("expected local backend to win, got %s", cfg.Backend)
	}
}
