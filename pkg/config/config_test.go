package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EnvOverridesYAML(t *testing.T) {
	// Create a temp directory with a config.yaml
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
port: "3443"
env: "test"
database:
  host: "db.example.com"
  port: 5432
  user: "testuser"
  database: "testdb"
generation:
  provider: "openai"
  model: "gpt-4o-mini"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Change to temp directory so Load() finds config.yaml
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	// Clear env vars that might interfere with test
	os.Unsetenv("PGHOST")
	os.Unsetenv("GENERATION_PROVIDER")

	// Set env vars to override YAML values
	t.Setenv("PORT", "4443")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("GENERATION_MODEL", "gpt-4o")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Verify env vars override YAML
	if cfg.Port != "4443" {
		t.Errorf("expected Port=4443 (from env), got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.Generation.Model != "gpt-4o" {
		t.Errorf("expected Generation.Model=gpt-4o (from env), got %s", cfg.Generation.Model)
	}

	// Verify version was set
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}

	// Verify YAML value used for database host (proves YAML was read)
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("expected Database.Host=db.example.com (from yaml), got %s", cfg.Database.Host)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	t.Setenv("PGHOST", "envhost")

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("Load() failed without config.yaml: %v", err)
	}

	if cfg.Database.Host != "envhost" {
		t.Errorf("expected Database.Host=envhost, got %s", cfg.Database.Host)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default Port=8080, got %s", cfg.Port)
	}
	if cfg.Generation.MaxRetriesPerCredential != 3 {
		t.Errorf("expected default MaxRetriesPerCredential=3, got %d", cfg.Generation.MaxRetriesPerCredential)
	}
}

func TestParseFallbackKeys(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"key1", []string{"key1"}},
		{"key1,key2,key3", []string{"key1", "key2", "key3"}},
		{" key1 , key2 ", []string{"key1", "key2"}},
		{"key1,,key2,", []string{"key1", "key2"}},
	}

	for _, tt := range tests {
		got := parseFallbackKeys(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("parseFallbackKeys(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseFallbackKeys(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "museme",
		Password: "secret",
		Database: "museme_engine",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=museme password=secret dbname=museme_engine sslmode=disable"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
