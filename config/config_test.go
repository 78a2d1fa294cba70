package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/firekit/logger"
)

type testAppConfig struct {
	BaseConfig `yaml:",inline" mapstructure:",squash"`
	Database   struct {
		URL       string `yaml:"url" mapstructure:"url"`
		AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`
	} `yaml:"database" mapstructure:"database"`
}

func TestBaseConfigDefaults(t *testing.T) {
	cfg := BaseConfig{}
	cfg.ApplyDefaults()

	if cfg.Environment != "development" {
		t.Errorf("expected development, got %s", cfg.Environment)
	}
	if !cfg.Debug {
		t.Error("expected debug enabled in development")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging defaults applied, got %q", cfg.Logging.Level)
	}
}

func TestBaseConfigValidate(t *testing.T) {
	cfg := BaseConfig{Name: "app", Environment: "production", Logging: logger.Config{Level: "info", Format: "json"}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid, got %v", err)
	}

	cfg.Name = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing name")
	}

	cfg.Name = "app"
	cfg.Environment = "qa"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yaml := `name: demo
environment: staging
database:
  url: https://demo.example.io
`
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg testAppConfig
	if err := Load("demo", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Name != "demo" {
		t.Errorf("expected name demo, got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected staging, got %q", cfg.Environment)
	}
	if cfg.Database.URL != "https://demo.example.io" {
		t.Errorf("expected database url, got %q", cfg.Database.URL)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: demo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	os.Setenv("DATABASE_AUTH_TOKEN", "secret-token")
	defer os.Unsetenv("DATABASE_AUTH_TOKEN")

	var cfg testAppConfig
	if err := Load("demo", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.AuthToken != "secret-token" {
		t.Errorf("expected env override, got %q", cfg.Database.AuthToken)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("DATABASE_URL=https://env.example.io\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	defer os.Unsetenv("DATABASE_URL")

	var cfg testAppConfig
	if err := Load("demo", &cfg, WithEnvFile(envPath)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.URL != "https://env.example.io" {
		t.Errorf("expected .env value, got %q", cfg.Database.URL)
	}
}

func TestLoadMissingFilesIsFine(t *testing.T) {
	var cfg testAppConfig
	if err := Load("nonexistent-app-xyz", &cfg); err != nil {
		t.Errorf("missing files should not error, got %v", err)
	}
}
