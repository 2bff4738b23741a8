package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_VERSION", "ENV_COLOR", "PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Config{
		Version:         "unknown",
		Environment:     "blue",
		Port:            5000,
		DBPath:          "/data/todos.db",
		LogLevel:        "info",
		LogFormat:       FormatJSON,
		ShutdownTimeout: 15 * time.Second,
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
	if got := cfg.Addr(); got != ":5000" {
		t.Errorf("Addr: got %q, want %q", got, ":5000")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_VERSION", "v2.3.1")
	t.Setenv("ENV_COLOR", "green")
	t.Setenv("PORT", "8081")
	t.Setenv("DB_PATH", "/tmp/x/todos.db")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Version != "v2.3.1" {
		t.Errorf("Version: got %q", cfg.Version)
	}
	if cfg.Environment != "green" {
		t.Errorf("Environment: got %q", cfg.Environment)
	}
	if cfg.Port != 8081 {
		t.Errorf("Port: got %d", cfg.Port)
	}
	if cfg.DBPath != "/tmp/x/todos.db" {
		t.Errorf("DBPath: got %q", cfg.DBPath)
	}
	if cfg.LogFormat != FormatConsole {
		t.Errorf("LogFormat: got %q", cfg.LogFormat)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	t.Setenv("ENV_COLOR", "green")
	for _, key := range []string{"APP_VERSION", "PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), "config.yml")
	data := "version: v9\nenvironment: red\nport: 7000\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Version != "v9" {
		t.Errorf("Version: got %q, want %q", cfg.Version, "v9")
	}
	if cfg.Port != 7000 {
		t.Errorf("Port: got %d, want %d", cfg.Port, 7000)
	}
	if cfg.Environment != "green" {
		t.Errorf("Environment: got %q, want env override %q", cfg.Environment, "green")
	}
}

func TestValidate(t *testing.T) {
	base := Config{Port: 5000, DBPath: "todos.db", LogFormat: FormatJSON}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "empty db path", mutate: func(c *Config) { c.DBPath = "" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
