package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with empty path: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.Provider.Name != "gemini" {
		t.Errorf("Provider.Name = %q, want gemini", cfg.Provider.Name)
	}
	if cfg.Speech.Lang != "ja" {
		t.Errorf("Speech.Lang = %q, want ja", cfg.Speech.Lang)
	}
	if cfg.Diary.Store != "file" {
		t.Errorf("Diary.Store = %q, want file", cfg.Diary.Store)
	}
}

func TestLoadFromFile(t *testing.T) {
	yaml := `
listen_addr: ":9000"
provider:
  name: openai
  model: gpt-4o-mini
speech:
  enabled: true
  name: openai
  voice: alloy
session:
  backend: redis
  redis:
    addr: localhost:6379
diary:
  store: redis
  redis:
    addr: localhost:6379
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want :9000", cfg.ListenAddr)
	}
	if cfg.Provider.Model != "gpt-4o-mini" {
		t.Errorf("Provider.Model = %q", cfg.Provider.Model)
	}
	if cfg.Session.Redis.Addr != "localhost:6379" {
		t.Errorf("Session.Redis.Addr = %q", cfg.Session.Redis.Addr)
	}
	// Defaults still fill in what the file omitted.
	if cfg.MetricsPort != 9090 {
		t.Errorf("MetricsPort = %d, want 9090", cfg.MetricsPort)
	}
	if cfg.Speech.Speed != 1.25 {
		t.Errorf("Speech.Speed = %v, want 1.25", cfg.Speech.Speed)
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.APIKey != "test-key" {
		t.Errorf("Provider.APIKey = %q, want test-key", cfg.Provider.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider.Name = "claude" }, true},
		{"unknown session backend", func(c *Config) { c.Session.Backend = "sqlite" }, true},
		{"redis session without addr", func(c *Config) { c.Session.Backend = "redis" }, true},
		{"unknown diary store", func(c *Config) { c.Diary.Store = "s3" }, true},
		{"firestore without project", func(c *Config) { c.Diary.Store = "firestore" }, true},
		{
			"firestore with project",
			func(c *Config) {
				c.Diary.Store = "firestore"
				c.Diary.Firestore.ProjectID = "my-project"
			},
			false,
		},
		{
			"speech enabled with unknown synth",
			func(c *Config) {
				c.Speech.Enabled = true
				c.Speech.Name = "espeak"
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
