// Package config loads service configuration from YAML with environment
// fallbacks for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// ListenAddr is the address the diary API listens on.
	ListenAddr string `yaml:"listen_addr"`

	// MetricsPort serves health checks and Prometheus metrics.
	MetricsPort int `yaml:"metrics_port"`

	Provider ProviderConfig `yaml:"provider"`
	Speech   SpeechConfig   `yaml:"speech"`
	Session  SessionConfig  `yaml:"session"`
	Diary    DiaryConfig    `yaml:"diary"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// ProviderConfig selects and tunes the reply generation provider.
type ProviderConfig struct {
	Name              string  `yaml:"name"` // gemini, openai, mock
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"api_key"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// SpeechConfig selects and tunes the speech synthesizer.
type SpeechConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Name           string  `yaml:"name"` // openai, gtranslate, mock
	Voice          string  `yaml:"voice"`
	Lang           string  `yaml:"lang"`
	Speed          float64 `yaml:"speed"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// SessionConfig selects the conversation log backend.
type SessionConfig struct {
	Backend string      `yaml:"backend"` // file, redis
	BaseDir string      `yaml:"base_dir"`
	Redis   RedisConfig `yaml:"redis"`
}

// DiaryConfig selects the diary entry store.
type DiaryConfig struct {
	Store     string          `yaml:"store"` // file, redis, firestore
	BaseDir   string          `yaml:"base_dir"`
	Redis     RedisConfig     `yaml:"redis"`
	Firestore FirestoreConfig `yaml:"firestore"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	PoolSize int    `yaml:"pool_size"`
}

// FirestoreConfig holds Firestore settings for the diary store.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	Collection      string `yaml:"collection"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Exporter     string `yaml:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Default returns a configuration with sensible defaults applied.
func Default() *Config {
	return &Config{
		ListenAddr:  ":8080",
		MetricsPort: 9090,
		Provider: ProviderConfig{
			Name:           "gemini",
			TimeoutSeconds: 30,
		},
		Speech: SpeechConfig{
			Name:  "gtranslate",
			Lang:  "ja",
			Speed: 1.25,
		},
		Session: SessionConfig{Backend: "file"},
		Diary:   DiaryConfig{Store: "file"},
		Tracing: TracingConfig{Exporter: "stdout"},
	}
}

// Load loads configuration from a YAML file. An empty path returns
// defaults merged with environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = 9090
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "gemini"
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 30
	}
	if c.Speech.Name == "" {
		c.Speech.Name = "gtranslate"
	}
	if c.Speech.Lang == "" {
		c.Speech.Lang = "ja"
	}
	if c.Speech.Speed == 0 {
		c.Speech.Speed = 1.25
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "file"
	}
	if c.Diary.Store == "" {
		c.Diary.Store = "file"
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "stdout"
	}
}

// applyEnv fills secrets from the environment when the file left them out.
func (c *Config) applyEnv() {
	if c.Provider.APIKey == "" {
		switch c.Provider.Name {
		case "gemini":
			c.Provider.APIKey = os.Getenv("GEMINI_API_KEY")
			if c.Provider.APIKey == "" {
				c.Provider.APIKey = os.Getenv("GOOGLE_API_KEY")
			}
		case "openai":
			c.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if c.Diary.Firestore.ProjectID == "" {
		c.Diary.Firestore.ProjectID = os.Getenv("GCP_PROJECT")
	}
	if c.Diary.Firestore.CredentialsFile == "" {
		c.Diary.Firestore.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "gemini", "openai", "mock":
	default:
		return fmt.Errorf("unknown provider: %s", c.Provider.Name)
	}

	switch c.Session.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("unknown session backend: %s", c.Session.Backend)
	}
	if c.Session.Backend == "redis" && c.Session.Redis.Addr == "" {
		return fmt.Errorf("session redis backend requires redis.addr")
	}

	switch c.Diary.Store {
	case "file", "redis", "firestore":
	default:
		return fmt.Errorf("unknown diary store: %s", c.Diary.Store)
	}
	if c.Diary.Store == "redis" && c.Diary.Redis.Addr == "" {
		return fmt.Errorf("diary redis store requires redis.addr")
	}
	if c.Diary.Store == "firestore" && c.Diary.Firestore.ProjectID == "" {
		return fmt.Errorf("diary firestore store requires firestore.project_id")
	}

	if c.Speech.Enabled {
		switch c.Speech.Name {
		case "openai", "gtranslate", "mock":
		default:
			return fmt.Errorf("unknown synthesizer: %s", c.Speech.Name)
		}
	}

	return nil
}
