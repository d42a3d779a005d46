package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Auth struct {
		Secret string `yaml:"secret"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		// ProgressTTL expires idle in-progress games; empty keeps them.
		ProgressTTL string `yaml:"progress_ttl"`
		// ListingTTL bounds how long asset listings are cached.
		ListingTTL string `yaml:"listing_ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Progress struct {
		// Backend is one of memory, redis, postgres, sqlite. Empty picks the first configured one.
		Backend string `yaml:"backend"`
	} `yaml:"progress"`
	Storage struct {
		Backend string `yaml:"backend"`
		Bucket  string `yaml:"bucket"`
		BaseURL string `yaml:"base_url"`
		Dir     string `yaml:"dir"`
	} `yaml:"storage"`
	Generation struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		APIKey      string  `yaml:"api_key"`
		OpenAIKey   string  `yaml:"openai_api_key"`
		MaxWorkers  int     `yaml:"max_workers"`
		Timeout     string  `yaml:"timeout"`
		Retries     int     `yaml:"retries"`
		RatePerSec  float64 `yaml:"rate_per_sec"`
		TaskTimeout string  `yaml:"task_timeout"`
	} `yaml:"generation"`
	Reference struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Timeout string `yaml:"timeout"`
		Retries int    `yaml:"retries"`
	} `yaml:"reference"`
	Quiz struct {
		QuestionCount int `yaml:"question_count"`
		TargetAssets  int `yaml:"target_assets"`
		MinRequired   int `yaml:"min_required"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path. A missing file yields defaults; secrets and endpoints may be
// overridden from the environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	override(&cfg.Generation.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	override(&cfg.Generation.OpenAIKey, "OPENAI_API_KEY")
	override(&cfg.Reference.APIKey, "PIXABAY_API_KEY")
	override(&cfg.Auth.Secret, "JWT_SECRET_KEY")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Postgres.URL, "POSTGRES_URL")
	override(&cfg.Storage.Bucket, "GCS_BUCKET")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "gemini"
	}
	if cfg.Generation.MaxWorkers <= 0 {
		cfg.Generation.MaxWorkers = 10
	}
	if cfg.Reference.BaseURL == "" {
		cfg.Reference.BaseURL = "https://pixabay.com"
	}
	if cfg.Storage.Backend == "" {
		if cfg.Storage.Bucket != "" {
			cfg.Storage.Backend = "gcs"
		} else {
			cfg.Storage.Backend = "localfs"
		}
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "data/assets"
	}
	if cfg.Quiz.QuestionCount <= 0 {
		cfg.Quiz.QuestionCount = 10
	}
	if cfg.Quiz.TargetAssets <= 0 {
		cfg.Quiz.TargetAssets = 10
	}
	if cfg.Quiz.MinRequired <= 0 {
		cfg.Quiz.MinRequired = 6
	}
}

// ProgressBackend resolves the configured progress store, falling back to whichever database is set.
func (c Config) ProgressBackend() string {
	switch {
	case c.Progress.Backend != "":
		return c.Progress.Backend
	case c.Postgres.URL != "":
		return "postgres"
	case c.Redis.Addr != "":
		return "redis"
	case c.SQLite.Path != "":
		return "sqlite"
	default:
		return "memory"
	}
}

// Duration parses a duration string or returns the fallback if empty.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
