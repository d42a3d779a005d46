package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GCS_BUCKET", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("POSTGRES_URL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Quiz.QuestionCount != 10 || cfg.Quiz.MinRequired != 6 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Storage.Backend != "localfs" || cfg.ProgressBackend() != "memory" {
		t.Fatalf("expected local backends, got %s/%s", cfg.Storage.Backend, cfg.ProgressBackend())
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
generation:
  api_key: from-file
  max_workers: 4
postgres:
  url: postgres://file
quiz:
  question_count: 5
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("GCS_BUCKET", "assets")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Generation.MaxWorkers != 4 || cfg.Quiz.QuestionCount != 5 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Generation.APIKey != "from-env" {
		t.Fatalf("env must override file secret, got %q", cfg.Generation.APIKey)
	}
	if cfg.Storage.Backend != "gcs" || cfg.ProgressBackend() != "postgres" {
		t.Fatalf("unexpected backends %s/%s", cfg.Storage.Backend, cfg.ProgressBackend())
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [oops"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("", time.Second); got != time.Second {
		t.Fatalf("empty should fall back, got %v", got)
	}
	if got := Duration("bogus", time.Second); got != time.Second {
		t.Fatalf("invalid should fall back, got %v", got)
	}
	if got := Duration("90s", time.Second); got != 90*time.Second {
		t.Fatalf("unexpected %v", got)
	}
}
