package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glabrego/busybird-cli/internal/busybird"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BUSYBIRD_BASE_URL", "BUSYBIRD_TIMELINE", "BUSYBIRD_DB_PATH", "BUSYBIRD_LOG_FILE",
		"BUSYBIRD_REQUEST_TIMEOUT", "BUSYBIRD_POLL_LEVEL", "BUSYBIRD_COUNTS_LEVEL_NUM", "BUSYBIRD_FORMAT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("BUSYBIRD_CONFIG_PATH", t.TempDir())
}

func TestLoad_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("unexpected base URL: %s", cfg.BaseURL)
	}
	if cfg.Timeline != "home" {
		t.Fatalf("unexpected timeline: %s", cfg.Timeline)
	}
	if cfg.DBPath != "busybird.db" {
		t.Fatalf("unexpected DB path: %s", cfg.DBPath)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.RequestTimeout)
	}
	if cfg.PollLevel != "total" || cfg.CountsLevelNum != 2 {
		t.Fatalf("unexpected counts settings: %+v", cfg)
	}
	if cfg.StatusFormat() != busybird.FormatHTML {
		t.Fatalf("unexpected format: %s", cfg.Format)
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("BUSYBIRD_BASE_URL", "http://busybird.local:8080")
	t.Setenv("BUSYBIRD_TIMELINE", "work")
	t.Setenv("BUSYBIRD_REQUEST_TIMEOUT", "3s")
	t.Setenv("BUSYBIRD_POLL_LEVEL", "2")
	t.Setenv("BUSYBIRD_FORMAT", "JSON")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != "http://busybird.local:8080" || cfg.Timeline != "work" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RequestTimeout != 3*time.Second || cfg.PollLevel != "2" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.StatusFormat() != busybird.FormatJSON {
		t.Fatalf("unexpected format: %s", cfg.Format)
	}
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("BUSYBIRD_CONFIG_PATH", dir)
	content := "timeline: news\ncounts_level_num: 3\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Timeline != "news" || cfg.CountsLevelNum != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_InvalidPollLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("BUSYBIRD_POLL_LEVEL", "high")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid poll level")
	}
}

func TestValidate_BaseURLTrailingSlash(t *testing.T) {
	cfg := Config{
		BaseURL:        "http://127.0.0.1:5000/",
		Timeline:       "home",
		DBPath:         "busybird.db",
		RequestTimeout: time.Second,
		PollLevel:      "total",
		CountsLevelNum: 2,
		Format:         "html",
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidate_Format(t *testing.T) {
	cfg := Config{
		BaseURL:        "http://127.0.0.1:5000",
		Timeline:       "home",
		DBPath:         "busybird.db",
		RequestTimeout: time.Second,
		PollLevel:      "total",
		CountsLevelNum: 2,
		Format:         "xml",
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for format")
	}
}
