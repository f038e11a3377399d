package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr %q, want 0.0.0.0:8080", cfg.Server.Addr())
	}
	if cfg.Database.Path != "bets.db" {
		t.Errorf("db path %q, want bets.db", cfg.Database.Path)
	}
	if cfg.Dedup.Window != 10*time.Minute {
		t.Errorf("dedup window %s, want 10m", cfg.Dedup.Window)
	}
	if len(cfg.Server.AllowedGroups) != 0 {
		t.Errorf("allowed groups %v, want none", cfg.Server.AllowedGroups)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[server]
host = "127.0.0.1"
port = 9090
allowed_groups = ["morning slips", "evening slips"]

[database]
path = "/tmp/test.db"

[dedup]
window = "30s"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("addr %q", cfg.Server.Addr())
	}
	if len(cfg.Server.AllowedGroups) != 2 {
		t.Errorf("allowed groups %v, want 2", cfg.Server.AllowedGroups)
	}
	if cfg.Dedup.Window != 30*time.Second {
		t.Errorf("dedup window %s, want 30s", cfg.Dedup.Window)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BETV2_SERVER_PORT", "7070")
	t.Setenv("BETV2_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port %d, want 7070", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level %q, want debug", cfg.Log.Level)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("want error for missing explicit config file")
	}
}
