package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "webstats.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "Whale Test"

[webstats]
update_interval = "30s"
display_players = false

[http]
path = "/stats"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Name != "Whale Test" {
		t.Fatalf("expected server name override, got %q", cfg.Server.Name)
	}
	if cfg.WebStats.UpdateInterval != 30*time.Second {
		t.Fatalf("expected 30s interval, got %s", cfg.WebStats.UpdateInterval)
	}
	if cfg.WebStats.DisplayPlayers {
		t.Fatalf("expected display_players=false")
	}
	if !cfg.WebStats.DisplayStats {
		t.Fatalf("expected display_stats to keep its default")
	}
	if cfg.HTTP.Path != "/stats" {
		t.Fatalf("expected path /stats, got %q", cfg.HTTP.Path)
	}
	if cfg.WebStats.BannerWidth != 468 || cfg.WebStats.BannerHeight != 60 {
		t.Fatalf("unexpected banner size %dx%d", cfg.WebStats.BannerWidth, cfg.WebStats.BannerHeight)
	}
	if !cfg.Server.StartedAt.IsZero() {
		t.Fatalf("expected no configured start time, got %s", cfg.Server.StartedAt)
	}
}

func TestLoadGameStartTime(t *testing.T) {
	path := writeConfig(t, `
[server]
started_at = 2026-10-01T08:30:00Z
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)
	if !cfg.Server.StartedAt.Equal(want) {
		t.Fatalf("started_at = %s, want %s", cfg.Server.StartedAt, want)
	}
}

func TestLoadRejectsZeroInterval(t *testing.T) {
	path := writeConfig(t, `
[webstats]
update_interval = "0s"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for zero update interval")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
