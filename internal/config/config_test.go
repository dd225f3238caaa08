package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFileName)
	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.Backend != "sqlite" || cfg.DBPath != DefaultDBName || cfg.UndoSeconds != DefaultUndoSeconds {
		t.Errorf("defaults: %+v", cfg)
	}
	if cfg.Keys.Add == "" || cfg.Keys.Undo == "" {
		t.Errorf("keymap not seeded: %+v", cfg.Keys)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}

func TestLoadOrCreateReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	body := `
backend = "postgres"
postgres_dsn = "postgres://localhost/planner"
undo_seconds = 0

[user]
id = "u1"
name = "민지"

[keys]
quit = "Q"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.Backend != "postgres" || cfg.PostgresDSN != "postgres://localhost/planner" {
		t.Errorf("backend: %+v", cfg)
	}
	if cfg.User.ID != "u1" || cfg.User.Name != "민지" {
		t.Errorf("user: %+v", cfg.User)
	}
	if cfg.Keys.Quit != "Q" {
		t.Errorf("keymap override lost: %q", cfg.Keys.Quit)
	}
	// Zero and missing values fall back.
	if cfg.UndoSeconds != DefaultUndoSeconds || cfg.DBPath != DefaultDBName {
		t.Errorf("fallbacks: undo=%d db=%q", cfg.UndoSeconds, cfg.DBPath)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PLANNER_POSTGRES_DSN", "postgres://db/override")
	t.Setenv("PLANNER_USER_ID", "env-user")
	t.Setenv("PLANNER_USER_NAME", "지수")

	cfg := defaultConfig()
	cfg.ApplyEnv()
	if cfg.Backend != "postgres" || cfg.PostgresDSN != "postgres://db/override" {
		t.Errorf("dsn override: %+v", cfg)
	}
	if cfg.User.ID != "env-user" || cfg.User.Name != "지수" {
		t.Errorf("user override: %+v", cfg.User)
	}
}
