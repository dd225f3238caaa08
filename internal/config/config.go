package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "planner.db"
	DefaultUndoSeconds    = 6
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Add            string `toml:"add"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	Toggle         string `toml:"toggle"`
	Delete         string `toml:"delete"`
	Undo           string `toml:"undo"`
	Edit           string `toml:"edit"`
	Priority       string `toml:"priority"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
	NextField      string `toml:"next_field"`
	Search         string `toml:"search"`
	CycleFilter    string `toml:"cycle_filter"`
	CycleSort      string `toml:"cycle_sort"`
	CycleCategory  string `toml:"cycle_category"`
	CycleTag       string `toml:"cycle_tag"`
	NewCategory    string `toml:"new_category"`
	DelCategory    string `toml:"del_category"`
	Habits         string `toml:"habits"`
	ClearCompleted string `toml:"clear_completed"`
	ClearAll       string `toml:"clear_all"`
}

type UserConfig struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type Config struct {
	Backend       string     `toml:"backend"` // "sqlite" or "postgres"
	DBPath        string     `toml:"db_path"`
	PostgresDSN   string     `toml:"postgres_dsn"`
	DefaultFilter string     `toml:"default_filter"`
	DefaultSort   string     `toml:"default_sort"`
	UndoSeconds   int        `toml:"undo_seconds"`
	User          UserConfig `toml:"user"`
	Keys          Keymap     `toml:"keys"`
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Backend == "" {
		cfg.Backend = "sqlite"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.UndoSeconds <= 0 {
		cfg.UndoSeconds = DefaultUndoSeconds
	}
	return cfg, nil
}

// ApplyEnv lets environment variables override the file, so the DSN and
// identity can stay out of version control.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PLANNER_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
		c.Backend = "postgres"
	}
	if v := os.Getenv("PLANNER_USER_ID"); v != "" {
		c.User.ID = v
	}
	if v := os.Getenv("PLANNER_USER_NAME"); v != "" {
		c.User.Name = v
	}
	if v := os.Getenv("PLANNER_USER_EMAIL"); v != "" {
		c.User.Email = v
	}
}

// ResolveConfigPath prefers the per-user config dir and falls back to
// the working directory when none is available.
func ResolveConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "daily-planner", DefaultConfigFileName)
}

func write(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Backend:       "sqlite",
		DBPath:        DefaultDBName,
		DefaultFilter: "all",
		DefaultSort:   "manual",
		UndoSeconds:   DefaultUndoSeconds,
		User: UserConfig{
			ID:   "local",
			Name: "나",
		},
		Keys: Keymap{
			Quit:           "q",
			Add:            "a",
			Up:             "k",
			Down:           "j",
			Toggle:         " ",
			Delete:         "d",
			Undo:           "u",
			Edit:           "e",
			Priority:       "p",
			Confirm:        "enter",
			Cancel:         "esc",
			NextField:      "tab",
			Search:         "/",
			CycleFilter:    "f",
			CycleSort:      "s",
			CycleCategory:  "c",
			CycleTag:       "t",
			NewCategory:    "N",
			DelCategory:    "D",
			Habits:         "h",
			ClearCompleted: "x",
			ClearAll:       "X",
		},
	}
}
