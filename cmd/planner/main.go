package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/k991020/daily-planner/internal/config"
	"github.com/k991020/daily-planner/internal/planner"
	"github.com/k991020/daily-planner/internal/storage"
	"github.com/k991020/daily-planner/internal/ui"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadOrCreate(config.ResolveConfigPath())
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()

	if cfg.User.ID == "" {
		fmt.Println("no user configured: set [user] id in the config file or PLANNER_USER_ID")
		os.Exit(1)
	}

	ctx := context.Background()
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		fmt.Printf("failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	user := planner.User{ID: cfg.User.ID, Name: cfg.User.Name, Email: cfg.User.Email}
	session := planner.NewSession(user, backend)
	if err := session.Load(ctx); err != nil {
		fmt.Printf("failed to load data: %v\n", err)
		os.Exit(1)
	}

	if err := ui.Run(session, cfg); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}

func openBackend(ctx context.Context, cfg config.Config) (planner.Backend, error) {
	switch cfg.Backend {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("backend is postgres but no DSN is configured")
		}
		return storage.OpenPostgres(ctx, cfg.PostgresDSN)
	case "", "sqlite":
		return storage.OpenSQLite(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
