package main

import (
	"context"
	"log/slog"
	"os"

	"pomodoro/timer/internal/config"
	"pomodoro/timer/internal/db"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	applied, err := db.RunMigrations(context.Background(), database, db.MigrationSource(cfg.MigrationsDir), logger)
	if err != nil {
		logger.Error("run migrations", slog.String("error", err.Error()))
		database.Close()
		os.Exit(1)
	}

	logger.Info("migrations applied successfully", slog.Int("count", len(applied)))
}
