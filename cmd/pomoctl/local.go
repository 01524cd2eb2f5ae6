package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pomodoro/timer/internal/app"
	"pomodoro/timer/internal/config"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/repository"
)

// localUserID owns every session recorded by pomoctl.
const localUserID = "local"

func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		cfg.DBPath = path
	}
	cfg.LogLevel = slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	return cfg
}

// openLocal builds the app with logs on stderr and makes sure the local
// user exists.
func openLocal(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg := loadConfig(cmd)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	application, err := app.New(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	if err := ensureLocalUser(ctx, application.Users); err != nil {
		application.Close()
		return nil, err
	}
	return application, nil
}

func ensureLocalUser(ctx context.Context, users *repository.UserRepository) error {
	_, err := users.GetByID(ctx, localUserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	now := time.Now().UTC()
	// The local account has no password and cannot log in over HTTP.
	return users.Create(ctx, &model.User{
		ID:           localUserID,
		Email:        "local@pomoctl",
		PasswordHash: "!",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
