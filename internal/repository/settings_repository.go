package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomodoro/timer/internal/model"
)

// SettingsRepository stores the per-user timer settings.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Save inserts or replaces the settings row for userID.
func (r *SettingsRepository) Save(ctx context.Context, userID string, settings model.Settings) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO timer_settings (
			user_id, work_duration, short_break_duration, long_break_duration,
			auto_start_breaks, auto_start_work, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			work_duration = excluded.work_duration,
			short_break_duration = excluded.short_break_duration,
			long_break_duration = excluded.long_break_duration,
			auto_start_breaks = excluded.auto_start_breaks,
			auto_start_work = excluded.auto_start_work,
			updated_at = excluded.updated_at`,
		userID,
		settings.WorkDuration,
		settings.ShortBreakDuration,
		settings.LongBreakDuration,
		boolToInt(settings.AutoStartBreaks),
		boolToInt(settings.AutoStartWork),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (model.Settings, error) {
	var settings model.Settings
	var autoStartBreaks, autoStartWork int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT work_duration, short_break_duration, long_break_duration,
		        auto_start_breaks, auto_start_work
		 FROM timer_settings WHERE user_id = ?`,
		userID,
	).Scan(
		&settings.WorkDuration,
		&settings.ShortBreakDuration,
		&settings.LongBreakDuration,
		&autoStartBreaks,
		&autoStartWork,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return settings, ErrNotFound
		}
		return settings, fmt.Errorf("get settings: %w", err)
	}
	settings.AutoStartBreaks = autoStartBreaks == 1
	settings.AutoStartWork = autoStartWork == 1
	return settings, nil
}
