package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomodoro/timer/internal/model"
)

// StatsRepository reads the ledger of daily and weekly totals.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// ListDaily returns day rows with from <= date <= to (YYYY-MM-DD keys, empty
// for unbounded), newest first.
func (r *StatsRepository) ListDaily(ctx context.Context, userID, from, to string) ([]model.DailyStats, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT date, work_sessions, total_work_time, total_break_time, tasks_completed
		 FROM daily_stats
		 WHERE user_id = ?
		   AND (? = '' OR date >= ?)
		   AND (? = '' OR date <= ?)
		 ORDER BY date DESC`,
		userID, from, from, to, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}
	defer rows.Close()

	stats := make([]model.DailyStats, 0)
	for rows.Next() {
		var day model.DailyStats
		if err := rows.Scan(
			&day.Date,
			&day.WorkSessions,
			&day.TotalWorkTime,
			&day.TotalBreakTime,
			&day.TasksCompleted,
		); err != nil {
			return nil, fmt.Errorf("scan daily stats: %w", err)
		}
		day.FocusScore = model.FocusScore(day.TotalWorkTime, day.TotalBreakTime)
		stats = append(stats, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily stats: %w", err)
	}
	return stats, nil
}

// ListWeekly returns week rows with from <= weekStart <= to, newest first.
func (r *StatsRepository) ListWeekly(ctx context.Context, userID, from, to string) ([]model.WeeklyStats, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT week_start, total_sessions, total_work_time, total_break_time
		 FROM weekly_stats
		 WHERE user_id = ?
		   AND (? = '' OR week_start >= ?)
		   AND (? = '' OR week_start <= ?)
		 ORDER BY week_start DESC`,
		userID, from, from, to, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list weekly stats: %w", err)
	}
	defer rows.Close()

	stats := make([]model.WeeklyStats, 0)
	for rows.Next() {
		var week model.WeeklyStats
		if err := rows.Scan(
			&week.WeekStart,
			&week.TotalSessions,
			&week.TotalWorkTime,
			&week.TotalBreakTime,
		); err != nil {
			return nil, fmt.Errorf("scan weekly stats: %w", err)
		}
		week.AverageFocusScore = model.FocusScore(week.TotalWorkTime, week.TotalBreakTime)
		stats = append(stats, week)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weekly stats: %w", err)
	}
	return stats, nil
}

// AdjustTasksCompletedTx adds delta to the tasks-completed counter of day,
// never going below zero.
func (r *StatsRepository) AdjustTasksCompletedTx(ctx context.Context, tx *sql.Tx, userID string, day time.Time, delta int) error {
	initial := delta
	if initial < 0 {
		initial = 0
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO daily_stats (user_id, date, tasks_completed, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, date) DO UPDATE SET
			tasks_completed = MAX(daily_stats.tasks_completed + ?, 0),
			updated_at = excluded.updated_at`,
		userID,
		model.DayKey(day),
		initial,
		formatTime(time.Now()),
		delta,
	)
	if err != nil {
		return fmt.Errorf("adjust tasks completed: %w", err)
	}
	return nil
}

func applySessionStatsTx(ctx context.Context, tx *sql.Tx, userID string, session model.Session) error {
	minutes := session.DurationSeconds / 60
	workSessions, workMinutes, breakMinutes := 0, 0, 0
	if session.Mode == model.ModeWork {
		workSessions, workMinutes = 1, minutes
	} else {
		breakMinutes = minutes
	}
	now := formatTime(time.Now())

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO daily_stats (user_id, date, work_sessions, total_work_time, total_break_time, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, date) DO UPDATE SET
			work_sessions = daily_stats.work_sessions + excluded.work_sessions,
			total_work_time = daily_stats.total_work_time + excluded.total_work_time,
			total_break_time = daily_stats.total_break_time + excluded.total_break_time,
			updated_at = excluded.updated_at`,
		userID,
		model.DayKey(session.StartTime),
		workSessions,
		workMinutes,
		breakMinutes,
		now,
	); err != nil {
		return fmt.Errorf("update daily stats: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO weekly_stats (user_id, week_start, total_sessions, total_work_time, total_break_time, updated_at)
		 VALUES (?, ?, 1, ?, ?, ?)
		 ON CONFLICT(user_id, week_start) DO UPDATE SET
			total_sessions = weekly_stats.total_sessions + 1,
			total_work_time = weekly_stats.total_work_time + excluded.total_work_time,
			total_break_time = weekly_stats.total_break_time + excluded.total_break_time,
			updated_at = excluded.updated_at`,
		userID,
		model.WeekStartKey(session.StartTime),
		workMinutes,
		breakMinutes,
		now,
	); err != nil {
		return fmt.Errorf("update weekly stats: %w", err)
	}
	return nil
}
