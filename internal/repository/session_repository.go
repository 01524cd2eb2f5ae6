package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pomodoro/timer/internal/model"
)

// SessionRepository is the session archive. Writes are upserts keyed by the
// session id so a resubmitted session never duplicates rows or statistics.
type SessionRepository struct {
	txBeginner
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{txBeginner: txBeginner{db: db}, db: db}
}

// SessionFilter narrows ListSessions. Zero values mean unbounded.
type SessionFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Name identifies the sink in recorder logs.
func (r *SessionRepository) Name() string {
	return "sqlite"
}

// SaveSession upserts session for userID. The first time a session id is
// stored as completed its totals are added to the daily and weekly stats.
func (r *SessionRepository) SaveSession(ctx context.Context, userID string, session model.Session) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	existing, err := r.getSessionTx(ctx, tx, session.ID)
	if err != nil && err != ErrNotFound {
		return err
	}
	alreadyCounted := existing != nil && existing.Completed

	var endTime interface{}
	if session.EndTime != nil {
		endTime = formatTime(*session.EndTime)
	}
	var taskID interface{}
	if session.TaskID != nil {
		taskID = *session.TaskID
	}
	now := formatTime(time.Now())

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO sessions (
			id, user_id, mode, duration_seconds, start_time, end_time,
			completed, task_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode = excluded.mode,
			duration_seconds = excluded.duration_seconds,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			completed = MAX(sessions.completed, excluded.completed),
			task_id = excluded.task_id,
			updated_at = excluded.updated_at
		WHERE sessions.user_id = excluded.user_id`,
		session.ID,
		userID,
		string(session.Mode),
		session.DurationSeconds,
		formatTime(session.StartTime),
		endTime,
		boolToInt(session.Completed),
		taskID,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if session.Completed && !alreadyCounted {
		if err := applySessionStatsTx(ctx, tx, userID, session); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetSession(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, mode, duration_seconds, start_time, end_time, completed, task_id
		 FROM sessions
		 WHERE id = ? AND user_id = ?`,
		sessionID,
		userID,
	)
	return scanSession(row)
}

// ListSessions returns the user's sessions newest first.
func (r *SessionRepository) ListSessions(ctx context.Context, userID string, filter SessionFilter) ([]model.Session, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, mode, duration_seconds, start_time, end_time, completed, task_id
		 FROM sessions
		 WHERE user_id = ?`)
	args := []interface{}{userID}
	if !filter.From.IsZero() {
		query.WriteString(` AND start_time >= ?`)
		args = append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		query.WriteString(` AND start_time < ?`)
		args = append(args, formatTime(filter.To))
	}
	query.WriteString(` ORDER BY start_time DESC`)
	if filter.Limit > 0 {
		query.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) getSessionTx(ctx context.Context, tx *sql.Tx, sessionID string) (*model.Session, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT id, mode, duration_seconds, start_time, end_time, completed, task_id
		 FROM sessions
		 WHERE id = ?`,
		sessionID,
	)
	return scanSession(row)
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var mode string
	var startTime string
	var endTime sql.NullString
	var completed int
	var taskID sql.NullString
	err := s.Scan(
		&session.ID,
		&mode,
		&session.DurationSeconds,
		&startTime,
		&endTime,
		&completed,
		&taskID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.Mode = model.Mode(mode)
	session.Completed = completed == 1

	parsedStart, err := parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	session.StartTime = parsedStart

	if endTime.Valid {
		parsedEnd, parseErr := parseTime(endTime.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session end_time: %w", parseErr)
		}
		session.EndTime = &parsedEnd
	}
	if taskID.Valid {
		value := taskID.String
		session.TaskID = &value
	}
	return &session, nil
}
