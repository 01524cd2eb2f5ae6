// Package mysqlsink mirrors sealed sessions into a MySQL table for
// reporting outside the service.
package mysqlsink

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"pomodoro/timer/internal/model"
)

const createTable = `
CREATE TABLE IF NOT EXISTS pomodoro_sessions (
  id VARCHAR(64) NOT NULL PRIMARY KEY,
  user_id VARCHAR(64) NOT NULL,
  mode VARCHAR(16) NOT NULL,
  duration_sec INT NOT NULL,
  start DATETIME(6) NOT NULL,
  stop DATETIME(6) NULL,
  completed BOOLEAN NOT NULL,
  task_id VARCHAR(64) NULL,
  KEY idx_pomodoro_sessions_user_start (user_id, start)
) ENGINE=InnoDB`

// Sink implements recorder.Sink against MySQL.
type Sink struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects using dsn and ensures the mirror table exists.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Sink, error) {
	if dsn == "" {
		return nil, errors.New("mysqlsink: DSN is required")
	}
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, err
	}
	return &Sink{db: db, log: log}, nil
}

func (s *Sink) Name() string { return "mysql" }

// SaveSession upserts one session row keyed by id.
func (s *Sink) SaveSession(ctx context.Context, userID string, session model.Session) error {
	const q = `
INSERT INTO pomodoro_sessions
  (id, user_id, mode, duration_sec, start, stop, completed, task_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  mode=VALUES(mode),
  duration_sec=VALUES(duration_sec),
  start=VALUES(start),
  stop=VALUES(stop),
  completed=VALUES(completed),
  task_id=VALUES(task_id);
`
	var stop interface{}
	if session.EndTime != nil {
		stop = session.EndTime.UTC()
	}
	var task interface{}
	if session.TaskID != nil {
		task = *session.TaskID
	}
	if _, err := s.db.ExecContext(
		ctx,
		q,
		session.ID,
		userID,
		string(session.Mode),
		session.DurationSeconds,
		session.StartTime.UTC(),
		stop,
		session.Completed,
		task,
	); err != nil {
		return err
	}
	s.log.Debug("mysql sink upserted session", slog.String("session_id", session.ID))
	return nil
}

func (s *Sink) Close() error { return s.db.Close() }
