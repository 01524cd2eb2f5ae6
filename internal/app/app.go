// Package app wires storage, the recorder pipeline and the timer services.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"pomodoro/timer/internal/alerter"
	"pomodoro/timer/internal/config"
	"pomodoro/timer/internal/db"
	"pomodoro/timer/internal/handler"
	"pomodoro/timer/internal/recorder"
	"pomodoro/timer/internal/recorder/mysqlsink"
	"pomodoro/timer/internal/repository"
	"pomodoro/timer/internal/router"
	"pomodoro/timer/internal/service"
)

// App holds the process-wide components. Close releases them in dependency
// order.
type App struct {
	log      *slog.Logger
	cfg      config.Config
	db       *sql.DB
	mirror   *mysqlsink.Sink
	recorder *recorder.Recorder
	notifier *alerter.Notifier

	Users    *repository.UserRepository
	Settings *repository.SettingsRepository
	Auth     *service.AuthService
	Timer    *service.TimerService
	Tasks    *service.TaskService
	History  *service.HistoryService
}

func New(ctx context.Context, log *slog.Logger, cfg config.Config) (*App, error) {
	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.RunMigrations(ctx, database, db.MigrationSource(cfg.MigrationsDir), log); err != nil {
		database.Close()
		return nil, err
	}

	defaults, err := config.LoadTimerDefaults(cfg.TimerDefaultsFile)
	if err != nil {
		database.Close()
		return nil, err
	}

	a := &App{log: log, cfg: cfg, db: database}

	userRepo := repository.NewUserRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	statsRepo := repository.NewStatsRepository(database)
	taskRepo := repository.NewTaskRepository(database)

	sinks := []recorder.Sink{sessionRepo}
	if cfg.MySQLDSN != "" {
		mirror, err := mysqlsink.Open(ctx, cfg.MySQLDSN, log)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("open mysql mirror: %w", err)
		}
		a.mirror = mirror
		sinks = append(sinks, mirror)
		log.Info("mysql session mirror enabled")
	}

	a.recorder = recorder.New(recorder.Options{
		QueueSize: cfg.RecorderQueueSize,
		Timeout:   cfg.RecorderTimeout,
		Logger:    log,
	}, sinks...)
	a.notifier = alerter.Init(log)

	a.Users = userRepo
	a.Settings = settingsRepo
	a.Auth = service.NewAuthService(userRepo, settingsRepo, defaults, cfg.JWTSecret, cfg.TokenTTL, log)
	a.Timer = service.NewTimerService(settingsRepo, taskRepo, service.TimerOptions{
		TickInterval: cfg.TickInterval,
		Recorder:     a.recorder,
		Alerter:      a.notifier,
		Defaults:     defaults,
		Logger:       log,
	})
	a.Tasks = service.NewTaskService(taskRepo, statsRepo, nil, log)
	a.History = service.NewHistoryService(sessionRepo, statsRepo, log)
	return a, nil
}

// Notifier returns the completion alerter.
func (a *App) Notifier() *alerter.Notifier {
	return a.notifier
}

// Router builds the HTTP API.
func (a *App) Router() *gin.Engine {
	return router.New(a.Auth, router.Handlers{
		Auth:    handler.NewAuthHandler(a.Auth),
		Timer:   handler.NewTimerHandler(a.Timer),
		Task:    handler.NewTaskHandler(a.Tasks),
		History: handler.NewHistoryHandler(a.History),
	}, a.cfg.CORSOrigins)
}

// Close stops the engines, drains the recorder, then releases the alerter
// and the databases.
func (a *App) Close() {
	a.Timer.Close()
	a.recorder.Close()
	alerter.Close()
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			a.log.Warn("close mysql mirror", slog.Any("error", err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("close database", slog.Any("error", err))
	}
}
