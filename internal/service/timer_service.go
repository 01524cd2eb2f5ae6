package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pomodoro/timer/internal/clock"
	apperrors "pomodoro/timer/internal/errors"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/recorder"
	"pomodoro/timer/internal/repository"
	"pomodoro/timer/internal/timer"
)

// TimerOptions configures the engines a TimerService builds.
type TimerOptions struct {
	Clock        clock.Clock
	TickInterval time.Duration
	ManualTick   bool
	// Recorder may be nil, in which case sealed sessions are not stored.
	Recorder *recorder.Recorder
	Alerter  timer.Alerter
	Defaults model.Settings
	Logger   *slog.Logger
}

// TimerService owns one engine per user, built lazily from stored settings.
type TimerService struct {
	settingsRepo *repository.SettingsRepository
	taskRepo     *repository.TaskRepository
	options      TimerOptions
	log          *slog.Logger

	mu      sync.Mutex
	engines map[string]*timerEntry
	closed  bool
}

// timerEntry serializes the version check with the command that follows it.
type timerEntry struct {
	mu     sync.Mutex
	engine *timer.Engine
}

type StateView struct {
	timer.State
	UserID     string         `json:"userId"`
	Status     timer.Status   `json:"status"`
	Settings   model.Settings `json:"settings"`
	ServerTime time.Time      `json:"serverTime"`
}

type StartInput struct {
	BaseVersion int
	Mode        model.Mode
	TaskID      string
}

type UpdateSettingsInput struct {
	BaseVersion int
	Patch       model.SettingsPatch
}

func NewTimerService(
	settingsRepo *repository.SettingsRepository,
	taskRepo *repository.TaskRepository,
	options TimerOptions,
) *TimerService {
	if options.Clock == nil {
		options.Clock = clock.System
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Defaults == (model.Settings{}) {
		options.Defaults = model.DefaultSettings()
	}
	return &TimerService{
		settingsRepo: settingsRepo,
		taskRepo:     taskRepo,
		options:      options,
		log:          options.Logger,
		engines:      make(map[string]*timerEntry),
	}
}

func (s *TimerService) GetState(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	entry, apiErr := s.entryFor(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	view := s.toStateView(userID, entry.engine)
	return &view, nil
}

// History returns the sessions this engine completed since its last reset.
func (s *TimerService) History(ctx context.Context, userID string) ([]model.Session, *apperrors.APIError) {
	entry, apiErr := s.entryFor(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	return entry.engine.History(), nil
}

func (s *TimerService) Start(ctx context.Context, userID string, input StartInput) (*StateView, *apperrors.APIError) {
	if input.Mode != "" && !input.Mode.Valid() {
		return nil, invalidModeError()
	}
	if input.TaskID != "" {
		if _, err := s.taskRepo.Get(ctx, userID, input.TaskID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("task_not_found", "task not found")
			}
			s.log.Error("load task failed", slog.String("user_id", userID), slog.Any("error", err))
			return nil, apperrors.Internal("failed to load task")
		}
	}
	return s.command(ctx, userID, input.BaseVersion, func(engine *timer.Engine) error {
		return engine.Start(input.Mode, input.TaskID)
	})
}

func (s *TimerService) Pause(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.command(ctx, userID, baseVersion, (*timer.Engine).Pause)
}

func (s *TimerService) Resume(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.command(ctx, userID, baseVersion, (*timer.Engine).Resume)
}

func (s *TimerService) Stop(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.command(ctx, userID, baseVersion, (*timer.Engine).Stop)
}

func (s *TimerService) Reset(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.command(ctx, userID, baseVersion, (*timer.Engine).Reset)
}

func (s *TimerService) Confirm(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.command(ctx, userID, baseVersion, (*timer.Engine).Confirm)
}

func (s *TimerService) SwitchMode(ctx context.Context, userID string, mode model.Mode, baseVersion int) (*StateView, *apperrors.APIError) {
	if !mode.Valid() {
		return nil, invalidModeError()
	}
	return s.command(ctx, userID, baseVersion, func(engine *timer.Engine) error {
		return engine.SwitchMode(mode)
	})
}

// UpdateSettings applies the patch to the live engine and persists the
// merged settings.
func (s *TimerService) UpdateSettings(ctx context.Context, userID string, input UpdateSettingsInput) (*StateView, *apperrors.APIError) {
	var merged model.Settings
	view, apiErr := s.command(ctx, userID, input.BaseVersion, func(engine *timer.Engine) error {
		settings, err := engine.UpdateSettings(input.Patch)
		merged = settings
		return err
	})
	if apiErr != nil {
		return nil, apiErr
	}
	if err := s.settingsRepo.Save(ctx, userID, merged); err != nil {
		s.log.Error("persist timer settings failed", slog.String("user_id", userID), slog.Any("error", err))
		return nil, apperrors.Internal("failed to save settings")
	}
	return view, nil
}

// Subscribe streams engine events for userID until cancel is called or the
// service closes.
func (s *TimerService) Subscribe(ctx context.Context, userID string, buffer int) (<-chan timer.Event, func(), *apperrors.APIError) {
	entry, apiErr := s.entryFor(ctx, userID)
	if apiErr != nil {
		return nil, nil, apiErr
	}
	events := entry.engine.Subscribe(buffer)
	var once sync.Once
	cancel := func() {
		once.Do(func() { entry.engine.Unsubscribe(events) })
	}
	return events, cancel, nil
}

// Tick drives every engine to now. Only needed with ManualTick.
func (s *TimerService) Tick(now time.Time) {
	s.mu.Lock()
	engines := make([]*timer.Engine, 0, len(s.engines))
	for _, entry := range s.engines {
		engines = append(engines, entry.engine)
	}
	s.mu.Unlock()

	for _, engine := range engines {
		engine.Tick(now)
	}
}

// Close stops every engine. Later calls fail with timer_closed.
func (s *TimerService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	entries := s.engines
	s.engines = make(map[string]*timerEntry)
	s.mu.Unlock()

	for _, entry := range entries {
		entry.engine.Close()
	}
	s.log.Info("timer engines closed", slog.Int("count", len(entries)))
}

func (s *TimerService) command(
	ctx context.Context,
	userID string,
	baseVersion int,
	apply func(engine *timer.Engine) error,
) (*StateView, *apperrors.APIError) {
	entry, apiErr := s.entryFor(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if apiErr := s.ensureVersion(userID, baseVersion, entry.engine); apiErr != nil {
		return nil, apiErr
	}
	if err := apply(entry.engine); err != nil {
		return nil, s.fromTimerError(userID, entry.engine, err)
	}
	view := s.toStateView(userID, entry.engine)
	return &view, nil
}

func (s *TimerService) entryFor(ctx context.Context, userID string) (*timerEntry, *apperrors.APIError) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, apperrors.Unavailable("timer_closed", "timer service is shutting down")
	}
	if entry, ok := s.engines[userID]; ok {
		s.mu.Unlock()
		return entry, nil
	}
	s.mu.Unlock()

	settings, apiErr := s.loadSettings(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, apperrors.Unavailable("timer_closed", "timer service is shutting down")
	}
	if entry, ok := s.engines[userID]; ok {
		return entry, nil
	}

	options := timer.Options{
		Clock:        s.options.Clock,
		TickInterval: s.options.TickInterval,
		ManualTick:   s.options.ManualTick,
		Alerter:      s.options.Alerter,
		Logger:       s.log,
		UserID:       userID,
	}
	if s.options.Recorder != nil {
		options.Recorder = s.options.Recorder.ForUser(userID)
	}
	entry := &timerEntry{engine: timer.New(settings, options)}
	s.engines[userID] = entry
	s.log.Debug("timer engine created", slog.String("user_id", userID))
	return entry, nil
}

func (s *TimerService) loadSettings(ctx context.Context, userID string) (model.Settings, *apperrors.APIError) {
	settings, err := s.settingsRepo.Get(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.log.Error("load timer settings failed", slog.String("user_id", userID), slog.Any("error", err))
		return settings, apperrors.Internal("failed to load settings")
	}

	settings = s.options.Defaults
	if err := s.settingsRepo.Save(ctx, userID, settings); err != nil {
		s.log.Error("seed timer settings failed", slog.String("user_id", userID), slog.Any("error", err))
		return settings, apperrors.Internal("failed to initialize settings")
	}
	return settings, nil
}

func (s *TimerService) ensureVersion(userID string, baseVersion int, engine *timer.Engine) *apperrors.APIError {
	if baseVersion <= 0 {
		return nil
	}
	view := s.toStateView(userID, engine)
	if baseVersion == view.Version {
		return nil
	}
	return apperrors.Conflict("state_conflict", "timer changed on another device", map[string]interface{}{
		"state": view,
	})
}

func (s *TimerService) fromTimerError(userID string, engine *timer.Engine, err error) *apperrors.APIError {
	var settingsErr *timer.SettingsError
	switch {
	case errors.As(err, &settingsErr):
		return apperrors.BadRequest("invalid_settings", settingsErr.Error()).WithDetails(map[string]interface{}{
			"field": settingsErr.Field,
			"value": settingsErr.Value,
		})
	case errors.Is(err, timer.ErrInvalidSettings):
		return apperrors.BadRequest("invalid_settings", err.Error())
	case errors.Is(err, timer.ErrInvalidMode):
		return invalidModeError()
	case errors.Is(err, timer.ErrInvalidTransition):
		return apperrors.Conflict("invalid_transition", err.Error(), map[string]interface{}{
			"state": s.toStateView(userID, engine),
		})
	case errors.Is(err, timer.ErrClosed):
		return apperrors.Unavailable("timer_closed", "timer service is shutting down")
	default:
		s.log.Error("timer command failed", slog.String("user_id", userID), slog.Any("error", err))
		return apperrors.Internal("timer command failed")
	}
}

func (s *TimerService) toStateView(userID string, engine *timer.Engine) StateView {
	state := engine.Snapshot()
	return StateView{
		State:      state,
		UserID:     userID,
		Status:     state.Status(),
		Settings:   engine.Settings(),
		ServerTime: s.options.Clock.Now().UTC(),
	}
}

func invalidModeError() *apperrors.APIError {
	return apperrors.BadRequest("invalid_mode", "mode must be one of work, shortBreak, longBreak")
}
