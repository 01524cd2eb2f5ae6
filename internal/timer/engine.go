package timer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pomodoro/timer/internal/clock"
	"pomodoro/timer/internal/model"
)

// Status is the externally visible phase of the engine.
type Status string

const (
	StatusIdle                 Status = "idle"
	StatusRunning              Status = "running"
	StatusPaused               Status = "paused"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
)

// State is the engine's mutable state. Callers only ever see copies.
type State struct {
	IsRunning         bool           `json:"isRunning"`
	IsPaused          bool           `json:"isPaused"`
	CurrentSession    *model.Session `json:"currentSession"`
	TimeRemaining     int            `json:"timeRemaining"`
	CurrentMode       model.Mode     `json:"currentMode"`
	SessionCount      int            `json:"sessionCount"`
	NeedsConfirmation bool           `json:"needsConfirmation"`
	CompletedMode     *model.Mode    `json:"completedMode,omitempty"`
	CurrentTaskID     *string        `json:"currentTaskId,omitempty"`
	Version           int            `json:"version"`
}

// Status derives the phase from the state flags.
func (s State) Status() Status {
	switch {
	case s.NeedsConfirmation:
		return StatusAwaitingConfirmation
	case s.IsRunning && s.IsPaused:
		return StatusPaused
	case s.IsRunning:
		return StatusRunning
	default:
		return StatusIdle
	}
}

func (s State) clone() State {
	out := s
	if s.CurrentSession != nil {
		session := s.CurrentSession.Clone()
		out.CurrentSession = &session
	}
	if s.CompletedMode != nil {
		mode := *s.CompletedMode
		out.CompletedMode = &mode
	}
	if s.CurrentTaskID != nil {
		task := *s.CurrentTaskID
		out.CurrentTaskID = &task
	}
	return out
}

// Options contains runtime collaborators for an Engine.
type Options struct {
	Clock        clock.Clock
	TickInterval time.Duration
	// ManualTick disables the internal schedule; the host drives Tick.
	ManualTick bool
	Recorder   SessionRecorder
	Alerter    Alerter
	Logger     *slog.Logger
	// UserID is attached to alerts and log lines.
	UserID string
	NewID  func() string
}

// Engine is the countdown state machine for a single timer.
type Engine struct {
	mu              sync.Mutex
	options         Options
	settings        model.Settings
	state           State
	baseline        time.Time
	initialDuration int
	history         []model.Session
	pending         clock.Timer
	generation      uint64
	observers       []chan Event
	closed          bool
}

// New creates an idle engine in work mode.
func New(settings model.Settings, options Options) *Engine {
	if options.Clock == nil {
		options.Clock = clock.System
	}
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Recorder == nil {
		options.Recorder = nopRecorder{}
	}
	if options.Alerter == nil {
		options.Alerter = nopAlerter{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.NewID == nil {
		options.NewID = uuid.NewString
	}
	if options.UserID != "" {
		options.Logger = options.Logger.With(slog.String("user_id", options.UserID))
	}

	return &Engine{
		options:  options,
		settings: settings,
		state: State{
			CurrentMode:   model.ModeWork,
			TimeRemaining: DurationFor(model.ModeWork, settings),
			Version:       1,
		},
	}
}

// Snapshot returns a copy of the state with the remaining time computed at
// the current instant.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := e.state.clone()
	if e.countingLocked() {
		snapshot.TimeRemaining = e.remainingLocked(e.options.Clock.Now())
	}
	return snapshot
}

// Settings returns the settings currently used for duration resolution.
func (e *Engine) Settings() model.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// History returns the sessions completed since the last Reset.
func (e *Engine) History() []model.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Session, 0, len(e.history))
	for _, session := range e.history {
		out = append(out, session.Clone())
	}
	return out
}

// Subscribe registers a new observer channel.
func (e *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.observers = append(e.observers, ch)
	return ch
}

// Unsubscribe removes and closes an observer channel.
func (e *Engine) Unsubscribe(ch <-chan Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, observer := range e.observers {
		if observer == ch {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			close(observer)
			return
		}
	}
}

// Close cancels ticking and closes all observers. Commands issued afterwards
// fail with ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.cancelScheduleLocked()
	for _, ch := range e.observers {
		close(ch)
	}
	e.observers = nil
}

// Start begins a new countdown. An empty mode keeps the current mode and an
// empty taskID keeps the current task. Any in-flight session is discarded.
func (e *Engine) Start(mode model.Mode, taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if mode == "" {
		mode = e.state.CurrentMode
	}
	if !mode.Valid() {
		return fmt.Errorf("start %q: %w", mode, ErrInvalidMode)
	}
	if e.state.NeedsConfirmation {
		return transitionError("start", e.state.Status())
	}

	now := e.options.Clock.Now()
	if taskID != "" {
		e.state.CurrentTaskID = &taskID
	}
	e.startLocked(mode, now)
	e.state.Version++
	e.emitLocked(EventStateChange, nil, now)
	return nil
}

// Pause freezes a running countdown.
func (e *Engine) Pause() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if !e.countingLocked() {
		status := e.state.Status()
		e.mu.Unlock()
		return transitionError("pause", status)
	}

	now := e.options.Clock.Now()
	remaining := e.remainingLocked(now)
	if remaining == 0 {
		// The countdown ran out before the tick observed it.
		completion := e.completeLocked(now)
		e.mu.Unlock()
		e.dispatch(completion)
		return nil
	}

	e.cancelScheduleLocked()
	e.state.TimeRemaining = remaining
	e.state.IsPaused = true
	e.state.Version++
	e.emitLocked(EventStateChange, nil, now)
	e.mu.Unlock()
	return nil
}

// Resume restarts a paused countdown from its frozen remaining time.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if !e.state.IsRunning || !e.state.IsPaused {
		return transitionError("resume", e.state.Status())
	}

	now := e.options.Clock.Now()
	e.baseline = now
	e.initialDuration = e.state.TimeRemaining
	e.state.IsPaused = false
	e.state.Version++
	e.scheduleLocked()
	e.emitLocked(EventStateChange, nil, now)
	return nil
}

// Stop discards the in-flight session and restores the full duration of the
// current mode. A pending confirmation is cleared.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.stopLocked()
	e.state.Version++
	e.emitLocked(EventStateChange, nil, e.options.Clock.Now())
	return nil
}

// Reset stops the timer, clears the completed-session count and history and
// returns to work mode.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.stopLocked()
	e.state.SessionCount = 0
	e.history = nil
	e.state.CurrentMode = model.ModeWork
	e.state.TimeRemaining = DurationFor(model.ModeWork, e.settings)
	e.state.Version++
	e.emitLocked(EventStateChange, nil, e.options.Clock.Now())
	return nil
}

// SwitchMode stops the timer and selects mode with its full duration.
func (e *Engine) SwitchMode(mode model.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("switch mode %q: %w", mode, ErrInvalidMode)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.stopLocked()
	e.state.CurrentMode = mode
	e.state.TimeRemaining = DurationFor(mode, e.settings)
	e.state.Version++
	e.emitLocked(EventStateChange, nil, e.options.Clock.Now())
	return nil
}

// UpdateSettings merges patch into the current settings. Invalid results are
// rejected and the previous settings kept. An in-flight countdown keeps its
// duration; otherwise the remaining time is re-resolved for the current mode.
func (e *Engine) UpdateSettings(patch model.SettingsPatch) (model.Settings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return e.settings, ErrClosed
	}
	merged := patch.Apply(e.settings)
	if err := ValidateSettings(merged); err != nil {
		return e.settings, err
	}
	e.settings = merged
	if !e.state.IsRunning {
		e.state.TimeRemaining = DurationFor(e.state.CurrentMode, e.settings)
	}
	e.state.Version++
	e.emitLocked(EventStateChange, nil, e.options.Clock.Now())
	return e.settings, nil
}

// Confirm acknowledges a finished countdown. After work the engine moves to
// a short break, after a break it stays in work; the configured auto-start
// flag decides whether the next countdown starts immediately.
func (e *Engine) Confirm() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if !e.state.NeedsConfirmation || e.state.CompletedMode == nil {
		return transitionError("confirm", e.state.Status())
	}

	completed := *e.state.CompletedMode
	e.state.NeedsConfirmation = false
	e.state.CompletedMode = nil
	now := e.options.Clock.Now()

	if completed == model.ModeWork {
		e.state.CurrentMode = model.ModeShortBreak
		e.state.TimeRemaining = DurationFor(model.ModeShortBreak, e.settings)
		if e.settings.AutoStartBreaks {
			e.startLocked(model.ModeShortBreak, now)
		}
	} else if e.settings.AutoStartWork {
		e.startLocked(model.ModeWork, now)
	}

	e.state.Version++
	e.emitLocked(EventStateChange, nil, now)
	return nil
}

// Tick advances the countdown to now. It returns the completion when this
// call observed the zero-crossing and nil otherwise; later ticks after a
// completion are no-ops.
func (e *Engine) Tick(now time.Time) *CompletionEvent {
	e.mu.Lock()
	if e.closed || !e.countingLocked() {
		e.mu.Unlock()
		return nil
	}
	completion := e.tickLocked(now)
	e.mu.Unlock()
	e.dispatch(completion)
	return completion
}

func (e *Engine) onScheduledTick(generation uint64) {
	e.mu.Lock()
	if e.closed || generation != e.generation || !e.countingLocked() {
		e.mu.Unlock()
		return
	}
	completion := e.tickLocked(e.options.Clock.Now())
	if completion == nil {
		e.pending = e.options.Clock.AfterFunc(e.options.TickInterval, func() {
			e.onScheduledTick(generation)
		})
	}
	e.mu.Unlock()
	e.dispatch(completion)
}

func (e *Engine) tickLocked(now time.Time) *CompletionEvent {
	remaining := e.remainingLocked(now)
	if remaining == 0 {
		return e.completeLocked(now)
	}
	if remaining != e.state.TimeRemaining {
		e.state.TimeRemaining = remaining
		e.emitLocked(EventProgress, nil, now)
	}
	return nil
}

func (e *Engine) completeLocked(now time.Time) *CompletionEvent {
	e.cancelScheduleLocked()

	sealed := e.state.CurrentSession.Clone()
	end := now
	sealed.EndTime = &end
	sealed.Completed = true

	completed := sealed.Mode
	next := NextMode(completed)
	if completed == model.ModeWork {
		e.state.SessionCount++
	}
	e.history = append(e.history, sealed.Clone())

	e.state.CurrentMode = next
	e.state.TimeRemaining = DurationFor(next, e.settings)
	e.state.NeedsConfirmation = true
	e.state.CompletedMode = &completed
	e.state.IsRunning = false
	e.state.IsPaused = false
	e.state.CurrentSession = nil
	e.state.Version++

	completion := &CompletionEvent{
		CompletedMode: completed,
		NextMode:      next,
		Session:       sealed,
	}
	e.emitLocked(EventSessionComplete, completion, now)
	e.options.Logger.Info("session completed",
		slog.String("session_id", sealed.ID),
		slog.String("mode", string(completed)),
		slog.Int("session_count", e.state.SessionCount),
	)
	return completion
}

// dispatch hands a completion to the recorder and alerter outside the lock.
func (e *Engine) dispatch(completion *CompletionEvent) {
	if completion == nil {
		return
	}
	e.options.Recorder.Record(completion.Session.Clone())
	e.options.Alerter.Alert(model.Alert{
		EventType: model.AlertSessionComplete,
		Mode:      completion.CompletedMode,
		UserID:    e.options.UserID,
		At:        *completion.Session.EndTime,
	})
}

func (e *Engine) startLocked(mode model.Mode, now time.Time) {
	if e.state.CurrentSession != nil {
		e.options.Logger.Debug("discarding in-flight session",
			slog.String("session_id", e.state.CurrentSession.ID))
	}
	duration := DurationFor(mode, e.settings)
	session := model.Session{
		ID:              e.options.NewID(),
		Mode:            mode,
		DurationSeconds: duration,
		StartTime:       now,
	}
	if e.state.CurrentTaskID != nil {
		task := *e.state.CurrentTaskID
		session.TaskID = &task
	}

	e.state.CurrentMode = mode
	e.state.CurrentSession = &session
	e.state.IsRunning = true
	e.state.IsPaused = false
	e.state.TimeRemaining = duration
	e.baseline = now
	e.initialDuration = duration
	e.scheduleLocked()
}

func (e *Engine) stopLocked() {
	e.cancelScheduleLocked()
	if e.state.CurrentSession != nil {
		e.options.Logger.Debug("discarding in-flight session",
			slog.String("session_id", e.state.CurrentSession.ID))
	}
	e.state.CurrentSession = nil
	e.state.IsRunning = false
	e.state.IsPaused = false
	e.state.NeedsConfirmation = false
	e.state.CompletedMode = nil
	e.state.TimeRemaining = DurationFor(e.state.CurrentMode, e.settings)
}

func (e *Engine) countingLocked() bool {
	return e.state.IsRunning && !e.state.IsPaused
}

func (e *Engine) remainingLocked(now time.Time) int {
	elapsed := int(now.Sub(e.baseline) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := e.initialDuration - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (e *Engine) scheduleLocked() {
	e.cancelScheduleLocked()
	if e.options.ManualTick {
		return
	}
	generation := e.generation
	e.pending = e.options.Clock.AfterFunc(e.options.TickInterval, func() {
		e.onScheduledTick(generation)
	})
}

func (e *Engine) cancelScheduleLocked() {
	e.generation++
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
}

func (e *Engine) emitLocked(eventType EventType, completion *CompletionEvent, now time.Time) {
	if len(e.observers) == 0 {
		return
	}
	event := Event{
		Type:       eventType,
		State:      e.state.clone(),
		Completion: completion,
		At:         now,
	}
	for _, ch := range e.observers {
		select {
		case ch <- event:
		default:
		}
	}
}
