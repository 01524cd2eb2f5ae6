package timer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pomodoro/timer/internal/clock"
	"pomodoro/timer/internal/model"
)

var testStart = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type captureRecorder struct {
	mu       sync.Mutex
	sessions []model.Session
}

func (r *captureRecorder) Record(session model.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, session)
}

func (r *captureRecorder) recorded() []model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Session(nil), r.sessions...)
}

type captureAlerter struct {
	mu     sync.Mutex
	alerts []model.Alert
}

func (a *captureAlerter) Alert(alert model.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
}

type harness struct {
	engine   *Engine
	clock    *clock.Fake
	recorder *captureRecorder
	alerter  *captureAlerter
}

func newHarness(t *testing.T, settings model.Settings, manual bool) *harness {
	t.Helper()
	fake := clock.NewFake(testStart)
	recorder := &captureRecorder{}
	alerter := &captureAlerter{}
	seq := 0
	engine := New(settings, Options{
		Clock:      fake,
		ManualTick: manual,
		Recorder:   recorder,
		Alerter:    alerter,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		UserID:     "user-1",
		NewID: func() string {
			seq++
			return fmt.Sprintf("session-%d", seq)
		},
	})
	t.Cleanup(engine.Close)
	return &harness{engine: engine, clock: fake, recorder: recorder, alerter: alerter}
}

// elapse moves the fake clock without firing callbacks and ticks manually.
func (h *harness) elapse(d time.Duration) *CompletionEvent {
	h.clock.Set(h.clock.Now().Add(d))
	return h.engine.Tick(h.clock.Now())
}

func scenarioSettings() model.Settings {
	return model.Settings{WorkDuration: 25, ShortBreakDuration: 5, LongBreakDuration: 15}
}

func TestDurationForMatchesSettings(t *testing.T) {
	settings := model.Settings{WorkDuration: 50, ShortBreakDuration: 10, LongBreakDuration: 30}
	cases := map[model.Mode]int{
		model.ModeWork:       50 * 60,
		model.ModeShortBreak: 10 * 60,
		model.ModeLongBreak:  30 * 60,
	}
	for mode, want := range cases {
		if got := DurationFor(mode, settings); got != want {
			t.Fatalf("DurationFor(%s) = %d, want %d", mode, got, want)
		}
	}
}

func TestDurationForFallsBackOnNonPositive(t *testing.T) {
	settings := model.Settings{WorkDuration: 0, ShortBreakDuration: -3, LongBreakDuration: 15}
	if got := DurationFor(model.ModeWork, settings); got != 25*60 {
		t.Fatalf("expected work fallback 1500, got %d", got)
	}
	if got := DurationFor(model.ModeShortBreak, settings); got != 5*60 {
		t.Fatalf("expected short break fallback 300, got %d", got)
	}
}

func TestNextMode(t *testing.T) {
	if NextMode(model.ModeWork) != model.ModeShortBreak {
		t.Fatal("work must be followed by a short break")
	}
	if NextMode(model.ModeShortBreak) != model.ModeWork || NextMode(model.ModeLongBreak) != model.ModeWork {
		t.Fatal("breaks must be followed by work")
	}
}

func TestScenarioA_CompletionAwaitsConfirmation(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)

	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := h.engine.Snapshot().TimeRemaining; got != 1500 {
		t.Fatalf("expected 1500 remaining, got %d", got)
	}

	completion := h.elapse(1500 * time.Second)
	if completion == nil {
		t.Fatal("expected completion at zero")
	}
	if completion.CompletedMode != model.ModeWork || completion.NextMode != model.ModeShortBreak {
		t.Fatalf("unexpected completion: %+v", completion)
	}

	state := h.engine.Snapshot()
	if state.Status() != StatusAwaitingConfirmation {
		t.Fatalf("expected awaiting confirmation, got %s", state.Status())
	}
	if state.CompletedMode == nil || *state.CompletedMode != model.ModeWork {
		t.Fatalf("expected completedMode work, got %v", state.CompletedMode)
	}
	if state.SessionCount != 1 {
		t.Fatalf("expected sessionCount 1, got %d", state.SessionCount)
	}
	if state.CurrentSession != nil || state.IsRunning {
		t.Fatal("expected no running session while awaiting confirmation")
	}

	if err := h.engine.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	state = h.engine.Snapshot()
	if state.CurrentMode != model.ModeShortBreak {
		t.Fatalf("expected shortBreak, got %s", state.CurrentMode)
	}
	if state.IsRunning {
		t.Fatal("expected idle timer without autoStartBreaks")
	}
	if state.TimeRemaining != 300 {
		t.Fatalf("expected 300 remaining, got %d", state.TimeRemaining)
	}
}

func TestScenarioB_AutoStartBreaks(t *testing.T) {
	settings := scenarioSettings()
	settings.AutoStartBreaks = true
	h := newHarness(t, settings, true)

	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(1500 * time.Second)
	if err := h.engine.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	state := h.engine.Snapshot()
	if !state.IsRunning {
		t.Fatal("expected break to auto-start")
	}
	if state.CurrentMode != model.ModeShortBreak {
		t.Fatalf("expected shortBreak, got %s", state.CurrentMode)
	}
	if state.TimeRemaining != 300 {
		t.Fatalf("expected 300 remaining, got %d", state.TimeRemaining)
	}
	if state.CurrentSession == nil || state.CurrentSession.Mode != model.ModeShortBreak {
		t.Fatalf("expected a shortBreak session in flight, got %+v", state.CurrentSession)
	}
}

func TestScenarioC_PausedTimeDoesNotCount(t *testing.T) {
	h := newHarness(t, scenarioSettings(), false)

	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(10 * time.Second)
	if err := h.engine.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	h.clock.Advance(100 * time.Second)
	if got := h.engine.Snapshot().TimeRemaining; got != 1490 {
		t.Fatalf("expected 1490 while paused, got %d", got)
	}
	if err := h.engine.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	h.clock.Advance(5 * time.Second)

	if got := h.engine.Snapshot().TimeRemaining; got != 1485 {
		t.Fatalf("expected 1485, got %d", got)
	}
}

func TestScenarioD_PauseWhileIdleIsRejected(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	before := h.engine.Snapshot()

	err := h.engine.Pause()
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	after := h.engine.Snapshot()
	if after.Version != before.Version || after.TimeRemaining != before.TimeRemaining || after.IsPaused {
		t.Fatalf("state changed on rejected pause: %+v -> %+v", before, after)
	}
}

func TestScenarioE_ResetClearsCount(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)

	for i := 0; i < 3; i++ {
		if err := h.engine.Start(model.ModeWork, ""); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		h.elapse(1500 * time.Second)
		if err := h.engine.Confirm(); err != nil {
			t.Fatalf("confirm %d: %v", i, err)
		}
	}
	if got := h.engine.Snapshot().SessionCount; got != 3 {
		t.Fatalf("expected 3 sessions, got %d", got)
	}
	if got := len(h.engine.History()); got != 3 {
		t.Fatalf("expected 3 history entries, got %d", got)
	}

	if err := h.engine.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	state := h.engine.Snapshot()
	if state.SessionCount != 0 || state.CurrentMode != model.ModeWork || state.TimeRemaining != 1500 {
		t.Fatalf("unexpected state after reset: %+v", state)
	}
	if len(h.engine.History()) != 0 {
		t.Fatal("expected history cleared")
	}
}

func TestTickIsExactlyOnceAtZero(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	if h.elapse(1600*time.Second) == nil {
		t.Fatal("expected first tick past zero to complete")
	}
	for i := 0; i < 5; i++ {
		if h.elapse(time.Second) != nil {
			t.Fatalf("tick %d re-completed the session", i)
		}
	}

	if got := len(h.recorder.recorded()); got != 1 {
		t.Fatalf("expected exactly one recorded session, got %d", got)
	}
	if got := len(h.alerter.alerts); got != 1 {
		t.Fatalf("expected exactly one alert, got %d", got)
	}
	if h.engine.Snapshot().SessionCount != 1 {
		t.Fatal("session count incremented more than once")
	}
}

func TestConcurrentTicksCompleteOnce(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Set(testStart.Add(1500 * time.Second))

	var wg sync.WaitGroup
	var mu sync.Mutex
	completions := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.engine.Tick(h.clock.Now()) != nil {
				mu.Lock()
				completions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if completions != 1 {
		t.Fatalf("expected one completion, got %d", completions)
	}
}

func TestRecordedSessionIsSealed(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeWork, "task-9"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(1500 * time.Second)

	recorded := h.recorder.recorded()
	if len(recorded) != 1 {
		t.Fatalf("expected one recorded session, got %d", len(recorded))
	}
	session := recorded[0]
	if !session.Completed || session.EndTime == nil {
		t.Fatalf("expected sealed session, got %+v", session)
	}
	if !session.EndTime.Equal(testStart.Add(1500 * time.Second)) {
		t.Fatalf("unexpected end time %v", session.EndTime)
	}
	if session.DurationSeconds != 1500 || session.Mode != model.ModeWork {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.TaskID == nil || *session.TaskID != "task-9" {
		t.Fatalf("expected task id task-9, got %v", session.TaskID)
	}
	if alert := h.alerter.alerts[0]; alert.EventType != model.AlertSessionComplete || alert.Mode != model.ModeWork || alert.UserID != "user-1" {
		t.Fatalf("unexpected alert %+v", alert)
	}
}

func TestPauseResumeCyclesDoNotDrift(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(42 * time.Second)
	before := h.engine.Snapshot().TimeRemaining

	for i := 0; i < 20; i++ {
		if err := h.engine.Pause(); err != nil {
			t.Fatalf("pause %d: %v", i, err)
		}
		if err := h.engine.Resume(); err != nil {
			t.Fatalf("resume %d: %v", i, err)
		}
	}

	if got := h.engine.Snapshot().TimeRemaining; got != before {
		t.Fatalf("expected %d after pause cycling, got %d", before, got)
	}
}

func TestStartThenStopRestoresDuration(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(300 * time.Second)
	if err := h.engine.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	state := h.engine.Snapshot()
	if state.TimeRemaining != DurationFor(model.ModeWork, scenarioSettings()) {
		t.Fatalf("expected full work duration, got %d", state.TimeRemaining)
	}
	if state.IsRunning || state.IsPaused || state.CurrentSession != nil {
		t.Fatalf("expected idle state, got %+v", state)
	}
	if len(h.recorder.recorded()) != 0 {
		t.Fatal("stopped session must not be recorded")
	}
}

func TestResumeWhileRunningIsRejected(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition while idle, got %v", err)
	}
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.engine.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition while running, got %v", err)
	}
	if err := h.engine.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := h.engine.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on double pause, got %v", err)
	}
}

func TestConfirmRequiresPendingCompletion(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition while idle, got %v", err)
	}
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.engine.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition while running, got %v", err)
	}
}

func TestStartRejectedWhileAwaitingConfirmation(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(1500 * time.Second)

	if err := h.engine.Start(model.ModeWork, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := h.engine.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	state := h.engine.Snapshot()
	if state.NeedsConfirmation || state.CompletedMode != nil {
		t.Fatal("stop must clear the pending confirmation")
	}
	if err := h.engine.Start("", ""); err != nil {
		t.Fatalf("start after stop: %v", err)
	}
}

func TestBreakCompletionWithAutoStartWork(t *testing.T) {
	settings := scenarioSettings()
	settings.AutoStartWork = true
	h := newHarness(t, settings, true)

	if err := h.engine.Start(model.ModeShortBreak, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	completion := h.elapse(300 * time.Second)
	if completion == nil || completion.NextMode != model.ModeWork {
		t.Fatalf("unexpected completion %+v", completion)
	}
	if h.engine.Snapshot().SessionCount != 0 {
		t.Fatal("break completion must not count as a work session")
	}
	if err := h.engine.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	state := h.engine.Snapshot()
	if !state.IsRunning || state.CurrentMode != model.ModeWork || state.TimeRemaining != 1500 {
		t.Fatalf("expected work auto-started, got %+v", state)
	}
}

func TestBreakCompletionWithoutAutoStartStaysIdle(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeLongBreak, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(900 * time.Second)
	if err := h.engine.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	state := h.engine.Snapshot()
	if state.IsRunning || state.CurrentMode != model.ModeWork || state.TimeRemaining != 1500 {
		t.Fatalf("expected idle work, got %+v", state)
	}
}

func TestStartWhileRunningReplacesSession(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := h.engine.Snapshot().CurrentSession.ID
	h.elapse(60 * time.Second)

	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("restart: %v", err)
	}
	state := h.engine.Snapshot()
	if state.CurrentSession.ID == first {
		t.Fatal("expected a new session on restart")
	}
	if state.TimeRemaining != 1500 {
		t.Fatalf("expected full duration after restart, got %d", state.TimeRemaining)
	}
	if len(h.recorder.recorded()) != 0 {
		t.Fatal("replaced session must not be recorded")
	}
}

func TestSwitchModeResetsToFullDuration(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(90 * time.Second)

	if err := h.engine.SwitchMode(model.ModeLongBreak); err != nil {
		t.Fatalf("switch mode: %v", err)
	}
	state := h.engine.Snapshot()
	if state.IsRunning || state.CurrentMode != model.ModeLongBreak || state.TimeRemaining != 900 {
		t.Fatalf("unexpected state after switch: %+v", state)
	}
	if err := h.engine.SwitchMode("nap"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestUpdateSettingsRejectsInvalid(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	zero := 0
	_, err := h.engine.UpdateSettings(model.SettingsPatch{WorkDuration: &zero})
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
	var settingsErr *SettingsError
	if !errors.As(err, &settingsErr) || settingsErr.Field != "workDuration" {
		t.Fatalf("expected SettingsError for workDuration, got %v", err)
	}
	if h.engine.Settings().WorkDuration != 25 {
		t.Fatal("rejected update must keep prior settings")
	}
}

func TestUpdateSettingsAppliesOnNextResolution(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(100 * time.Second)

	fifty := 50
	if _, err := h.engine.UpdateSettings(model.SettingsPatch{WorkDuration: &fifty}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if got := h.engine.Snapshot().TimeRemaining; got != 1400 {
		t.Fatalf("in-flight countdown must keep its duration, got %d", got)
	}

	if err := h.engine.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := h.engine.Snapshot().TimeRemaining; got != 3000 {
		t.Fatalf("expected new work duration 3000, got %d", got)
	}

	ten := 10
	if _, err := h.engine.UpdateSettings(model.SettingsPatch{WorkDuration: &ten}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if got := h.engine.Snapshot().TimeRemaining; got != 600 {
		t.Fatalf("idle timer should show the new duration, got %d", got)
	}
}

func TestPauseAfterDeadlineCompletes(t *testing.T) {
	h := newHarness(t, scenarioSettings(), true)
	if err := h.engine.Start(model.ModeShortBreak, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Set(testStart.Add(10 * time.Minute))

	if err := h.engine.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	state := h.engine.Snapshot()
	if !state.NeedsConfirmation || state.IsPaused {
		t.Fatalf("expected completion instead of pause, got %+v", state)
	}
	if len(h.recorder.recorded()) != 1 {
		t.Fatal("expected the finished session to be recorded")
	}
}

func TestScheduledTicksCompleteOnce(t *testing.T) {
	h := newHarness(t, scenarioSettings(), false)
	events := h.engine.Subscribe(4096)

	if err := h.engine.Start(model.ModeShortBreak, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(10 * time.Minute)

	if got := len(h.recorder.recorded()); got != 1 {
		t.Fatalf("expected one recorded session, got %d", got)
	}
	if h.clock.Pending() != 0 {
		t.Fatalf("expected no pending callbacks after completion, got %d", h.clock.Pending())
	}

	completions := 0
	progress := 0
	for len(events) > 0 {
		event := <-events
		switch event.Type {
		case EventSessionComplete:
			completions++
			if event.Completion == nil || event.Completion.CompletedMode != model.ModeShortBreak {
				t.Fatalf("unexpected completion event %+v", event)
			}
		case EventProgress:
			progress++
		}
	}
	if completions != 1 {
		t.Fatalf("expected one completion event, got %d", completions)
	}
	if progress != 299 {
		t.Fatalf("expected 299 progress events, got %d", progress)
	}
}

func TestPauseCancelsScheduledTick(t *testing.T) {
	h := newHarness(t, scenarioSettings(), false)
	if err := h.engine.Start(model.ModeShortBreak, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(3 * time.Second)
	if err := h.engine.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if h.clock.Pending() != 0 {
		t.Fatalf("expected pause to cancel the schedule, got %d pending", h.clock.Pending())
	}

	h.clock.Advance(time.Hour)
	if len(h.recorder.recorded()) != 0 {
		t.Fatal("paused timer must not complete")
	}
	if err := h.engine.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if h.clock.Pending() != 1 {
		t.Fatalf("expected resume to schedule one tick, got %d", h.clock.Pending())
	}
	h.clock.Advance(297 * time.Second)
	if len(h.recorder.recorded()) != 1 {
		t.Fatal("expected completion after the remaining time")
	}
}

func TestStaleCallbackIsIgnored(t *testing.T) {
	h := newHarness(t, scenarioSettings(), false)
	if err := h.engine.Start(model.ModeShortBreak, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.engine.mu.Lock()
	stale := h.engine.generation
	h.engine.mu.Unlock()

	if err := h.engine.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := h.engine.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	h.clock.Set(testStart.Add(time.Hour))
	h.engine.onScheduledTick(stale)

	if len(h.recorder.recorded()) != 0 {
		t.Fatal("stale callback completed a session")
	}
}

func TestSuspendedProcessCatchesUp(t *testing.T) {
	h := newHarness(t, scenarioSettings(), false)
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	// The process sleeps for 20 minutes; the next tick fires late.
	h.clock.Set(testStart.Add(20 * time.Minute))
	h.clock.Advance(0)

	if got := h.engine.Snapshot().TimeRemaining; got != 300 {
		t.Fatalf("expected 300 after catching up, got %d", got)
	}
}

func TestCloseRejectsCommands(t *testing.T) {
	h := newHarness(t, scenarioSettings(), false)
	events := h.engine.Subscribe(1)
	if err := h.engine.Start(model.ModeWork, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.engine.Close()

	if err := h.engine.Start(model.ModeWork, ""); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if h.clock.Pending() != 0 {
		t.Fatal("close must cancel scheduling")
	}
	for range events {
	}
}
