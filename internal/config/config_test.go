package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pomodoro/timer/internal/model"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TICK_INTERVAL_MS", "250")
	t.Setenv("RECORDER_TIMEOUT_MS", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms tick, got %v", cfg.TickInterval)
	}
	if cfg.RecorderTimeout != 5*time.Second {
		t.Fatalf("expected fallback timeout, got %v", cfg.RecorderTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.LogLevel)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://a.test" || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadTimerDefaultsMissingFile(t *testing.T) {
	settings, err := LoadTimerDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if settings != model.DefaultSettings() {
		t.Fatalf("expected built-in defaults, got %+v", settings)
	}
}

func TestLoadTimerDefaultsOverridesPositiveValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timer.yaml")
	content := "work_duration: 50\nshort_break_duration: 0\nlong_break_duration: -3\nauto_start_breaks: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	settings, err := LoadTimerDefaults(path)
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if settings.WorkDuration != 50 {
		t.Fatalf("expected work 50, got %d", settings.WorkDuration)
	}
	if settings.ShortBreakDuration != model.DefaultShortBreakMinutes || settings.LongBreakDuration != model.DefaultLongBreakMinutes {
		t.Fatalf("non-positive values must keep defaults, got %+v", settings)
	}
	if !settings.AutoStartBreaks || settings.AutoStartWork {
		t.Fatalf("unexpected auto-start flags: %+v", settings)
	}
}

func TestTimerDefaultsRoundTripThroughFile(t *testing.T) {
	want := model.Settings{WorkDuration: 45, ShortBreakDuration: 10, LongBreakDuration: 30, AutoStartWork: true}
	raw, err := MarshalTimerDefaults(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "timer.yaml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, err := LoadTimerDefaults(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestLoadTimerDefaultsRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timer.yaml")
	if err := os.WriteFile(path, []byte("work_duration: [1, 2"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadTimerDefaults(path); err == nil {
		t.Fatal("expected parse error")
	}
}
