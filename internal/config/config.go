package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pomodoro/timer/internal/model"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string
	LogLevel      slog.Level

	TickInterval      time.Duration
	RecorderQueueSize int
	RecorderTimeout   time.Duration
	MySQLDSN          string
	TimerDefaultsFile string
}

func Load() Config {
	return Config{
		Port:              getEnv("PORT", "8080"),
		DBPath:            getEnv("DB_PATH", "./data/pomodoro.db"),
		JWTSecret:         getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:          time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir:     getEnv("MIGRATIONS_DIR", ""),
		LogLevel:          getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		TickInterval:      getEnvDuration("TICK_INTERVAL_MS", time.Second),
		RecorderQueueSize: getEnvInt("RECORDER_QUEUE_SIZE", 256),
		RecorderTimeout:   getEnvDuration("RECORDER_TIMEOUT_MS", 5*time.Second),
		MySQLDSN:          getEnv("MYSQL_DSN", ""),
		TimerDefaultsFile: getEnv("TIMER_DEFAULTS_FILE", ""),
	}
}

// NewLogger builds the process logger at the configured level.
func (c Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: c.LogLevel}))
}

// LoadTimerDefaults reads the settings given to new users from a YAML file.
// A missing path or file yields the built-in defaults; positive durations in
// the file override them.
func LoadTimerDefaults(path string) (model.Settings, error) {
	settings := model.DefaultSettings()
	if path == "" {
		return settings, nil
	}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read timer defaults: %w", err)
	}

	var fileData model.Settings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse timer defaults yaml: %w", err)
	}

	if fileData.WorkDuration > 0 {
		settings.WorkDuration = fileData.WorkDuration
	}
	if fileData.ShortBreakDuration > 0 {
		settings.ShortBreakDuration = fileData.ShortBreakDuration
	}
	if fileData.LongBreakDuration > 0 {
		settings.LongBreakDuration = fileData.LongBreakDuration
	}
	settings.AutoStartBreaks = fileData.AutoStartBreaks
	settings.AutoStartWork = fileData.AutoStartWork
	return settings, nil
}

// MarshalTimerDefaults renders settings in the defaults file format.
func MarshalTimerDefaults(settings model.Settings) ([]byte, error) {
	serialized, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("marshal timer defaults yaml: %w", err)
	}
	return serialized, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvDuration reads a positive millisecond count.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	ms := getEnvInt(key, 0)
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}
	return level
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
