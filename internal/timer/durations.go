package timer

import "pomodoro/timer/internal/model"

// DurationFor resolves the countdown length in seconds for mode. Non-positive
// configured values fall back to the built-in default for that mode so a
// countdown is never zero or negative.
func DurationFor(mode model.Mode, settings model.Settings) int {
	var minutes, fallback int
	switch mode {
	case model.ModeShortBreak:
		minutes, fallback = settings.ShortBreakDuration, model.DefaultShortBreakMinutes
	case model.ModeLongBreak:
		minutes, fallback = settings.LongBreakDuration, model.DefaultLongBreakMinutes
	default:
		minutes, fallback = settings.WorkDuration, model.DefaultWorkMinutes
	}
	if minutes <= 0 {
		minutes = fallback
	}
	return minutes * 60
}

// ValidateSettings rejects durations outside 1..MaxDurationMinutes.
func ValidateSettings(settings model.Settings) error {
	checks := []struct {
		name  string
		value int
	}{
		{"workDuration", settings.WorkDuration},
		{"shortBreakDuration", settings.ShortBreakDuration},
		{"longBreakDuration", settings.LongBreakDuration},
	}
	for _, check := range checks {
		if check.value <= 0 || check.value > model.MaxDurationMinutes {
			return &SettingsError{Field: check.name, Value: check.value}
		}
	}
	return nil
}
