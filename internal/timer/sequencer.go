package timer

import "pomodoro/timer/internal/model"

// NextMode returns the phase that follows mode. A work session is always
// followed by a short break; long breaks are only entered via SwitchMode.
func NextMode(mode model.Mode) model.Mode {
	if mode == model.ModeWork {
		return model.ModeShortBreak
	}
	return model.ModeWork
}
