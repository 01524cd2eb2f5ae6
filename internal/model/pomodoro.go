package model

import "time"

// Mode is one of the three Pomodoro phases.
type Mode string

const (
	ModeWork       Mode = "work"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

const (
	DefaultWorkMinutes       = 25
	DefaultShortBreakMinutes = 5
	DefaultLongBreakMinutes  = 15

	// MaxDurationMinutes bounds any single configured phase to one day.
	MaxDurationMinutes = 24 * 60
)

// Valid reports whether m names a known mode.
func (m Mode) Valid() bool {
	return m == ModeWork || m == ModeShortBreak || m == ModeLongBreak
}

// IsBreak reports whether m is a short or long break.
func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// Settings is the per-user timer configuration. Durations are minutes.
type Settings struct {
	WorkDuration       int  `json:"workDuration" yaml:"work_duration"`
	ShortBreakDuration int  `json:"shortBreakDuration" yaml:"short_break_duration"`
	LongBreakDuration  int  `json:"longBreakDuration" yaml:"long_break_duration"`
	AutoStartBreaks    bool `json:"autoStartBreaks" yaml:"auto_start_breaks"`
	AutoStartWork      bool `json:"autoStartWork" yaml:"auto_start_work"`
}

// DefaultSettings returns 25/5/15 with auto-start disabled.
func DefaultSettings() Settings {
	return Settings{
		WorkDuration:       DefaultWorkMinutes,
		ShortBreakDuration: DefaultShortBreakMinutes,
		LongBreakDuration:  DefaultLongBreakMinutes,
	}
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	WorkDuration       *int  `json:"workDuration,omitempty"`
	ShortBreakDuration *int  `json:"shortBreakDuration,omitempty"`
	LongBreakDuration  *int  `json:"longBreakDuration,omitempty"`
	AutoStartBreaks    *bool `json:"autoStartBreaks,omitempty"`
	AutoStartWork      *bool `json:"autoStartWork,omitempty"`
}

// Apply returns a copy of s with the non-nil fields of p applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.WorkDuration != nil {
		s.WorkDuration = *p.WorkDuration
	}
	if p.ShortBreakDuration != nil {
		s.ShortBreakDuration = *p.ShortBreakDuration
	}
	if p.LongBreakDuration != nil {
		s.LongBreakDuration = *p.LongBreakDuration
	}
	if p.AutoStartBreaks != nil {
		s.AutoStartBreaks = *p.AutoStartBreaks
	}
	if p.AutoStartWork != nil {
		s.AutoStartWork = *p.AutoStartWork
	}
	return s
}

// Session is one countdown run. It is sealed (EndTime set, Completed true)
// when the countdown reaches zero.
type Session struct {
	ID              string     `json:"id"`
	Mode            Mode       `json:"mode"`
	DurationSeconds int        `json:"durationSeconds"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Completed       bool       `json:"completed"`
	TaskID          *string    `json:"taskId,omitempty"`
}

// Clone returns a deep copy so the receiver can hand it to another owner.
func (s Session) Clone() Session {
	out := s
	if s.EndTime != nil {
		end := *s.EndTime
		out.EndTime = &end
	}
	if s.TaskID != nil {
		task := *s.TaskID
		out.TaskID = &task
	}
	return out
}

// Alert is what the alerter receives when a countdown finishes.
type Alert struct {
	EventType string    `json:"eventType"`
	Mode      Mode      `json:"mode"`
	UserID    string    `json:"userId,omitempty"`
	At        time.Time `json:"at"`
}

const AlertSessionComplete = "sessionComplete"
