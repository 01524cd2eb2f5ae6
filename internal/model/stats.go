package model

import "time"

// DateLayout is the calendar-day key used by the stats tables.
const DateLayout = "2006-01-02"

// DailyStats aggregates completed sessions for one UTC day. Times are minutes.
type DailyStats struct {
	Date           string `json:"date"`
	WorkSessions   int    `json:"workSessions"`
	TotalWorkTime  int    `json:"totalWorkTime"`
	TotalBreakTime int    `json:"totalBreakTime"`
	TasksCompleted int    `json:"tasksCompleted"`
	FocusScore     int    `json:"focusScore"`
}

// WeeklyStats aggregates completed sessions for one week starting on Sunday.
type WeeklyStats struct {
	WeekStart         string `json:"weekStart"`
	TotalSessions     int    `json:"totalSessions"`
	TotalWorkTime     int    `json:"totalWorkTime"`
	TotalBreakTime    int    `json:"totalBreakTime"`
	AverageFocusScore int    `json:"averageFocusScore"`
}

// FocusScore is work time as a rounded percentage of work plus break time.
func FocusScore(workMinutes, breakMinutes int) int {
	total := workMinutes + breakMinutes
	if total <= 0 {
		return 0
	}
	return (workMinutes*100 + total/2) / total
}

// DayKey returns the UTC calendar day of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// WeekStartKey returns the Sunday that starts the UTC week containing t.
func WeekStartKey(t time.Time) string {
	day := t.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -int(day.Weekday()))
	return start.Format(DateLayout)
}
