package domain

import (
	"fmt"
	"time"
)

// WeeklySchedule is a fixed weekday/hour/minute in a fixed timezone
type WeeklySchedule struct {
	Weekday  time.Weekday
	Hour     int
	Minute   int
	Location *time.Location
}

func (s WeeklySchedule) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// MostRecent returns the latest occurrence at or before now
func (s WeeklySchedule) MostRecent(now time.Time) time.Time {
	local := now.In(s.loc())
	back := (int(local.Weekday()) - int(s.Weekday) + 7) % 7
	b := time.Date(local.Year(), local.Month(), local.Day()-back, s.Hour, s.Minute, 0, 0, s.loc())
	if local.Before(b) {
		b = b.AddDate(0, 0, -7)
	}
	return b
}

// Due reports whether something last done at last has missed the most
// recent occurrence
func (s WeeklySchedule) Due(last, now time.Time) bool {
	return last.Before(s.MostRecent(now))
}

// Matches reports whether now falls inside the scheduled minute
func (s WeeklySchedule) Matches(now time.Time) bool {
	local := now.In(s.loc())
	return local.Weekday() == s.Weekday && local.Hour() == s.Hour && local.Minute() == s.Minute
}

// CronSpec renders the schedule for robfig/cron
func (s WeeklySchedule) CronSpec() string {
	return fmt.Sprintf("CRON_TZ=%s %d %d * * %d", s.loc().String(), s.Minute, s.Hour, int(s.Weekday))
}
