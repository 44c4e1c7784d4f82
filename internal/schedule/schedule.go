// Package schedule finds the next start of a recurring weekly session.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"soak_console/internal/models"
)

const minutesPerDay = 24 * 60

var ErrBadClock = errors.New("invalid HH:MM")

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Occurrence is the soonest upcoming start of a schedule.
type Occurrence struct {
	Schedule     models.Schedule `json:"schedule"`
	DayOffset    int             `json:"day_offset"`
	MinutesUntil int             `json:"minutes_until"`
	Label        string          `json:"label"` // Today, Tomorrow or a weekday name
	Start        string          `json:"start"` // HH:MM
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Weekday returns t's day of week with Monday = 0.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DayName returns the name of weekday d (Monday = 0).
func DayName(d int) string {
	return dayNames[((d%7)+7)%7]
}

// Next returns the soonest start among active schedules, or nil if none is active.
// A start at or before the current minute today rolls over to the same weekday next week.
// Ties keep list order. Schedules with an unparseable start are skipped.
func Next(schedules []models.Schedule, now time.Time) *Occurrence {
	today := Weekday(now)
	current := now.Hour()*60 + now.Minute()

	var best *Occurrence
	for _, s := range schedules {
		if !s.Active {
			continue
		}
		start, err := ParseClock(s.StartTime)
		if err != nil {
			continue
		}
		for _, d := range s.Days {
			offset := (d - today + 7) % 7
			if offset == 0 && start <= current {
				offset = 7
			}
			total := offset*minutesPerDay + (start - current)
			if total < 0 {
				continue
			}
			if best == nil || total < best.MinutesUntil {
				best = &Occurrence{
					Schedule:     s,
					DayOffset:    offset,
					MinutesUntil: total,
					Label:        label(offset, d),
					Start:        fmt.Sprintf("%02d:%02d", start/60, start%60),
				}
			}
		}
	}
	return best
}

func label(offset, day int) string {
	switch offset {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	}
	return DayName(day)
}
