// Package forecast flags scheduled sessions that coincide with likely rain.
package forecast

import (
	"fmt"
	"time"

	"soak_console/internal/models"
	"soak_console/internal/schedule"
)

// Threshold is the precipitation probability (percent) above which a session is flagged.
const Threshold = 40.0

const hourLayout = "2006-01-02T15:04"

// Warning names a schedule whose next matching hour is likely to be wet.
type Warning struct {
	ScheduleID   int       `json:"schedule_id"`
	ScheduleName string    `json:"schedule_name"`
	At           time.Time `json:"at"`
	Probability  float64   `json:"probability"`
	Message      string    `json:"message"`
}

// Detect returns the first warning in schedule list order, or nil.
func Detect(w *models.WeatherReport, schedules []models.Schedule, now time.Time) *Warning {
	all := DetectAll(w, schedules, now)
	if len(all) == 0 {
		return nil
	}
	return &all[0]
}

// DetectAll returns at most one warning per active schedule, in list order.
// Hourly times and schedule start hours are read in the report's zone, falling
// back to now's zone. An unavailable report or a malformed series yields no warnings.
func DetectAll(w *models.WeatherReport, schedules []models.Schedule, now time.Time) []Warning {
	if !w.Available() {
		return nil
	}
	loc := w.Location(now.Location())
	hours, ok := parseSeries(w.Hourly, loc)
	if !ok {
		return nil
	}
	now = now.In(loc)
	first := currentIndex(hours, now)
	if first < 0 {
		return nil
	}

	var out []Warning
	for _, s := range schedules {
		if !s.Active {
			continue
		}
		start, err := schedule.ParseClock(s.StartTime)
		if err != nil {
			continue
		}
		startHour := start / 60
		for i := first; i < len(hours); i++ {
			t := hours[i]
			if t.Hour() != startHour || !s.Days.Contains(schedule.Weekday(t)) {
				continue
			}
			p := w.Hourly.PrecipitationProbability[i]
			if p > Threshold {
				out = append(out, Warning{
					ScheduleID:   s.ID,
					ScheduleName: s.Name,
					At:           t,
					Probability:  p,
					Message:      fmt.Sprintf("%.0f%% chance of rain during %q on %s at %s", p, s.Name, schedule.DayName(schedule.Weekday(t)), t.Format("15:04")),
				})
				break
			}
		}
	}
	return out
}

func parseSeries(h models.HourlyForecast, loc *time.Location) ([]time.Time, bool) {
	if len(h.Time) == 0 || len(h.Time) != len(h.PrecipitationProbability) {
		return nil, false
	}
	out := make([]time.Time, len(h.Time))
	for i, s := range h.Time {
		t, err := time.ParseInLocation(hourLayout, s, loc)
		if err != nil {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

// currentIndex returns the first entry at or after the top of now's hour, or -1.
func currentIndex(hours []time.Time, now time.Time) int {
	top := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	for i, t := range hours {
		if !t.Before(top) {
			return i
		}
	}
	return -1
}
