package forecast

import (
	"fmt"
	"testing"
	"time"

	"soak_console/internal/models"
)

// hourly builds a 48h series from Monday 2026-03-02 00:00 UTC with prob(i) per hour.
func hourly(prob func(t time.Time) float64) *models.WeatherReport {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	w := &models.WeatherReport{City: "Reno"}
	for i := 0; i < 48; i++ {
		t := start.Add(time.Duration(i) * time.Hour)
		w.Hourly.Time = append(w.Hourly.Time, t.Format(hourLayout))
		w.Hourly.PrecipitationProbability = append(w.Hourly.PrecipitationProbability, prob(t))
	}
	return w
}

func soak(id int, name, start string, days ...int) models.Schedule {
	return models.Schedule{ID: id, Name: name, StartTime: start, EndTime: "23:00", Days: days, Active: true}
}

var mondayMorning = time.Date(2026, 3, 2, 8, 25, 0, 0, time.UTC)

func TestDetect_FirstWarningWins(t *testing.T) {
	w := hourly(func(t time.Time) float64 {
		switch t.Hour() {
		case 18:
			return 55
		case 20:
			return 10
		}
		return 0
	})
	schedules := []models.Schedule{soak(1, "Evening", "18:00", 0), soak(2, "Late", "20:00", 0)}

	got := Detect(w, schedules, mondayMorning)
	if got == nil {
		t.Fatal("expected a warning")
	}
	if got.ScheduleID != 1 || got.Probability != 55 {
		t.Fatalf("unexpected warning %+v", got)
	}
	if all := DetectAll(w, schedules, mondayMorning); len(all) != 1 {
		t.Fatalf("expected exactly one warning, got %d", len(all))
	}
}

func TestDetect_ThresholdIsExclusive(t *testing.T) {
	w := hourly(func(t time.Time) float64 { return 40 })
	if got := Detect(w, []models.Schedule{soak(1, "Evening", "18:00", 0, 1)}, mondayMorning); got != nil {
		t.Fatalf("40%% must not warn, got %+v", got)
	}
}

func TestDetect_ScansLaterMatchingDays(t *testing.T) {
	w := hourly(func(t time.Time) float64 {
		if t.Day() == 3 && t.Hour() == 7 {
			return 80
		}
		return 5
	})
	got := Detect(w, []models.Schedule{soak(1, "Morning", "07:30", 0, 1)}, mondayMorning)
	if got == nil || got.At.Day() != 3 {
		t.Fatalf("expected Tuesday warning, got %+v", got)
	}
}

func TestDetect_PastHoursIgnored(t *testing.T) {
	w := hourly(func(t time.Time) float64 {
		if t.Day() == 2 && t.Hour() == 7 {
			return 90
		}
		return 0
	})
	if got := Detect(w, []models.Schedule{soak(1, "Morning", "07:00", 0)}, mondayMorning); got != nil {
		t.Fatalf("hour already passed, got %+v", got)
	}
}

func TestDetect_UnusableInput(t *testing.T) {
	schedules := []models.Schedule{soak(1, "Evening", "18:00", 0)}
	wet := func(time.Time) float64 { return 99 }

	mismatch := hourly(wet)
	mismatch.Hourly.PrecipitationProbability = mismatch.Hourly.PrecipitationProbability[:10]

	garbled := hourly(wet)
	garbled.Hourly.Time[3] = "tomorrow-ish"

	failed := hourly(wet)
	failed.Error = "provider timeout"

	inactive := []models.Schedule{{ID: 1, StartTime: "18:00", Days: models.Weekdays{0}}}

	cases := []struct {
		w         *models.WeatherReport
		schedules []models.Schedule
	}{
		{nil, schedules},
		{mismatch, schedules},
		{garbled, schedules},
		{failed, schedules},
		{hourly(wet), inactive},
	}
	for i, c := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			if got := Detect(c.w, c.schedules, mondayMorning); got != nil {
				t.Fatalf("expected nil, got %+v", got)
			}
		})
	}
}

func TestDetect_UsesReportZone(t *testing.T) {
	// Forecast times are UTC-7 local while the daemon runs in UTC.
	offset := -7 * 3600
	local := time.FixedZone("", offset)
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, local)
	w := &models.WeatherReport{City: "Reno", UTCOffsetSeconds: &offset}
	for i := 0; i < 48; i++ {
		lt := start.Add(time.Duration(i) * time.Hour)
		w.Hourly.Time = append(w.Hourly.Time, lt.Format(hourLayout))
		p := 0.0
		if lt.Hour() == 18 && lt.Day() == 2 {
			p = 70
		}
		w.Hourly.PrecipitationProbability = append(w.Hourly.PrecipitationProbability, p)
	}

	now := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC) // Monday 16:30 local
	got := Detect(w, []models.Schedule{soak(1, "Evening", "18:00", 0)}, now)
	if got == nil {
		t.Fatal("expected a warning for Monday 18:00 local")
	}
	if !got.At.Equal(time.Date(2026, 3, 2, 18, 0, 0, 0, local)) || got.Probability != 70 {
		t.Fatalf("unexpected warning %+v", got)
	}
}

func TestWeatherReportLocation(t *testing.T) {
	offset := 3600
	cases := []struct {
		name string
		w    models.WeatherReport
		want string
	}{
		{"named zone", models.WeatherReport{Timezone: "America/Los_Angeles", UTCOffsetSeconds: &offset}, "America/Los_Angeles"},
		{"offset only", models.WeatherReport{UTCOffsetSeconds: &offset}, ""},
		{"unknown zone falls back to offset", models.WeatherReport{Timezone: "Nowhere/Land", UTCOffsetSeconds: &offset}, ""},
		{"neither", models.WeatherReport{}, "UTC"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loc := tc.w.Location(time.UTC)
			if loc.String() != tc.want {
				t.Fatalf("Location() = %q, want %q", loc.String(), tc.want)
			}
			if tc.w.UTCOffsetSeconds != nil && tc.want == "" {
				if _, off := time.Date(2026, 3, 2, 0, 0, 0, 0, loc).Zone(); off != offset {
					t.Fatalf("offset = %d, want %d", off, offset)
				}
			}
		})
	}
}
