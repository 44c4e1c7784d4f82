package models

import (
	"time"
	_ "time/tzdata" // named forecast zones must resolve on hosts without a zone database
)

// HistorySample is one per-minute temperature reading.
type HistorySample struct {
	ID        int       `json:"id"`
	Timestamp Timestamp `json:"timestamp"`
	Value     float64   `json:"value"`
}

// UsageLogEntry is one row of the backend's usage log.
type UsageLogEntry struct {
	ID        int       `json:"id"`
	Timestamp Timestamp `json:"timestamp"`
	Event     string    `json:"event"`
	Details   string    `json:"details,omitempty"`
}

// EnergyPeriod aggregates cost and relay runtime over a period.
type EnergyPeriod struct {
	Cost           float64            `json:"cost"`
	Kwh            float64            `json:"kwh"`
	RuntimeMinutes map[string]float64 `json:"runtime_minutes,omitempty"`
}

// EnergyUsage is the payload of GET status/energy.
type EnergyUsage struct {
	Today EnergyPeriod `json:"today"`
	Month EnergyPeriod `json:"month"`
}

// HourlyForecast holds aligned hourly series. Times are local "2006-01-02T15:04".
type HourlyForecast struct {
	Time                     []string  `json:"time"`
	PrecipitationProbability []float64 `json:"precipitation_probability"`
	Temperature              []float64 `json:"temperature_2m,omitempty"`
}

// WeatherReport is the payload of GET status/weather. Error is set when the provider failed.
type WeatherReport struct {
	Current map[string]any `json:"current,omitempty"`
	Hourly  HourlyForecast `json:"hourly"`
	Daily   map[string]any `json:"daily,omitempty"`
	City    string         `json:"city,omitempty"`
	Error   string         `json:"error,omitempty"`

	// Zone of the hourly times, as reported by the provider.
	Timezone         string `json:"timezone,omitempty"`
	UTCOffsetSeconds *int   `json:"utc_offset_seconds,omitempty"`
}

// Location returns the zone the hourly times are expressed in. A named zone
// wins over a bare offset; fallback is used when the report carries neither.
func (w *WeatherReport) Location(fallback *time.Location) *time.Location {
	if w.Timezone != "" {
		if loc, err := time.LoadLocation(w.Timezone); err == nil {
			return loc
		}
	}
	if w.UTCOffsetSeconds != nil {
		return time.FixedZone("", *w.UTCOffsetSeconds)
	}
	return fallback
}

// Available reports whether the report carries usable data.
func (w *WeatherReport) Available() bool {
	return w != nil && w.Error == ""
}
