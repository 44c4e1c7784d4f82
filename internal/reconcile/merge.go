package reconcile

import (
	"slices"

	"soak_console/internal/models"
)

// Raw is the latest authoritative data, exactly as polled.
type Raw struct {
	Snapshot  models.DeviceSnapshot
	Settings  models.Settings
	History   []models.HistorySample
	Schedules []models.Schedule
	Logs      []models.UsageLogEntry
	Weather   *models.WeatherReport
	Energy    *models.EnergyUsage
	Console   string
}

// Status describes the link to the backend.
type Status struct {
	Connected bool
	Stale     bool // seeded from cache, no successful poll yet
	LastError string
}

// View is the reconciled state every reader sees. It is never modified after publication.
type View struct {
	Connected bool   `json:"connected"`
	Stale     bool   `json:"stale"`
	LastError string `json:"last_error,omitempty"`

	Snapshot  models.DeviceSnapshot  `json:"status"`
	Settings  models.Settings        `json:"settings"`
	Schedules []models.Schedule      `json:"schedules"`
	History   []models.HistorySample `json:"history"`
	Logs      []models.UsageLogEntry `json:"logs"`
	Weather   *models.WeatherReport  `json:"weather,omitempty"`
	Energy    *models.EnergyUsage    `json:"energy,omitempty"`
	Console   string                 `json:"console,omitempty"`

	// Editing maps fields under direct entry to their raw input.
	Editing map[Field]string `json:"editing,omitempty"`
	// Pending lists fields currently masked by an optimistic value.
	Pending []Field `json:"pending,omitempty"`
}

// Value returns the reconciled value of f.
func (v *View) Value(f Field) (any, bool) { return read(v, f) }

// base builds a view of the authoritative data alone.
func base(raw Raw, st Status) View {
	snap := raw.Snapshot
	snap.Desired = raw.Snapshot.Desired.Clone()
	return View{
		Connected: st.Connected,
		Stale:     st.Stale,
		LastError: st.LastError,
		Snapshot:  snap,
		Settings:  raw.Settings,
		Schedules: raw.Schedules,
		History:   raw.History,
		Logs:      raw.Logs,
		Weather:   raw.Weather,
		Energy:    raw.Energy,
		Console:   raw.Console,
	}
}

// Merge overlays ledger entries and then edit sessions onto the authoritative data.
// It is pure: the same inputs always produce an equal view.
func Merge(raw Raw, st Status, entries []Entry, sessions []EditSession) View {
	v := base(raw, st)
	for _, e := range entries {
		if err := apply(&v, e.Field, e.Value); err == nil {
			v.Pending = append(v.Pending, e.Field)
		}
	}
	for _, s := range sessions {
		if err := apply(&v, s.Field, s.Frozen); err != nil {
			continue
		}
		if v.Editing == nil {
			v.Editing = map[Field]string{}
		}
		v.Editing[s.Field] = s.Raw
		v.Pending = slices.DeleteFunc(v.Pending, func(f Field) bool { return f == s.Field })
	}
	if len(v.Pending) == 0 {
		v.Pending = nil
	}
	return v
}
