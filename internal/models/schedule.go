package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Schedule types.
const (
	ScheduleSoak  = "soak"
	ScheduleClean = "clean"
	ScheduleOzone = "ozone"
)

// Schedule is a recurring weekly session.
type Schedule struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`       // soak | clean | ozone
	StartTime  string   `json:"start_time"` // HH:MM
	EndTime    string   `json:"end_time"`   // HH:MM
	TargetTemp *float64 `json:"target_temp,omitempty"`
	LightOn    bool     `json:"light_on"`
	JetOn      bool     `json:"jet_on"`
	OzoneOn    bool     `json:"ozone_on"`
	Days       Weekdays `json:"days_of_week"`
	Active     bool     `json:"active"`

	// DroppedDays lists days_of_week entries skipped by a lenient decode.
	DroppedDays []string `json:"-"`
}

// Weekdays is a set of weekdays, Monday = 0 through Sunday = 6.
// On the wire it is a comma-separated string such as "0,2,4".
type Weekdays []int

// Contains reports whether day d is in the set.
func (w Weekdays) Contains(d int) bool {
	return slices.Contains(w, d)
}

// ParseWeekdays parses "0,2,4" into a sorted, de-duplicated set.
func ParseWeekdays(s string) (Weekdays, error) {
	out := Weekdays{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		if !out.Contains(d) {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return out, nil
}

// ParseWeekdaysLenient is ParseWeekdays that skips invalid entries and returns them.
func ParseWeekdaysLenient(s string) (Weekdays, []string) {
	out := Weekdays{}
	var dropped []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		days, err := ParseWeekdays(part)
		if err != nil {
			dropped = append(dropped, part)
			continue
		}
		if !out.Contains(days[0]) {
			out = append(out, days[0])
		}
	}
	slices.Sort(out)
	return out, dropped
}

// LenientWeekdays decodes days_of_week like Weekdays but keeps the valid days
// of a malformed value instead of failing.
type LenientWeekdays struct {
	Days    Weekdays
	Dropped []string
}

func (l *LenientWeekdays) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("days_of_week: %w", err)
	}
	var s string
	switch x := v.(type) {
	case nil:
	case string:
		s = x
	case []any:
		parts := make([]string, len(x))
		for i, d := range x {
			parts[i] = fmt.Sprint(d)
		}
		s = strings.Join(parts, ",")
	default:
		s = fmt.Sprint(x)
	}
	l.Days, l.Dropped = ParseWeekdaysLenient(s)
	return nil
}

func (w Weekdays) String() string {
	parts := make([]string, len(w))
	for i, d := range w {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func (w *Weekdays) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*w = Weekdays{}
		return nil
	}
	// accept both the wire string and a plain JSON array
	if len(b) > 0 && b[0] == '[' {
		var days []int
		if err := json.Unmarshal(b, &days); err != nil {
			return fmt.Errorf("days_of_week: %w", err)
		}
		parsed, err := ParseWeekdays(Weekdays(days).String())
		if err != nil {
			return err
		}
		*w = parsed
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("days_of_week: %w", err)
	}
	parsed, err := ParseWeekdays(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

func (w Weekdays) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}
