package reconcile

import (
	"fmt"
	"strings"
	"time"

	"soak_console/internal/models"
)

// Field addresses one reconciled value, e.g. "relay.heater" or "settings.set_point".
type Field string

const (
	relayPrefix    = "relay."
	settingsPrefix = "settings."
)

// Timed-session fields.
const (
	FieldManualSoakActive        Field = "session.manual_soak_active"
	FieldManualSoakExpires       Field = "session.manual_soak_expires"
	FieldScheduledSessionActive  Field = "session.scheduled_session_active"
	FieldScheduledSessionExpires Field = "session.scheduled_session_expires"
	FieldLocation                Field = "settings.location"
)

// RelayField returns the field for a desired relay flag.
func RelayField(relay string) Field { return Field(relayPrefix + relay) }

// SettingsField returns the field for a named setting.
func SettingsField(name string) Field { return Field(settingsPrefix + name) }

// Relay returns the relay name if f is a relay field.
func (f Field) Relay() (string, bool) {
	name, ok := strings.CutPrefix(string(f), relayPrefix)
	return name, ok && name != ""
}

// Setting returns the setting name if f is a settings field.
func (f Field) Setting() (string, bool) {
	name, ok := strings.CutPrefix(string(f), settingsPrefix)
	return name, ok && name != ""
}

// Numeric reports whether f is a numeric setting, the only kind an edit session accepts.
func (f Field) Numeric() bool {
	name, ok := f.Setting()
	if !ok {
		return false
	}
	var s models.Settings
	return s.NumericSetting(name) != nil
}

// ParseField validates a field key coming from outside (HTTP path, CLI).
func ParseField(s string) (Field, error) {
	f := Field(s)
	if relay, ok := f.Relay(); ok {
		for _, r := range models.Relays {
			if r == relay {
				return f, nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	if f == FieldLocation || f.Numeric() {
		return f, nil
	}
	switch f {
	case FieldManualSoakActive, FieldManualSoakExpires, FieldScheduledSessionActive, FieldScheduledSessionExpires:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// apply writes value into v at f. The caller owns v and must have cloned any shared maps.
func apply(v *View, f Field, value any) error {
	if relay, ok := f.Relay(); ok {
		on, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s wants bool, got %T", ErrFieldType, f, value)
		}
		v.Snapshot.Desired.Relays[relay] = on
		return nil
	}

	switch f {
	case FieldManualSoakActive, FieldScheduledSessionActive:
		on, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s wants bool, got %T", ErrFieldType, f, value)
		}
		if f == FieldManualSoakActive {
			v.Snapshot.Desired.ManualSoakActive = on
		} else {
			v.Snapshot.Desired.ScheduledSessionActive = on
		}
		return nil
	case FieldManualSoakExpires, FieldScheduledSessionExpires:
		at, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("%w: %s wants time.Time, got %T", ErrFieldType, f, value)
		}
		if f == FieldManualSoakExpires {
			v.Snapshot.Desired.ManualSoakExpires = at
		} else {
			v.Snapshot.Desired.ScheduledSessionExpires = at
		}
		return nil
	case FieldLocation:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s wants string, got %T", ErrFieldType, f, value)
		}
		v.Settings.Location = s
		return nil
	}

	if name, ok := f.Setting(); ok {
		dst := v.Settings.NumericSetting(name)
		if dst == nil {
			return fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
		n, ok := value.(float64)
		if !ok {
			return fmt.Errorf("%w: %s wants float64, got %T", ErrFieldType, f, value)
		}
		*dst = n
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, f)
}

// read returns the value of f in v.
func read(v *View, f Field) (any, bool) {
	if relay, ok := f.Relay(); ok {
		on, ok := v.Snapshot.Desired.Relays[relay]
		return on, ok
	}
	switch f {
	case FieldManualSoakActive:
		return v.Snapshot.Desired.ManualSoakActive, true
	case FieldScheduledSessionActive:
		return v.Snapshot.Desired.ScheduledSessionActive, true
	case FieldManualSoakExpires:
		return v.Snapshot.Desired.ManualSoakExpires, true
	case FieldScheduledSessionExpires:
		return v.Snapshot.Desired.ScheduledSessionExpires, true
	case FieldLocation:
		return v.Settings.Location, true
	}
	if name, ok := f.Setting(); ok {
		if p := v.Settings.NumericSetting(name); p != nil {
			return *p, true
		}
	}
	return nil, false
}
