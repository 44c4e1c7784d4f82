package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Relay names reported by the controller.
const (
	RelayHeater   = "heater"
	RelayCircPump = "circ_pump"
	RelayJetPump  = "jet_pump"
	RelayLight    = "light"
	RelayOzone    = "ozone"
)

// Relays lists every relay in display order.
var Relays = []string{RelayHeater, RelayCircPump, RelayJetPump, RelayLight, RelayOzone}

// SafetyOK is the only safety status that needs no operator attention.
const SafetyOK = "OK"

// Session flag keys inside desired_state.
const (
	keyManualSoakActive        = "manual_soak_active"
	keyManualSoakExpires       = "manual_soak_expires"
	keyScheduledSessionActive  = "scheduled_session_active"
	keyScheduledSessionExpires = "scheduled_session_expires"
)

// DeviceSnapshot is the authoritative device state returned by GET status/.
type DeviceSnapshot struct {
	CurrentTemp      float64         `json:"current_temp"`
	Desired          DesiredState    `json:"desired_state"`
	ActualRelayState map[string]bool `json:"actual_relay_state"`
	SafetyStatus     string          `json:"safety_status"`
	SystemLocked     bool            `json:"system_locked"`
}

// DesiredState is what the backend intends the device to do.
// Relay flags are kept in a map; timed-session flags are lifted into typed fields.
type DesiredState struct {
	Relays                  map[string]bool
	ManualSoakActive        bool
	ManualSoakExpires       time.Time
	ScheduledSessionActive  bool
	ScheduledSessionExpires time.Time
}

// Clone returns a copy whose relay map can be modified independently.
func (d DesiredState) Clone() DesiredState {
	out := d
	out.Relays = maps.Clone(d.Relays)
	if out.Relays == nil {
		out.Relays = map[string]bool{}
	}
	return out
}

func (d *DesiredState) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("desired_state: %w", err)
	}

	out := DesiredState{Relays: make(map[string]bool, len(raw))}
	for key, val := range raw {
		switch key {
		case keyManualSoakActive:
			if err := json.Unmarshal(val, &out.ManualSoakActive); err != nil {
				return fmt.Errorf("desired_state.%s: %w", key, err)
			}
		case keyScheduledSessionActive:
			if err := json.Unmarshal(val, &out.ScheduledSessionActive); err != nil {
				return fmt.Errorf("desired_state.%s: %w", key, err)
			}
		case keyManualSoakExpires, keyScheduledSessionExpires:
			var ts Timestamp
			if err := json.Unmarshal(val, &ts); err != nil {
				return fmt.Errorf("desired_state.%s: %w", key, err)
			}
			if key == keyManualSoakExpires {
				out.ManualSoakExpires = ts.Time
			} else {
				out.ScheduledSessionExpires = ts.Time
			}
		default:
			// anything else that decodes as a bool is a relay; ids and such are ignored
			var on bool
			if err := json.Unmarshal(val, &on); err == nil {
				out.Relays[key] = on
			}
		}
	}
	*d = out
	return nil
}

func (d DesiredState) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Relays)+4)
	for k, v := range d.Relays {
		m[k] = v
	}
	m[keyManualSoakActive] = d.ManualSoakActive
	m[keyManualSoakExpires] = Timestamp{d.ManualSoakExpires}
	m[keyScheduledSessionActive] = d.ScheduledSessionActive
	m[keyScheduledSessionExpires] = Timestamp{d.ScheduledSessionExpires}
	return json.Marshal(m)
}
