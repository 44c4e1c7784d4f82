// Package authz is the single role-to-permission policy consulted by both the
// rendering endpoints and every mutation dispatcher.
//
// It is a convenience boundary only; the backend re-validates every request.
package authz

import (
	"errors"
	"fmt"

	"soak_console/internal/models"
)

// Action is a gated operator capability.
type Action string

const (
	ToggleBasic       Action = "toggleBasic"
	TogglePrivileged  Action = "togglePrivileged"
	AdjustSetpoint    Action = "adjustSetpoint"
	AdjustRestTemp    Action = "adjustRestTemp"
	ManageSchedules   Action = "manageSchedules"
	AdjustSafetyLimit Action = "adjustSafetyLimit"
	ViewSystemConsole Action = "viewSystemConsole"
)

// Actions lists every action in a stable order.
var Actions = []Action{
	ToggleBasic, TogglePrivileged, AdjustSetpoint, AdjustRestTemp,
	ManageSchedules, AdjustSafetyLimit, ViewSystemConsole,
}

// ErrForbidden is returned by Check when the role lacks the action.
var ErrForbidden = errors.New("forbidden")

// Permission reports whether role may perform action. Unknown roles get nothing.
func Permission(role models.Role, action Action) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return action == ToggleBasic || action == AdjustSetpoint
	default:
		return false
	}
}

// Check is Permission as an error, wrapping ErrForbidden.
func Check(role models.Role, action Action) error {
	if Permission(role, action) {
		return nil
	}
	return fmt.Errorf("%w: role %q cannot %s", ErrForbidden, role, action)
}

// Permissions returns the full action map for role, used for affordance rendering.
func Permissions(role models.Role) map[Action]bool {
	out := make(map[Action]bool, len(Actions))
	for _, a := range Actions {
		out[a] = Permission(role, a)
	}
	return out
}

// relayActions maps each relay to the action that gates toggling it.
var relayActions = map[string]Action{
	models.RelayLight:    ToggleBasic,
	models.RelayJetPump:  ToggleBasic,
	models.RelayHeater:   TogglePrivileged,
	models.RelayCircPump: TogglePrivileged,
	models.RelayOzone:    TogglePrivileged,
}

// RelayAction returns the action gating a relay toggle.
func RelayAction(relay string) (Action, bool) {
	a, ok := relayActions[relay]
	return a, ok
}

// SettingAction returns the action gating a change to the named setting.
func SettingAction(name string) (Action, bool) {
	switch name {
	case "set_point":
		return AdjustSetpoint, true
	case "default_rest_temp", "default_soak_temp", "default_soak_duration":
		return AdjustRestTemp, true
	case "max_temp_limit", "location", "energy_cost_kwh",
		"heater_wattage", "circ_pump_wattage", "jet_pump_wattage", "light_wattage", "ozone_wattage":
		return AdjustSafetyLimit, true
	}
	return "", false
}
