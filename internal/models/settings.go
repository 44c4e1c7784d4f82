package models

import "fmt"

// Settings is the backend's single authoritative configuration row.
type Settings struct {
	SetPoint            float64 `json:"set_point"`
	DefaultRestTemp     float64 `json:"default_rest_temp"`
	DefaultSoakTemp     float64 `json:"default_soak_temp"`
	DefaultSoakDuration float64 `json:"default_soak_duration"` // minutes
	MaxTempLimit        float64 `json:"max_temp_limit"`
	Location            string  `json:"location"`
	EnergyCostKwh       float64 `json:"energy_cost_kwh"`
	HeaterWattage       float64 `json:"heater_wattage"`
	CircPumpWattage     float64 `json:"circ_pump_wattage"`
	JetPumpWattage      float64 `json:"jet_pump_wattage"`
	LightWattage        float64 `json:"light_wattage"`
	OzoneWattage        float64 `json:"ozone_wattage"`
}

// SettingsPatch is a partial update for POST settings/. Nil fields are left untouched.
type SettingsPatch struct {
	SetPoint            *float64 `json:"set_point,omitempty"`
	DefaultRestTemp     *float64 `json:"default_rest_temp,omitempty"`
	DefaultSoakTemp     *float64 `json:"default_soak_temp,omitempty"`
	DefaultSoakDuration *float64 `json:"default_soak_duration,omitempty"`
	MaxTempLimit        *float64 `json:"max_temp_limit,omitempty"`
	Location            *string  `json:"location,omitempty"`
	EnergyCostKwh       *float64 `json:"energy_cost_kwh,omitempty"`
	HeaterWattage       *float64 `json:"heater_wattage,omitempty"`
	CircPumpWattage     *float64 `json:"circ_pump_wattage,omitempty"`
	JetPumpWattage      *float64 `json:"jet_pump_wattage,omitempty"`
	LightWattage        *float64 `json:"light_wattage,omitempty"`
	OzoneWattage        *float64 `json:"ozone_wattage,omitempty"`
}

// NumericSetting returns a pointer to the named numeric setting, or nil if the name is unknown.
func (s *Settings) NumericSetting(name string) *float64 {
	switch name {
	case "set_point":
		return &s.SetPoint
	case "default_rest_temp":
		return &s.DefaultRestTemp
	case "default_soak_temp":
		return &s.DefaultSoakTemp
	case "default_soak_duration":
		return &s.DefaultSoakDuration
	case "max_temp_limit":
		return &s.MaxTempLimit
	case "energy_cost_kwh":
		return &s.EnergyCostKwh
	case "heater_wattage":
		return &s.HeaterWattage
	case "circ_pump_wattage":
		return &s.CircPumpWattage
	case "jet_pump_wattage":
		return &s.JetPumpWattage
	case "light_wattage":
		return &s.LightWattage
	case "ozone_wattage":
		return &s.OzoneWattage
	}
	return nil
}

// NumericSettingNames lists the names NumericSetting understands.
var NumericSettingNames = []string{
	"set_point", "default_rest_temp", "default_soak_temp", "default_soak_duration",
	"max_temp_limit", "energy_cost_kwh", "heater_wattage", "circ_pump_wattage",
	"jet_pump_wattage", "light_wattage", "ozone_wattage",
}

// SetNumber sets one numeric field of the patch by name.
func (p *SettingsPatch) SetNumber(name string, v float64) error {
	var dst **float64
	switch name {
	case "set_point":
		dst = &p.SetPoint
	case "default_rest_temp":
		dst = &p.DefaultRestTemp
	case "default_soak_temp":
		dst = &p.DefaultSoakTemp
	case "default_soak_duration":
		dst = &p.DefaultSoakDuration
	case "max_temp_limit":
		dst = &p.MaxTempLimit
	case "energy_cost_kwh":
		dst = &p.EnergyCostKwh
	case "heater_wattage":
		dst = &p.HeaterWattage
	case "circ_pump_wattage":
		dst = &p.CircPumpWattage
	case "jet_pump_wattage":
		dst = &p.JetPumpWattage
	case "light_wattage":
		dst = &p.LightWattage
	case "ozone_wattage":
		dst = &p.OzoneWattage
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
	*dst = &v
	return nil
}

// Numbers returns the numeric fields present in the patch keyed by setting name.
func (p SettingsPatch) Numbers() map[string]float64 {
	out := map[string]float64{}
	add := func(name string, v *float64) {
		if v != nil {
			out[name] = *v
		}
	}
	add("set_point", p.SetPoint)
	add("default_rest_temp", p.DefaultRestTemp)
	add("default_soak_temp", p.DefaultSoakTemp)
	add("default_soak_duration", p.DefaultSoakDuration)
	add("max_temp_limit", p.MaxTempLimit)
	add("energy_cost_kwh", p.EnergyCostKwh)
	add("heater_wattage", p.HeaterWattage)
	add("circ_pump_wattage", p.CircPumpWattage)
	add("jet_pump_wattage", p.JetPumpWattage)
	add("light_wattage", p.LightWattage)
	add("ozone_wattage", p.OzoneWattage)
	return out
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.Location == nil && len(p.Numbers()) == 0
}
