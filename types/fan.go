package types

// ------------------------
// Fan service config (config/fan, retained)
// ------------------------

type FanConfig struct {
	PWMPin int `json:"pwm_pin"`
	// Tachometer input; pulled up externally, two falling edges per rev.
	TachPin int          `json:"tach_pin"`
	Policy  PolicyConfig `json:"policy"`
}

// PolicyConfig carries the environmental policy parameters.
// Zero values select the defaults.
type PolicyConfig struct {
	CooldownSec   uint16 `json:"cooldown_sec"`
	VOCPassiveMax uint16 `json:"voc_passive_max"`
	VOCImproveMin uint16 `json:"voc_improve_min"`
}

// ------------------------
// Fan control requests (fan/control/*, request-reply)
// ------------------------

// OverrideRequest pins or releases the fan duty from the local bus side,
// mirroring the BLE override attribute. 0xFF releases back to automatic.
type OverrideRequest struct {
	Override uint8 `json:"override"`
}

// ------------------------
// Fan telemetry payloads (fan/*, retained)
// ------------------------

type FanValue struct {
	// Applied duty, Percentage 8 raw.
	Power Percentage8 `json:"power"`
	// Override duty; PercentageUnknown when automatic control is active.
	Override Percentage8 `json:"override"`
}

type TachometerValue struct {
	RPM RPM16 `json:"rpm"`
}

// ------------------------
// Sensors service config (config/sensors, retained)
// ------------------------

type SensorsConfig struct {
	// I2C bus identifiers for the two sensor heads.
	IntakeBus  string `json:"intake_bus"`
	ExhaustBus string `json:"exhaust_bus"`
	// Update cadence in milliseconds; 0 selects the default (1000).
	PeriodMS int `json:"period_ms"`
}
