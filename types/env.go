package types

// ------------------------
// Environmental readings
// ------------------------

// Unknown sentinels for optional readings.
const (
	TempUnknown int16  = -0x8000 // deci-°C
	RHUnknown   uint16 = 0xFFFF  // hundredths of %RH
)

// EnvReading is one side's (intake or exhaust) merged measurement.
type EnvReading struct {
	// Tenths of °C (e.g. 231 => 23.1 °C); TempUnknown when missing.
	DeciC int16 `json:"deci_c"`
	// Hundredths of %RH (0..10000); RHUnknown when missing.
	RHx100 uint16 `json:"rh_x100"`
	// VOC air-quality index; VOCUnknown when missing.
	VOC VOCIndex `json:"voc"`
}

// NewEnvReading returns a reading with every field unknown.
func NewEnvReading() EnvReading {
	return EnvReading{DeciC: TempUnknown, RHx100: RHUnknown, VOC: VOCUnknown}
}

// SensorView is the latest merged environmental state, published retained
// on sensors/view. Consumers treat it as read-only.
type SensorView struct {
	Intake  EnvReading `json:"intake"`
	Exhaust EnvReading `json:"exhaust"`
	TSms    int64      `json:"ts_ms"`
}

// NewSensorView returns a view with all readings unknown.
func NewSensorView() SensorView {
	return SensorView{Intake: NewEnvReading(), Exhaust: NewEnvReading()}
}
