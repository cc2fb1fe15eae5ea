package types

// BLE scalar value types shared by the fan controller and the GATT layer.
// Wire encodings are little-endian throughout.

// ------------------------
// Percentage 8
// ------------------------

// Percentage8 is the BLE "Percentage 8" characteristic format: an 8-bit
// unsigned number in units of 0.5 %, with 0xFF reserved for "value is not
// known". Valid known values are 0..200 (0 %..100 %).
type Percentage8 uint8

const (
	PercentageUnknown Percentage8 = 0xFF
	percentageFull    Percentage8 = 200
)

// PercentageFromRatio converts a duty fraction in [0,1] to Percentage8,
// clamping out-of-range inputs.
func PercentageFromRatio(r float64) Percentage8 {
	if r <= 0 {
		return 0
	}
	if r >= 1 {
		return percentageFull
	}
	return Percentage8(r*float64(percentageFull) + 0.5)
}

// Known reports whether p carries a value.
func (p Percentage8) Known() bool { return p != PercentageUnknown }

// RatioOr returns the duty fraction in [0,1], or def when unknown.
// Raw values above 200 (reserved by the format) clamp to 1.
func (p Percentage8) RatioOr(def float64) float64 {
	if !p.Known() {
		return def
	}
	if p > percentageFull {
		return 1
	}
	return float64(p) / float64(percentageFull)
}

// Duty16Or returns the 16-bit PWM register value (0x0000 off, 0xFFFF full
// on) for this percentage, or for def when unknown.
func (p Percentage8) Duty16Or(def float64) uint16 {
	r := p.RatioOr(def)
	return uint16(r*0xFFFF + 0.5)
}

// ------------------------
// RPM 16
// ------------------------

// RPM16 is an unsigned 16-bit revolutions-per-minute value, saturating.
type RPM16 uint16

// RPMFromRPS converts revolutions per second to RPM16, saturating at 0xFFFF.
func RPMFromRPS(rps float64) RPM16 {
	rpm := rps * 60
	if rpm <= 0 {
		return 0
	}
	if rpm >= 0xFFFF {
		return 0xFFFF
	}
	return RPM16(rpm + 0.5)
}

// ------------------------
// VOC index
// ------------------------

// VOCIndex is a VOC air-quality index (0..500), 0xFFFF when not known.
type VOCIndex uint16

const VOCUnknown VOCIndex = 0xFFFF

func (v VOCIndex) Known() bool { return v != VOCUnknown }
