package sensors

import (
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/sgp30"
	"tinygo.org/x/drivers/shtc3"

	"filterfan-go/types"
	"filterfan-go/x/mathx"
)

// Head reads one sensor head (intake or exhaust). Missing measurements
// are reported as unknown, never as errors.
type Head interface {
	Read() types.EnvReading
}

// DriverHead is a sensor head made of an SHTC3 (temperature/humidity) and
// an SGP30 (VOC) sharing one I2C bus.
type DriverHead struct {
	sht shtc3.Device
	sgp *sgp30.Device
}

func NewDriverHead(bus drivers.I2C) *DriverHead {
	return &DriverHead{
		sht: shtc3.New(bus),
		sgp: sgp30.New(bus),
	}
}

// Configure brings up the gas sensor's measurement baseline.
func (h *DriverHead) Configure() error {
	return h.sgp.Configure(sgp30.Config{})
}

func (h *DriverHead) Read() types.EnvReading {
	r := types.NewEnvReading()

	_ = h.sht.WakeUp()
	defer func() { _ = h.sht.Sleep() }()
	if milliC, rhx100, err := h.sht.ReadTemperatureHumidity(); err == nil {
		r.DeciC = int16(mathx.Clamp(milliC/100, -32768, 32767))
		r.RHx100 = uint16(mathx.Clamp(rhx100, 0, 10000))
	}

	if err := h.sgp.Update(drivers.AllMeasurements); err == nil {
		r.VOC = vocIndexFromPPB(h.sgp.TVOC())
	}

	return r
}

// vocIndexFromPPB squashes a raw TVOC ppb reading onto the 0..500 index
// scale the policy thresholds are expressed in.
func vocIndexFromPPB(ppb uint32) types.VOCIndex {
	capped := uint16(mathx.Min(ppb, 5000))
	return types.VOCIndex(mathx.MapU16(capped, 0, 5000, 0, 500))
}

// SimHead is a settable head for tests and the host simulator. Safe for
// concurrent use, unlike the hardware heads.
type SimHead struct {
	mu      sync.Mutex
	reading types.EnvReading
}

func NewSimHead() *SimHead {
	return &SimHead{reading: types.NewEnvReading()}
}

func (h *SimHead) Read() types.EnvReading {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reading
}

func (h *SimHead) Set(r types.EnvReading) {
	h.mu.Lock()
	h.reading = r
	h.mu.Unlock()
}

// SetVOC sets just the VOC index, leaving the rest as-is.
func (h *SimHead) SetVOC(v types.VOCIndex) {
	h.mu.Lock()
	h.reading.VOC = v
	h.mu.Unlock()
}
