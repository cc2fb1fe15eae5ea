package fan

import (
	"time"

	"filterfan-go/hal"
	"filterfan-go/types"
)

const (
	// Standard fans emit two tachometer pulses per revolution.
	TachPulsesPerRevolution = 2
	// Full measurement window; speed reported is always the last
	// completed window, with no sub-window interpolation.
	TachWindow = 500 * time.Millisecond
)

// Tachometer converts a falling-edge pulse count into shaft speed.
type Tachometer struct {
	counter hal.PulseCounter
	ppr     int
	window  time.Duration

	rps       float64
	saturated bool
}

func NewTachometer(counter hal.PulseCounter) *Tachometer {
	return &Tachometer{
		counter: counter,
		ppr:     TachPulsesPerRevolution,
		window:  TachWindow,
	}
}

func (t *Tachometer) Start() error { return t.counter.Start() }

// Window returns the sampling cadence the owner must call Sample at.
func (t *Tachometer) Window() time.Duration { return t.window }

// Sample closes the current window: it drains the hardware counter and
// recomputes the reported speed. Returns true if the counter saturated
// within the window (the reading is then a clamped lower bound).
func (t *Tachometer) Sample() bool {
	count := t.counter.ReadAndReset()
	t.saturated = count == 0xFFFF
	t.rps = float64(count) / (float64(t.ppr) * t.window.Seconds())
	return t.saturated
}

// RevolutionsPerSecond returns the last completed window's measurement.
func (t *Tachometer) RevolutionsPerSecond() float64 { return t.rps }

// Saturated reports whether the last window clamped.
func (t *Tachometer) Saturated() bool { return t.saturated }

// RPM returns the last measurement in saturating 16-bit RPM.
func (t *Tachometer) RPM() types.RPM16 { return types.RPMFromRPS(t.rps) }
