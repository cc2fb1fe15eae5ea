// Package hal exposes the hardware capabilities the fan subsystem needs.
// The rp2040 provider is selected with the rp2040 build tag; host builds
// get an in-memory simulation provider for tests and the fansim tool.
package hal

import "filterfan-go/errcode"

// PWMOutput drives one hardware PWM channel.
// Configure must be called once before SetDuty; SetDuty is infallible on
// supported hardware.
type PWMOutput interface {
	// Configure sets the carrier frequency and enables the output at duty 0.
	Configure(freqHz uint32) error
	// SetDuty programs the duty register: 0x0000 fully off, 0xFFFF fully on.
	SetDuty(duty uint16)
}

// PulseCounter counts falling edges on an input pin into a 16-bit counter.
// ReadAndReset is called from the owner's loop on a fixed cadence; the
// counter holds at 0xFFFF if it saturates within a window.
type PulseCounter interface {
	Start() error
	ReadAndReset() uint16
}

// Provider hands out exclusively-owned pin capabilities.
type Provider interface {
	ClaimPWM(owner string, pin int) (PWMOutput, error)
	ClaimCounter(owner string, pin int) (PulseCounter, error)
	ReleasePin(owner string, pin int)
}

// Claim errors.
var (
	ErrUnknownPin = errcode.UnknownPin
	ErrPinInUse   = errcode.PinInUse
)
