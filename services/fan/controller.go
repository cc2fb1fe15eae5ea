package fan

import (
	"time"

	"filterfan-go/hal"
	"filterfan-go/types"
)

// Policy evaluation rate.
const PolicyUpdateRateHz = 10

// Controller owns the fan power state and the PWM output. It is not safe
// for concurrent use: every method must be called from the owning service
// loop (the same execution context that dispatches attribute access).
type Controller struct {
	pwm    hal.PWMOutput
	policy Policy
	inst   *Instance

	power    types.Percentage8
	override types.Percentage8

	// notify signals the aggregate notifier that observable state changed.
	// Payloads are built at send time, so the signal carries no data.
	notify func()
}

// NewController starts at duty 0 with automatic control.
func NewController(pwm hal.PWMOutput, notify func()) *Controller {
	if notify == nil {
		notify = func() {}
	}
	c := &Controller{
		pwm:      pwm,
		policy:   DefaultPolicy(),
		power:    0,
		override: types.PercentageUnknown,
		notify:   notify,
	}
	c.inst = c.policy.Instance()
	return c
}

// SetNotify replaces the aggregate change signal.
func (c *Controller) SetNotify(notify func()) {
	if notify == nil {
		notify = func() {}
	}
	c.notify = notify
}

// Policy exposes the mutable policy parameters.
func (c *Controller) Policy() *Policy { return &c.policy }

// SetPower applies a duty. Idempotent: setting the current value has no
// side effect. Unknown drives the output at 0 while keeping the sentinel.
func (c *Controller) SetPower(p types.Percentage8) {
	if p == c.power {
		return
	}
	c.power = p
	c.notify()

	c.pwm.SetDuty(p.Duty16Or(0))
}

// SetOverride pins the duty, bypassing the policy. Idempotent on equality.
// A known override is applied immediately; clearing the override back to
// unknown leaves power untouched until the next policy tick.
func (c *Controller) SetOverride(p types.Percentage8) {
	if p == c.override {
		return
	}
	c.override = p
	c.notify()

	if p.Known() {
		c.SetPower(p)
	}
}

// Power returns the applied duty fraction, 0 when unknown.
func (c *Controller) Power() float64 { return c.power.RatioOr(0) }

// PowerRaw returns the applied duty in Percentage 8.
func (c *Controller) PowerRaw() types.Percentage8 { return c.power }

// Override returns the current override, PercentageUnknown when automatic.
func (c *Controller) Override() types.Percentage8 { return c.override }

// PolicyTick runs one 10 Hz policy evaluation. A standing override wins:
// the policy is not evaluated at all while one is set.
func (c *Controller) PolicyTick(view types.SensorView, now time.Time) {
	if c.override.Known() {
		return
	}
	c.SetPower(types.PercentageFromRatio(c.inst.Evaluate(view, now)))
}
