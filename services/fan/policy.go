package fan

import (
	"time"

	"filterfan-go/types"
)

// Policy parameter defaults. The unit ships with a long cooldown so the
// filter keeps scrubbing well past a VOC spike.
const (
	DefaultCooldownSec   uint16 = 900
	DefaultVOCPassiveMax uint16 = 250
	DefaultVOCImproveMin uint16 = 5
)

// Policy holds the environmental-policy parameters. The GATT layer mutates
// these in place on attribute writes; instances read them live, so a
// reconfigured cooldown applies to an activation already in progress.
type Policy struct {
	CooldownSec   uint16
	VOCPassiveMax uint16
	VOCImproveMin uint16
}

func DefaultPolicy() Policy {
	return Policy{
		CooldownSec:   DefaultCooldownSec,
		VOCPassiveMax: DefaultVOCPassiveMax,
		VOCImproveMin: DefaultVOCImproveMin,
	}
}

// Apply overlays non-zero config values onto the defaults.
func (p *Policy) Apply(cfg types.PolicyConfig) {
	if cfg.CooldownSec != 0 {
		p.CooldownSec = cfg.CooldownSec
	}
	if cfg.VOCPassiveMax != 0 {
		p.VOCPassiveMax = cfg.VOCPassiveMax
	}
	if cfg.VOCImproveMin != 0 {
		p.VOCImproveMin = cfg.VOCImproveMin
	}
}

func (p *Policy) Cooldown() time.Duration {
	return time.Duration(p.CooldownSec) * time.Second
}

// active is the activation predicate. Unknown readings never satisfy an
// inequality.
func (p *Policy) active(v types.SensorView) bool {
	in, ex := v.Intake.VOC, v.Exhaust.VOC
	if in.Known() && uint16(in) >= p.VOCPassiveMax {
		return true
	}
	if ex.Known() && uint16(ex) >= p.VOCPassiveMax {
		return true
	}
	if in.Known() && ex.Known() {
		if int32(in)-int32(ex) >= int32(p.VOCImproveMin) {
			return true
		}
	}
	return false
}

// Instance returns evaluation state bound to this policy's parameters.
func (p *Policy) Instance() *Instance {
	return &Instance{policy: p}
}

// Instance carries the cooldown timing state of one evaluation stream.
type Instance struct {
	policy     *Policy
	lastActive time.Time
	wasActive  bool
}

// Evaluate returns the desired duty fraction (0 or 1) for the given view
// at time now. The only mutation is the activation timestamp.
func (i *Instance) Evaluate(v types.SensorView, now time.Time) float64 {
	if i.policy.active(v) {
		i.lastActive = now
		i.wasActive = true
		return 1
	}
	if i.wasActive && now.Sub(i.lastActive) < i.policy.Cooldown() {
		return 1 // hold-on during cooldown
	}
	return 0
}
