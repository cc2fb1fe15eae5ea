//go:build rp2040

package hal

import (
	"sync"
	"sync/atomic"

	"machine"
)

// Ensure the provider satisfies the contract at compile time.
var _ Provider = (*rp2Provider)(nil)

// Local interface to avoid depending on an unexported concrete type in machine.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// Select controller handle for a given slice number (0..7).
// On RP2040 the slice for a GPIO is (pin >> 1) & 7; channel A/B is pin & 1.
func pwmGroupForPin(pin int) pwmCtrl {
	switch (pin >> 1) & 7 {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

// -----------------------------------------------------------------------------
// PWM output
// -----------------------------------------------------------------------------

type rp2PWM struct {
	ctrl  pwmCtrl
	pin   machine.Pin
	chIdx uint8
}

func (p *rp2PWM) Configure(freqHz uint32) error {
	if freqHz == 0 {
		freqHz = 1
	}
	if err := p.ctrl.Configure(machine.PWMConfig{
		Period: uint64(1_000_000_000 / freqHz),
	}); err != nil {
		return err
	}
	ch, err := p.ctrl.Channel(p.pin)
	if err != nil {
		return err
	}
	p.chIdx = ch
	p.ctrl.Set(p.chIdx, 0)
	return nil
}

func (p *rp2PWM) SetDuty(duty uint16) {
	top := p.ctrl.Top()
	p.ctrl.Set(p.chIdx, uint32(duty)*top/0xFFFF)
}

// -----------------------------------------------------------------------------
// Pulse counter
// -----------------------------------------------------------------------------

// rp2Counter counts falling edges via a pin interrupt into an atomic
// counter drained by the owner's sampling loop. It stands in for the PWM
// slice channel-B edge-count mode, which machine does not expose.
type rp2Counter struct {
	pin   machine.Pin
	count uint32
}

func (c *rp2Counter) Start() error {
	c.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return c.pin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		// Hold at the 16-bit ceiling rather than wrapping.
		for {
			v := atomic.LoadUint32(&c.count)
			if v >= 0xFFFF {
				return
			}
			if atomic.CompareAndSwapUint32(&c.count, v, v+1) {
				return
			}
		}
	})
}

func (c *rp2Counter) ReadAndReset() uint16 {
	return uint16(atomic.SwapUint32(&c.count, 0))
}

// -----------------------------------------------------------------------------
// Provider
// -----------------------------------------------------------------------------

type rp2Provider struct {
	mu   sync.Mutex
	used map[int]string // pin -> owner
}

func NewProvider() Provider {
	return &rp2Provider{used: make(map[int]string)}
}

func (p *rp2Provider) claim(owner string, pin int) error {
	if pin < 0 || pin > 28 {
		return ErrUnknownPin
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if holder, inUse := p.used[pin]; inUse && holder != owner {
		return ErrPinInUse
	}
	p.used[pin] = owner
	return nil
}

func (p *rp2Provider) ClaimPWM(owner string, pin int) (PWMOutput, error) {
	if err := p.claim(owner, pin); err != nil {
		return nil, err
	}
	mp := machine.Pin(pin)
	mp.Configure(machine.PinConfig{Mode: machine.PinPWM})
	return &rp2PWM{ctrl: pwmGroupForPin(pin), pin: mp}, nil
}

func (p *rp2Provider) ClaimCounter(owner string, pin int) (PulseCounter, error) {
	if err := p.claim(owner, pin); err != nil {
		return nil, err
	}
	return &rp2Counter{pin: machine.Pin(pin)}, nil
}

func (p *rp2Provider) ReleasePin(owner string, pin int) {
	p.mu.Lock()
	if holder, ok := p.used[pin]; ok && holder == owner {
		delete(p.used, pin)
	}
	p.mu.Unlock()
}
