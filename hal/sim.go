//go:build !rp2040

package hal

import "sync"

// Host-side simulation provider. Tests and the fansim tool inspect the
// concrete types directly; firmware code only sees the interfaces.

var _ Provider = (*SimProvider)(nil)

type SimProvider struct {
	mu   sync.Mutex
	used map[int]string

	PWMs     map[int]*SimPWM
	Counters map[int]*SimCounter
}

func NewSimProvider() *SimProvider {
	return &SimProvider{
		used:     make(map[int]string),
		PWMs:     make(map[int]*SimPWM),
		Counters: make(map[int]*SimCounter),
	}
}

// claim must be called with mu held.
func (p *SimProvider) claim(owner string, pin int) error {
	if pin < 0 || pin > 28 {
		return ErrUnknownPin
	}
	if holder, inUse := p.used[pin]; inUse && holder != owner {
		return ErrPinInUse
	}
	p.used[pin] = owner
	return nil
}

func (p *SimProvider) ClaimPWM(owner string, pin int) (PWMOutput, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.claim(owner, pin); err != nil {
		return nil, err
	}
	pwm := &SimPWM{}
	p.PWMs[pin] = pwm
	return pwm, nil
}

func (p *SimProvider) ClaimCounter(owner string, pin int) (PulseCounter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.claim(owner, pin); err != nil {
		return nil, err
	}
	c := &SimCounter{}
	p.Counters[pin] = c
	return c, nil
}

func (p *SimProvider) ReleasePin(owner string, pin int) {
	p.mu.Lock()
	if holder, ok := p.used[pin]; ok && holder == owner {
		delete(p.used, pin)
	}
	p.mu.Unlock()
}

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type SimPWM struct {
	FreqHz     uint32
	Duty       uint16
	Configured bool
	SetCalls   int
	FailInit   error // returned from Configure when non-nil
}

func (f *SimPWM) Configure(freqHz uint32) error {
	if f.FailInit != nil {
		return f.FailInit
	}
	f.FreqHz = freqHz
	f.Configured = true
	f.Duty = 0
	return nil
}

func (f *SimPWM) SetDuty(duty uint16) {
	f.Duty = duty
	f.SetCalls++
}

type SimCounter struct {
	mu       sync.Mutex
	pending  uint32
	Started  bool
	FailInit error
}

func (f *SimCounter) Start() error {
	if f.FailInit != nil {
		return f.FailInit
	}
	f.Started = true
	return nil
}

// Inject adds edges to the window currently being counted, holding at the
// 16-bit ceiling like the hardware counter.
func (f *SimCounter) Inject(edges uint32) {
	f.mu.Lock()
	f.pending += edges
	if f.pending > 0xFFFF {
		f.pending = 0xFFFF
	}
	f.mu.Unlock()
}

func (f *SimCounter) ReadAndReset() uint16 {
	f.mu.Lock()
	n := uint16(f.pending)
	f.pending = 0
	f.mu.Unlock()
	return n
}
