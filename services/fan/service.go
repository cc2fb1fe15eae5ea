package fan

import (
	"context"
	"encoding/json"
	"time"

	"filterfan-go/bus"
	"filterfan-go/errcode"
	"filterfan-go/hal"
	"filterfan-go/types"
	"filterfan-go/x/timex"
)

const (
	// Fan PWM carrier. 25 kHz is the standard 4-wire fan control band.
	PWMFrequencyHz = 25_000
	// Cadence at which the sensor subsystem refreshes; the tachometer
	// change check runs at the same rate.
	SensorUpdatePeriod = time.Second

	owner = "fan"
)

// Service owns the fan controller, policy and tachometer. All state is
// touched only from the Run loop; attribute access from the BLE layer is
// dispatched on that loop too (see services/gatt).
type Service struct {
	conn *bus.Connection
	prov hal.Provider

	ctrl *Controller
	tach *Tachometer
	view types.SensorView

	// gattNotify is the aggregate notifier's coalescing signal.
	gattNotify func()
	// pump gives the BLE stack a send window after each loop iteration.
	pump func()

	prevRPS   float64
	saturated bool
	inited    bool
}

func New(conn *bus.Connection, prov hal.Provider) *Service {
	return &Service{
		conn: conn,
		prov: prov,
		view: types.NewSensorView(),
	}
}

// SetAggregateNotify wires the BLE aggregate change signal.
func (s *Service) SetAggregateNotify(fn func()) { s.gattNotify = fn }

// SetPump installs a callback run once per loop iteration, after state
// mutation. The in-process stack drains its send queue here.
func (s *Service) SetPump(fn func()) { s.pump = fn }

// -----------------------------------------------------------------------------
// Initialization
// -----------------------------------------------------------------------------

// Init claims and configures the peripherals, in order: PWM output at
// 25 kHz (duty 0), then the tachometer edge counter. Any failure is fatal
// to the service.
func (s *Service) Init(cfg types.FanConfig) error {
	pwm, err := s.prov.ClaimPWM(owner, cfg.PWMPin)
	if err != nil {
		return &errcode.E{C: errcode.Of(err), Op: "fan.init", Msg: "claim pwm pin", Err: err}
	}
	if err := pwm.Configure(PWMFrequencyHz); err != nil {
		return &errcode.E{C: errcode.Error, Op: "fan.init", Msg: "configure pwm", Err: err}
	}

	counter, err := s.prov.ClaimCounter(owner, cfg.TachPin)
	if err != nil {
		return &errcode.E{C: errcode.Of(err), Op: "fan.init", Msg: "claim tach pin", Err: err}
	}

	s.ctrl = NewController(pwm, s.aggregateChanged)
	s.ctrl.Policy().Apply(cfg.Policy)

	s.tach = NewTachometer(counter)
	if err := s.tach.Start(); err != nil {
		return &errcode.E{C: errcode.Error, Op: "fan.init", Msg: "start tachometer", Err: err}
	}

	s.inited = true
	return nil
}

// Ready reports whether Init has completed.
func (s *Service) Ready() bool { return s.inited }

// -----------------------------------------------------------------------------
// State exposed to the GATT layer (same-loop access only)
// -----------------------------------------------------------------------------

func (s *Service) PowerRaw() types.Percentage8 {
	if s.ctrl == nil {
		return 0
	}
	return s.ctrl.PowerRaw()
}

func (s *Service) Override() types.Percentage8 {
	if s.ctrl == nil {
		return types.PercentageUnknown
	}
	return s.ctrl.Override()
}

func (s *Service) SetOverride(p types.Percentage8) {
	if s.ctrl == nil {
		return
	}
	s.ctrl.SetOverride(p)
}

func (s *Service) Policy() *Policy {
	if s.ctrl == nil {
		return nil
	}
	return s.ctrl.Policy()
}

func (s *Service) RPM() types.RPM16 {
	if s.tach == nil {
		return 0
	}
	return s.tach.RPM()
}

// -----------------------------------------------------------------------------
// Main loop
// -----------------------------------------------------------------------------

func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.T("config", "fan"))
	viewSub := s.conn.Subscribe(bus.T("sensors", "view"))
	ctrlSub := s.conn.Subscribe(bus.T("fan", "control", "override"))
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(viewSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("idle", "awaiting_config", nil)

	policyTick := time.NewTicker(timex.PeriodFromHz(PolicyUpdateRateHz))
	defer policyTick.Stop()
	sampleTick := time.NewTicker(TachWindow)
	defer sampleTick.Stop()
	tachTick := time.NewTicker(SensorUpdatePeriod)
	defer tachTick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			if s.inited {
				continue // reconfiguration requires a restart
			}
			var cfg types.FanConfig
			if err := decodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			if err := s.Init(cfg); err != nil {
				s.publishState("error", "init_failed", err)
				continue
			}
			s.publishState("ready", "", nil)

		case msg := <-viewSub.Channel():
			if v, ok := msg.Payload.(types.SensorView); ok {
				s.view = v
			}

		case msg := <-ctrlSub.Channel():
			s.handleOverrideRequest(msg)

		case now := <-policyTick.C:
			if s.inited {
				s.ctrl.PolicyTick(s.view, now)
			}

		case <-sampleTick.C:
			if s.inited {
				sat := s.tach.Sample()
				if sat != s.saturated {
					s.saturated = sat
					if sat {
						println("[fan] warn: tachometer counter saturated in window")
						s.publishState("degraded", string(errcode.Saturated), nil)
					} else {
						s.publishState("ready", "", nil)
					}
				}
			}

		case <-tachTick.C:
			if s.inited {
				rps := s.tach.RevolutionsPerSecond()
				if rps != s.prevRPS {
					s.prevRPS = rps
					s.aggregateChanged()
					s.conn.Publish(s.conn.NewMessage(
						bus.T("fan", "tachometer"),
						types.TachometerValue{RPM: s.tach.RPM()},
						true,
					))
				}
			}
		}

		if s.pump != nil {
			s.pump()
		}
	}
}

// handleOverrideRequest serves the local control path, mirroring the BLE
// override attribute for on-device callers.
func (s *Service) handleOverrideRequest(msg *bus.Message) {
	reply := func(payload any) {
		if msg.CanReply() {
			s.conn.Reply(msg, payload, false)
		}
	}
	if !s.inited {
		reply(types.ErrorReply{Error: string(errcode.NotReady)})
		return
	}
	var req types.OverrideRequest
	if err := decodeJSON(msg.Payload, &req); err != nil {
		reply(types.ErrorReply{Error: string(errcode.InvalidPayload)})
		return
	}
	s.ctrl.SetOverride(types.Percentage8(req.Override))
	reply(types.OKReply{OK: true})
}

// aggregateChanged fans the change signal out: BLE subscribers first, then
// the retained bus value for local observers.
func (s *Service) aggregateChanged() {
	if s.gattNotify != nil {
		s.gattNotify()
	}
	if s.ctrl != nil {
		s.conn.Publish(s.conn.NewMessage(
			bus.T("fan", "value"),
			types.FanValue{Power: s.ctrl.PowerRaw(), Override: s.ctrl.Override()},
			true,
		))
	}
}

func (s *Service) publishState(level, status string, err error) {
	st := types.ServiceState{Level: level, Status: status, TSms: timex.NowMs()}
	if err != nil {
		st.Status = status + ": " + err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(bus.T("fan", "state"), st, true))
}

// decodeJSON accepts raw JSON, strings, or already-typed payloads.
func decodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case T:
		*dst = v
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
