package sensors

import (
	"context"
	"encoding/json"
	"time"

	"filterfan-go/bus"
	"filterfan-go/types"
	"filterfan-go/x/timex"
)

// DefaultPeriod is used until a config message overrides it.
const DefaultPeriod = time.Second

// Service samples the intake and exhaust heads on a fixed cadence and
// publishes the merged view as a retained bus value. Readings a head
// cannot supply stay unknown for that cycle.
type Service struct {
	conn    *bus.Connection
	intake  Head
	exhaust Head
	period  time.Duration
	view    types.SensorView
}

func New(conn *bus.Connection, intake, exhaust Head) *Service {
	return &Service{
		conn:    conn,
		intake:  intake,
		exhaust: exhaust,
		period:  DefaultPeriod,
		view:    types.NewSensorView(),
	}
}

func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.T("config", "sensors"))
	defer s.conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.period)
	defer tick.Stop()

	s.publishState("ready", "", nil)

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			var cfg types.SensorsConfig
			if err := decodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			if cfg.PeriodMS > 0 {
				s.period = time.Duration(cfg.PeriodMS) * time.Millisecond
				tick.Reset(s.period)
			}

		case <-tick.C:
			s.sample()
		}
	}
}

// sample reads both heads and publishes the merged view, retained so late
// subscribers start from the latest reading.
func (s *Service) sample() {
	s.view.Intake = s.intake.Read()
	s.view.Exhaust = s.exhaust.Read()
	s.view.TSms = timex.NowMs()
	s.conn.Publish(s.conn.NewMessage(bus.T("sensors", "view"), s.view, true))
}

func (s *Service) publishState(level, status string, err error) {
	st := types.ServiceState{Level: level, Status: status, TSms: timex.NowMs()}
	if err != nil {
		st.Status = status + ": " + err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(bus.T("sensors", "state"), st, true))
}

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
