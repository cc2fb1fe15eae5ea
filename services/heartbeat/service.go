package heartbeat

import (
	"context"
	"encoding/json"
	"time"

	"filterfan-go/bus"
	"filterfan-go/x/timex"
)

var topicConfigHeartbeat = bus.T("config", "heartbeat")

// Beat is the retained liveness payload on system/heartbeat.
type Beat struct {
	UptimeSec int64 `json:"uptime_sec"`
	TSms      int64 `json:"ts_ms"`
}

type Service struct {
	started time.Time
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case <-tick.C:
			conn.Publish(conn.NewMessage(
				bus.T("system", "heartbeat"),
				Beat{UptimeSec: int64(time.Since(s.started).Seconds()), TSms: timex.NowMs()},
				true,
			))
		case msg := <-cfgSub.Channel():
			// Change tick interval if needed
			if sec := intervalFrom(msg.Payload); sec > 0 {
				tick.Reset(time.Duration(sec) * time.Second)
			}
		}
	}
}

// intervalFrom extracts the interval seconds from a config payload, which
// may be raw JSON or an already-decoded object.
func intervalFrom(p any) float64 {
	switch v := p.(type) {
	case []byte:
		var cfg struct {
			Interval float64 `json:"interval"`
		}
		if err := json.Unmarshal(v, &cfg); err != nil {
			return 0
		}
		return cfg.Interval
	case map[string]any:
		if iv, ok := v["interval"].(float64); ok {
			return iv
		}
	}
	return 0
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.started = time.Now()
	go s.serviceLoop(ctx, conn)
	return nil
}
