package fan

import (
	"context"
	"testing"
	"time"

	"filterfan-go/bus"
	"filterfan-go/errcode"
	"filterfan-go/hal"
	"filterfan-go/types"
)

func startService(t *testing.T) (*bus.Bus, *hal.SimProvider, *bus.Connection, chan struct{}) {
	t.Helper()
	b := bus.NewBus(32)
	prov := hal.NewSimProvider()
	svc := New(b.NewConnection("fan"), prov)

	notified := make(chan struct{}, 16)
	svc.SetAggregateNotify(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Run(ctx)

	obs := b.NewConnection("test")
	t.Cleanup(obs.Disconnect)
	return b, prov, obs, notified
}

func publishConfig(b *bus.Bus, cfg types.FanConfig) {
	conn := b.NewConnection("cfg")
	conn.Publish(conn.NewMessage(bus.T("config", "fan"), cfg, true))
}

func publishView(b *bus.Bus, view types.SensorView) {
	conn := b.NewConnection("sensors")
	conn.Publish(conn.NewMessage(bus.T("sensors", "view"), view, true))
}

func waitState(t *testing.T, sub *bus.Subscription, level string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-sub.Channel():
			if st, ok := msg.Payload.(types.ServiceState); ok && st.Level == level {
				return
			}
		case <-deadline:
			t.Fatalf("service never reached state %q", level)
		}
	}
}

func waitPower(t *testing.T, sub *bus.Subscription, want types.Percentage8) {
	t.Helper()
	deadline := time.After(4 * time.Second)
	for {
		select {
		case msg := <-sub.Channel():
			if v, ok := msg.Payload.(types.FanValue); ok && v.Power == want {
				return
			}
		case <-deadline:
			t.Fatalf("fan/value never reported power %d", want)
		}
	}
}

func TestServiceConfiguresAndRunsPolicy(t *testing.T) {
	b, _, obs, notified := startService(t)
	stateSub := obs.Subscribe(bus.T("fan", "state"))
	valueSub := obs.Subscribe(bus.T("fan", "value"))

	publishConfig(b, types.FanConfig{
		PWMPin:  12,
		TachPin: 13,
		Policy:  types.PolicyConfig{CooldownSec: 1},
	})
	waitState(t, stateSub, "ready")

	spike := types.NewSensorView()
	spike.Exhaust.VOC = 400
	publishView(b, spike)
	waitPower(t, valueSub, 200)

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("aggregate notify signal never fired")
	}

	clean := types.NewSensorView()
	clean.Exhaust.VOC = 50
	publishView(b, clean)
	waitPower(t, valueSub, 0) // after the 1 s cooldown lapses
}

func TestServicePublishesTachometer(t *testing.T) {
	b, prov, obs, _ := startService(t)
	stateSub := obs.Subscribe(bus.T("fan", "state"))
	tachSub := obs.Subscribe(bus.T("fan", "tachometer"))

	publishConfig(b, types.FanConfig{PWMPin: 12, TachPin: 13})
	waitState(t, stateSub, "ready")

	prov.Counters[13].Inject(60)

	deadline := time.After(4 * time.Second)
	for {
		select {
		case msg := <-tachSub.Channel():
			if v, ok := msg.Payload.(types.TachometerValue); ok && v.RPM == 3600 {
				return
			}
		case <-deadline:
			t.Fatal("tachometer reading never published")
		}
	}
}

func TestServiceReportsTachometerSaturation(t *testing.T) {
	b, prov, obs, _ := startService(t)
	stateSub := obs.Subscribe(bus.T("fan", "state"))

	publishConfig(b, types.FanConfig{PWMPin: 12, TachPin: 13})
	waitState(t, stateSub, "ready")

	// Pin the counter at its ceiling so the next window reads clamped.
	prov.Counters[13].Inject(0x20000)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-stateSub.Channel():
			st, ok := msg.Payload.(types.ServiceState)
			if !ok || st.Level != "degraded" {
				continue
			}
			if st.Status != string(errcode.Saturated) {
				t.Fatalf("degraded status = %q, want %q", st.Status, errcode.Saturated)
			}
			// The counter drained, so the following window recovers.
			waitState(t, stateSub, "ready")
			return
		case <-deadline:
			t.Fatal("saturation never reported")
		}
	}
}

func TestServiceOverrideRequest(t *testing.T) {
	b, _, obs, _ := startService(t)
	stateSub := obs.Subscribe(bus.T("fan", "state"))
	valueSub := obs.Subscribe(bus.T("fan", "value"))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// The retained idle state proves the loop's subscriptions are in
	// place, so the non-retained request below cannot be dropped.
	waitState(t, stateSub, "idle")

	// Before configuration the request is refused.
	reply, err := obs.RequestWait(ctx, obs.NewMessage(
		bus.T("fan", "control", "override"),
		types.OverrideRequest{Override: 0xC8},
		false,
	))
	if err != nil {
		t.Fatal(err)
	}
	if e, ok := reply.Payload.(types.ErrorReply); !ok || e.OK {
		t.Fatalf("pre-init reply = %#v, want error reply", reply.Payload)
	}

	publishConfig(b, types.FanConfig{PWMPin: 12, TachPin: 13})
	waitState(t, stateSub, "ready")

	reply, err = obs.RequestWait(ctx, obs.NewMessage(
		bus.T("fan", "control", "override"),
		types.OverrideRequest{Override: 0xC8},
		false,
	))
	if err != nil {
		t.Fatal(err)
	}
	if okr, ok := reply.Payload.(types.OKReply); !ok || !okr.OK {
		t.Fatalf("reply = %#v, want OK", reply.Payload)
	}
	waitPower(t, valueSub, 200)
}

func TestServiceReportsInitFailure(t *testing.T) {
	b := bus.NewBus(32)
	prov := hal.NewSimProvider()

	// Occupy the PWM pin so Init fails on the claim.
	if _, err := prov.ClaimPWM("other", 12); err != nil {
		t.Fatal(err)
	}

	svc := New(b.NewConnection("fan"), prov)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := b.NewConnection("test")
	stateSub := obs.Subscribe(bus.T("fan", "state"))
	defer obs.Disconnect()

	go svc.Run(ctx)
	publishConfig(b, types.FanConfig{PWMPin: 12, TachPin: 13})

	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-stateSub.Channel():
			if st, ok := msg.Payload.(types.ServiceState); ok && st.Level == "error" {
				return
			}
		case <-deadline:
			t.Fatal("init failure never reported")
		}
	}
}
