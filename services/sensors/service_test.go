package sensors

import (
	"context"
	"testing"
	"time"

	"filterfan-go/bus"
	"filterfan-go/types"
)

func nextView(t *testing.T, sub *bus.Subscription) types.SensorView {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-sub.Channel():
			if v, ok := msg.Payload.(types.SensorView); ok {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for sensor view")
		}
	}
}

func TestServicePublishesMergedView(t *testing.T) {
	b := bus.NewBus(16)
	intake := NewSimHead()
	exhaust := NewSimHead()
	intake.Set(types.EnvReading{DeciC: 215, RHx100: 4510, VOC: 120})
	exhaust.SetVOC(300)

	svc := New(b.NewConnection("sensors"), intake, exhaust)
	svc.period = 10 * time.Millisecond

	obs := b.NewConnection("test")
	sub := obs.Subscribe(bus.T("sensors", "view"))
	defer obs.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	v := nextView(t, sub)
	if v.Intake.DeciC != 215 || v.Intake.RHx100 != 4510 || v.Intake.VOC != 120 {
		t.Fatalf("unexpected intake reading: %+v", v.Intake)
	}
	if v.Exhaust.VOC != 300 {
		t.Fatalf("unexpected exhaust VOC: %d", v.Exhaust.VOC)
	}
	if v.Exhaust.DeciC != types.TempUnknown || v.Exhaust.RHx100 != types.RHUnknown {
		t.Fatalf("exhaust temperature/humidity should be unknown: %+v", v.Exhaust)
	}
	if v.TSms == 0 {
		t.Fatal("view missing timestamp")
	}
}

func TestServiceTracksHeadChanges(t *testing.T) {
	b := bus.NewBus(16)
	intake := NewSimHead()
	exhaust := NewSimHead()

	svc := New(b.NewConnection("sensors"), intake, exhaust)
	svc.period = 10 * time.Millisecond

	obs := b.NewConnection("test")
	sub := obs.Subscribe(bus.T("sensors", "view"))
	defer obs.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	v := nextView(t, sub)
	if v.Intake.VOC.Known() {
		t.Fatalf("fresh head should read unknown VOC, got %d", v.Intake.VOC)
	}

	intake.SetVOC(410)
	deadline := time.After(2 * time.Second)
	for {
		v = nextView(t, sub)
		if v.Intake.VOC == 410 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("view never picked up VOC change, last %d", v.Intake.VOC)
		default:
		}
	}
}

func TestVOCIndexFromPPB(t *testing.T) {
	cases := []struct {
		ppb  uint32
		want types.VOCIndex
	}{
		{0, 0},
		{2500, 250},
		{5000, 500},
		{60000, 500},
	}
	for _, c := range cases {
		if got := vocIndexFromPPB(c.ppb); got != c.want {
			t.Errorf("vocIndexFromPPB(%d) = %d, want %d", c.ppb, got, c.want)
		}
	}
}

func TestConfigOverridesPeriod(t *testing.T) {
	b := bus.NewBus(16)
	svc := New(b.NewConnection("sensors"), NewSimHead(), NewSimHead())
	svc.period = time.Hour // never fires unless config shortens it

	cfgConn := b.NewConnection("config")
	cfgConn.Publish(cfgConn.NewMessage(
		bus.T("config", "sensors"),
		types.SensorsConfig{PeriodMS: 10},
		true,
	))

	obs := b.NewConnection("test")
	sub := obs.Subscribe(bus.T("sensors", "view"))
	defer obs.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	nextView(t, sub) // fires only because the retained config shortened the period
}
