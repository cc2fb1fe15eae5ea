// bus/bus_test.go
package bus

import (
	"context"
	"testing"
	"time"
)

func expectOneOf(t *testing.T, sub *Subscription, want any) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		if got.Payload != want {
			t.Errorf("expected payload %v, got %v", want, got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for %v", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Errorf("expected no message, got %v", got.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("config", "fan"))

	conn.Publish(conn.NewMessage(T("config", "fan"), "hello", false))
	expectOneOf(t, sub, "hello")
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("config", "fan"), "persist", true))

	sub := conn.Subscribe(T("config", "fan"))
	expectOneOf(t, sub, "persist")
}

func TestRetainedClear(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("a"), "v", true))
	conn.Publish(conn.NewMessage(T("a"), nil, true))

	sub := conn.Subscribe(T("a"))
	expectNoMessage(t, sub)
}

// -----------------------------------------------------------------------------
// Wildcards
// -----------------------------------------------------------------------------

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(T("a", "+", "c"))
	s2 := c.Subscribe(T("a", "+", "+"))
	s3 := c.Subscribe(T("a", "b", "+"))
	sNo := c.Subscribe(T("a", "+", "d"))

	c.Publish(b.NewMessage(T("a", "b", "c"), "m1", false))

	expectOneOf(t, s1, "m1")
	expectOneOf(t, s2, "m1")
	expectOneOf(t, s3, "m1")
	expectNoMessage(t, sNo)

	c.Publish(b.NewMessage(T("a", "x", "y"), "m2", false))

	expectOneOf(t, s2, "m2")
	expectNoMessage(t, s1)
	expectNoMessage(t, s3)

	c.Publish(b.NewMessage(T("a", "c"), "m3", false))
	expectNoMessage(t, s1)
	expectNoMessage(t, s2)
	expectNoMessage(t, s3)
	expectNoMessage(t, sNo)
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sAHash := c.Subscribe(T("a", "#"))
	sHash := c.Subscribe(T("#"))
	sABHash := c.Subscribe(T("a", "b", "#"))
	sAExact := c.Subscribe(T("a"))

	c.Publish(b.NewMessage(T("a"), "p1", false))
	expectOneOf(t, sAHash, "p1")
	expectOneOf(t, sHash, "p1")
	expectOneOf(t, sAExact, "p1")
	expectNoMessage(t, sABHash)

	c.Publish(b.NewMessage(T("a", "b"), "p2", false))
	expectOneOf(t, sAHash, "p2")
	expectOneOf(t, sHash, "p2")
	expectOneOf(t, sABHash, "p2")
	expectNoMessage(t, sAExact)

	c.Publish(b.NewMessage(T("a", "b", "c"), "p3", false))
	expectOneOf(t, sAHash, "p3")
	expectOneOf(t, sHash, "p3")
	expectOneOf(t, sABHash, "p3")
	expectNoMessage(t, sAExact)
}

func TestWildcard_IntTokens(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("test")

	s := c.Subscribe(T("gatt", "conn", "+", "state"))

	c.Publish(b.NewMessage(T("gatt", "conn", 3, "state"), "up", false))
	expectOneOf(t, s, "up")
}

func TestWildcard_RetainedDelivery(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("sensors", "view"), "v1", true))
	c.Publish(b.NewMessage(T("sensors", "raw"), "r1", true))

	s := c.Subscribe(T("sensors", "+"))

	got := map[any]bool{}
	for i := 0; i < 2; i++ {
		select {
		case m := <-s.Channel():
			got[m.Payload] = true
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for retained replay")
		}
	}
	if !got["v1"] || !got["r1"] {
		t.Fatalf("missing retained payloads: %v", got)
	}
}

// -----------------------------------------------------------------------------
// Reply / request
// -----------------------------------------------------------------------------

func TestReply(t *testing.T) {
	b := NewBus(4)
	svc := b.NewConnection("svc")
	cli := b.NewConnection("cli")

	ctrl := svc.Subscribe(T("fan", "control", "+"))
	go func() {
		m := <-ctrl.Channel()
		svc.Reply(m, "done", false)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := cli.RequestWait(ctx, cli.NewMessage(T("fan", "control", "stop"), nil, false))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if reply.Payload != "done" {
		t.Errorf("expected 'done', got %v", reply.Payload)
	}
}

func TestRequestWait_ContextCancelled(t *testing.T) {
	b := NewBus(4)
	cli := b.NewConnection("cli")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := cli.RequestWait(ctx, cli.NewMessage(T("nobody", "home"), nil, false))
	if err == nil {
		t.Fatal("expected context error")
	}
}

// -----------------------------------------------------------------------------
// Queue behaviour and lifecycle
// -----------------------------------------------------------------------------

func TestQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")

	s := c.Subscribe(T("x"))
	for i := 1; i <= 4; i++ {
		c.Publish(b.NewMessage(T("x"), i, false))
	}
	// Queue length 2: the two newest survive.
	expectOneOf(t, s, 3)
	expectOneOf(t, s, 4)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	s := c.Subscribe(T("y"))
	s.Unsubscribe()

	// Channel is closed after unsubscribe.
	if _, ok := <-s.Channel(); ok {
		t.Fatal("expected closed channel")
	}
	c.Publish(b.NewMessage(T("y"), "late", false))
}

func TestDisconnectClosesAll(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	s1 := c.Subscribe(T("a"))
	s2 := c.Subscribe(T("b"))
	c.Disconnect()

	if _, ok := <-s1.Channel(); ok {
		t.Fatal("s1 not closed")
	}
	if _, ok := <-s2.Channel(); ok {
		t.Fatal("s2 not closed")
	}
}
