package main

import (
	"context"
	"time"

	"filterfan-go/bus"
	"filterfan-go/services/config"
	"filterfan-go/services/console"
	"filterfan-go/services/fan"
	"filterfan-go/services/gatt"
	"filterfan-go/services/heartbeat"
	"filterfan-go/services/sensors"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, platformDevice())
	b := bus.NewBus(16)

	// Console first so the boot sequence is visible on the wire.
	go console.New(b.NewConnection("console"), console.DefaultSink()).Run(ctx)

	fanSvc := fan.New(b.NewConnection("fan"), platformProvider())

	// BLE attribute plumbing. The dispatcher is what the host stack calls
	// into; until a radio binding is attached, notifications surface on the
	// console via the stack hook.
	stack := gatt.NewQueueStack()
	fanAttrs := gatt.NewFan(stack, fanSvc)
	fanSvc.SetAggregateNotify(fanAttrs.AggregateNotify)
	fanSvc.SetPump(func() { stack.Drain() })
	bindRadio(gatt.NewDispatcher(fanAttrs), stack)

	intake, exhaust := platformHeads()
	go sensors.New(b.NewConnection("sensors"), intake, exhaust).Run(ctx)

	go fanSvc.Run(ctx)

	_ = (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))

	// Config last: services are subscribed and ready for the retained
	// sections by now.
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	select {}
}

// bindRadio attaches the attribute dispatcher to the BLE host stack. No
// radio binding ships yet, so notification sends are logged instead.
func bindRadio(d *gatt.Dispatcher, stack *gatt.QueueStack) {
	_ = d
	stack.OnNotify = func(n gatt.Notification) {
		println("[gatt] notify conn=", uint16(n.Conn), "attr=", uint16(n.Attr), "len=", len(n.Value))
	}
}
