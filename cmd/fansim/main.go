// Command fansim runs the fan control stack against the simulated HAL and
// scripts a BLE central against the attribute layer. Everything runs on one
// goroutine, the way the device loop owns state on hardware.
package main

import (
	"fmt"
	"time"

	"filterfan-go/hal"
	"filterfan-go/services/fan"
	"filterfan-go/services/gatt"
	"filterfan-go/types"
)

const (
	pwmPin  = 12
	tachPin = 13
)

// simState joins the controller and tachometer into the attribute surface.
type simState struct {
	ctrl *fan.Controller
	tach *fan.Tachometer
}

func (s *simState) PowerRaw() types.Percentage8     { return s.ctrl.PowerRaw() }
func (s *simState) Override() types.Percentage8     { return s.ctrl.Override() }
func (s *simState) SetOverride(p types.Percentage8) { s.ctrl.SetOverride(p) }
func (s *simState) Policy() *fan.Policy             { return s.ctrl.Policy() }
func (s *simState) RPM() types.RPM16                { return s.tach.RPM() }

func main() {
	prov := hal.NewSimProvider()

	pwm, err := prov.ClaimPWM("fansim", pwmPin)
	if err != nil {
		panic(err)
	}
	if err := pwm.Configure(fan.PWMFrequencyHz); err != nil {
		panic(err)
	}
	counter, err := prov.ClaimCounter("fansim", tachPin)
	if err != nil {
		panic(err)
	}

	tach := fan.NewTachometer(counter)
	if err := tach.Start(); err != nil {
		panic(err)
	}
	ctrl := fan.NewController(pwm, nil)
	ctrl.Policy().Apply(types.PolicyConfig{CooldownSec: 2})

	stack := gatt.NewQueueStack()
	stack.OnNotify = func(n gatt.Notification) {
		fmt.Printf("  << notify conn=%d attr=0x%04X value=% X\n", n.Conn, n.Attr, n.Value)
	}

	attrs := gatt.NewFan(stack, &simState{ctrl: ctrl, tach: tach})
	ctrl.SetNotify(attrs.AggregateNotify)
	disp := gatt.NewDispatcher(attrs)

	rawPWM := prov.PWMs[pwmPin]
	rawCounter := prov.Counters[tachPin]

	central := gatt.Conn(1)
	now := time.Now()

	fmt.Println("== central connects, enables aggregate notifications ==")
	write(disp, central, gatt.HandleFanAggregateCCC, []byte{0x01, 0x00})
	read(disp, central, gatt.HandleFanAggregateValue)
	stack.Drain()

	fmt.Println("\n== exhaust VOC spikes to 400, policy drives the fan ==")
	view := types.NewSensorView()
	view.Exhaust.VOC = 400
	ctrl.PolicyTick(view, now)
	fmt.Printf("  pwm duty register = 0x%04X\n", rawPWM.Duty)
	stack.Drain()

	fmt.Println("\n== fan spins up, tachometer sees 60 pulses per window ==")
	rawCounter.Inject(60)
	tach.Sample()
	read(disp, central, gatt.HandleTachometerValue)
	read(disp, central, gatt.HandleFanAggregateValue)

	fmt.Println("\n== VOC recovers, cooldown holds the fan on ==")
	view.Exhaust.VOC = 100
	ctrl.PolicyTick(view, now.Add(time.Second))
	fmt.Printf("  power = %d (raw)\n", ctrl.PowerRaw())
	stack.Drain()

	fmt.Println("\n== cooldown expires ==")
	ctrl.PolicyTick(view, now.Add(3*time.Second))
	fmt.Printf("  power = %d (raw), pwm duty = 0x%04X\n", ctrl.PowerRaw(), rawPWM.Duty)
	stack.Drain()

	fmt.Println("\n== central overrides to 100% ==")
	write(disp, central, gatt.HandleFanPowerOverrideValue, []byte{0xC8})
	read(disp, central, gatt.HandleFanPowerValue)
	stack.Drain()

	fmt.Println("\n== malformed override write is rejected ==")
	write(disp, central, gatt.HandleFanPowerOverrideValue, []byte{0xC8, 0x00})

	fmt.Println("\n== central releases the override ==")
	write(disp, central, gatt.HandleFanPowerOverrideValue, []byte{0xFF})
	ctrl.PolicyTick(view, now.Add(4*time.Second))
	fmt.Printf("  power = %d (raw), automatic control resumed\n", ctrl.PowerRaw())
	stack.Drain()

	fmt.Println("\n== central disconnects, pending sends are cancelled ==")
	attrs.AggregateNotify()
	disp.Disconnected(central)
	stack.Drain()
	fmt.Println("  done")
}

func read(disp *gatt.Dispatcher, conn gatt.Conn, attr uint16) {
	var buf [32]byte
	n, err := disp.Read(conn, attr, 0, buf[:])
	if err != nil {
		fmt.Printf("  read 0x%04X -> error: %v\n", attr, err)
		return
	}
	fmt.Printf("  read 0x%04X -> % X\n", attr, buf[:n])
}

func write(disp *gatt.Dispatcher, conn gatt.Conn, attr uint16, value []byte) {
	if err := disp.Write(conn, attr, 0, value); err != nil {
		fmt.Printf("  write 0x%04X % X -> error: %v\n", attr, value, err)
		return
	}
	fmt.Printf("  write 0x%04X % X -> ok\n", attr, value)
}
