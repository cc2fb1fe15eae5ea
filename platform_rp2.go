//go:build rp2040

package main

import (
	"machine"

	"filterfan-go/hal"
	"filterfan-go/services/sensors"
)

// Sensor head wiring: intake on I2C0 (GP4/GP5), exhaust on I2C1 (GP6/GP7).
const (
	intakeSDA  = machine.GP4
	intakeSCL  = machine.GP5
	exhaustSDA = machine.GP6
	exhaustSCL = machine.GP7

	i2cFrequency = 100_000
)

func platformDevice() string { return "pico" }

func platformProvider() hal.Provider { return hal.NewProvider() }

func platformHeads() (sensors.Head, sensors.Head) {
	intake := sensors.NewDriverHead(setupI2C(machine.I2C0, intakeSDA, intakeSCL))
	exhaust := sensors.NewDriverHead(setupI2C(machine.I2C1, exhaustSDA, exhaustSCL))
	if err := intake.Configure(); err != nil {
		println("[main] intake head configure failed:", err.Error())
	}
	if err := exhaust.Configure(); err != nil {
		println("[main] exhaust head configure failed:", err.Error())
	}
	return intake, exhaust
}

func setupI2C(hw *machine.I2C, sda, scl machine.Pin) *machine.I2C {
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	_ = hw.Configure(machine.I2CConfig{
		SDA:       sda,
		SCL:       scl,
		Frequency: i2cFrequency,
	})
	return hw
}
