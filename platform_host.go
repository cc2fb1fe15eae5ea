//go:build !rp2040

package main

import (
	"filterfan-go/hal"
	"filterfan-go/services/sensors"
)

func platformDevice() string { return "sim" }

func platformProvider() hal.Provider { return hal.NewSimProvider() }

func platformHeads() (sensors.Head, sensors.Head) {
	return sensors.NewSimHead(), sensors.NewSimHead()
}
