package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPico = `{
  "fan": {
      "pwm_pin": 12,
      "tach_pin": 13,
      "policy": {
          "cooldown_sec": 900,
          "voc_passive_max": 250,
          "voc_improve_min": 5
      }
  },
  "sensors": {
      "intake_bus": "i2c0",
      "exhaust_bus": "i2c1",
      "period_ms": 1000
  },
  "heartbeat": {
      "interval": 2
  }
}`

const cfgSim = `{
  "fan": {
      "pwm_pin": 12,
      "tach_pin": 13,
      "policy": {
          "cooldown_sec": 2,
          "voc_passive_max": 250,
          "voc_improve_min": 5
      }
  },
  "sensors": {
      "period_ms": 250
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"sim":  []byte(cfgSim),
}
