package gatt

import (
	"encoding/binary"

	"filterfan-go/services/fan"
	"filterfan-go/types"
)

// Characteristic UUIDs, for reference against the GATT database build.
// The short ones are SIG assigned numbers: fan power and the override
// are Percentage 8 at instances 1 and 2, cooldown is Time Second 16.
// The VOC thresholds share a vendor UUID at instances 3 and 4.
const (
	UUIDFanPower            = "2B04"
	UUIDFanPowerOverride    = "2B04"
	UUIDPolicyCooldown      = "2B16"
	UUIDTachometer          = "03f61fe0-9fe7-4516-98e6-056de551687f"
	UUIDFanAggregate        = "75134bec-dd06-49b1-bac2-c15e05fd7199"
	UUIDPolicyVOCPassiveMax = "216aa791-97d0-46ac-8752-60bbc00611e1"
	UUIDPolicyVOCImproveMin = "216aa791-97d0-46ac-8752-60bbc00611e1"
)

// Attribute handles are fixed by the device's GATT database build.
const (
	HandleFanPowerValue            uint16 = 0x0040
	HandleFanPowerUserDesc         uint16 = 0x0041
	HandleFanPowerOverrideValue    uint16 = 0x0042
	HandleFanPowerOverrideUserDesc uint16 = 0x0043
	HandleTachometerValue          uint16 = 0x0044
	HandleTachometerUserDesc       uint16 = 0x0045
	HandleFanAggregateValue        uint16 = 0x0046
	HandleFanAggregateCCC          uint16 = 0x0047
	HandleFanAggregateUserDesc     uint16 = 0x0048
	HandlePolicyCooldownValue      uint16 = 0x0049
	HandlePolicyCooldownUserDesc   uint16 = 0x004A
	HandlePolicyVOCPassiveMaxValue uint16 = 0x004B
	HandlePolicyVOCPassiveMaxDesc  uint16 = 0x004C
	HandlePolicyVOCImproveMinValue uint16 = 0x004D
	HandlePolicyVOCImproveMinDesc  uint16 = 0x004E
)

// FanState is the controller surface the adapter reads and writes. The
// fan service implements it; everything runs on that service's loop.
type FanState interface {
	PowerRaw() types.Percentage8
	Override() types.Percentage8
	SetOverride(types.Percentage8)
	Policy() *fan.Policy
	RPM() types.RPM16
}

// Fan maps attribute handles onto the fan controller and owns the
// aggregate notifier.
type Fan struct {
	state FanState
	stack Stack
	agg   *Notifier
}

func NewFan(stack Stack, state FanState) *Fan {
	f := &Fan{state: state, stack: stack}
	f.agg = NewNotifier(stack, f.sendAggregate)
	return f
}

// AggregateNotify is the coalescing change signal; the fan service calls
// it whenever power, override or the tachometer reading changes.
func (f *Fan) AggregateNotify() { f.agg.Notify() }

// Aggregate returns the 4-byte snapshot {power, override, rpm}, computed
// from current state, little-endian.
func (f *Fan) Aggregate() []byte {
	var b [4]byte
	b[0] = byte(f.state.PowerRaw())
	b[1] = byte(f.state.Override())
	binary.LittleEndian.PutUint16(b[2:], uint16(f.state.RPM()))
	return b[:]
}

func (f *Fan) sendAggregate(conn Conn) {
	_ = f.stack.Notify(conn, HandleFanAggregateValue, f.Aggregate())
}

// Disconnected drops any subscription and pending notification for conn.
func (f *Fan) Disconnected(conn Conn) { f.agg.Disconnected(conn) }

// -----------------------------------------------------------------------------
// Attribute dispatch
// -----------------------------------------------------------------------------

func (f *Fan) AttrRead(conn Conn, attr, offset uint16, buf []byte) (int, error) {
	switch attr {
	case HandleFanPowerUserDesc:
		return readBlob([]byte("Fan %"), offset, buf)
	case HandleFanPowerOverrideUserDesc:
		return readBlob([]byte("Fan % - Override"), offset, buf)
	case HandleTachometerUserDesc:
		return readBlob([]byte("Fan RPM"), offset, buf)
	case HandleFanAggregateUserDesc:
		return readBlob([]byte("Aggregated Service Data"), offset, buf)
	case HandlePolicyCooldownUserDesc:
		return readBlob([]byte("How long to continue filtering after conditions are acceptable"), offset, buf)
	case HandlePolicyVOCPassiveMaxDesc:
		return readBlob([]byte("Filter if any VOC sensor reaches this threshold"), offset, buf)
	case HandlePolicyVOCImproveMinDesc:
		return readBlob([]byte("Filter if intake exceeds exhaust by this threshold"), offset, buf)

	case HandleFanPowerValue:
		return readBlob([]byte{byte(f.state.PowerRaw())}, offset, buf)
	case HandleFanPowerOverrideValue:
		return readBlob([]byte{byte(f.state.Override())}, offset, buf)
	case HandleTachometerValue:
		return readBlob(u16le(uint16(f.state.RPM())), offset, buf)
	case HandleFanAggregateValue:
		return readBlob(f.Aggregate(), offset, buf)
	case HandleFanAggregateCCC:
		return readBlob(u16le(f.agg.ClientConfiguration(conn)), offset, buf)

	case HandlePolicyCooldownValue:
		pol := f.state.Policy()
		if pol == nil {
			return 0, ErrUnlikely
		}
		return readBlob(u16le(pol.CooldownSec), offset, buf)
	case HandlePolicyVOCPassiveMaxValue:
		pol := f.state.Policy()
		if pol == nil {
			return 0, ErrUnlikely
		}
		return readBlob(u16le(pol.VOCPassiveMax), offset, buf)
	case HandlePolicyVOCImproveMinValue:
		pol := f.state.Policy()
		if pol == nil {
			return 0, ErrUnlikely
		}
		return readBlob(u16le(pol.VOCImproveMin), offset, buf)

	default:
		return 0, ErrNotHandled
	}
}

func (f *Fan) AttrWrite(conn Conn, attr, offset uint16, value []byte) error {
	switch attr {
	case HandleFanPowerOverrideValue,
		HandleFanAggregateCCC,
		HandlePolicyCooldownValue,
		HandlePolicyVOCPassiveMaxValue,
		HandlePolicyVOCImproveMinValue:
		// All writable fan attributes are short; partial writes are
		// rejected. Handles we don't own fall through untouched.
		if offset != 0 {
			return ErrInvalidOffset
		}
	default:
		return ErrNotHandled
	}

	switch attr {
	case HandleFanPowerOverrideValue:
		v, err := exactU8(value)
		if err != nil {
			return err
		}
		f.state.SetOverride(types.Percentage8(v))
		return nil

	case HandleFanAggregateCCC:
		return f.agg.WriteClientConfiguration(conn, value)

	case HandlePolicyCooldownValue:
		v, err := exactU16(value)
		if err != nil {
			return err
		}
		pol := f.state.Policy()
		if pol == nil {
			return ErrUnlikely
		}
		// A running activation keeps its timestamp; only the decay
		// horizon moves.
		pol.CooldownSec = v
		return nil

	case HandlePolicyVOCPassiveMaxValue:
		v, err := exactU16(value)
		if err != nil {
			return err
		}
		pol := f.state.Policy()
		if pol == nil {
			return ErrUnlikely
		}
		pol.VOCPassiveMax = v
		return nil

	case HandlePolicyVOCImproveMinValue:
		v, err := exactU16(value)
		if err != nil {
			return err
		}
		pol := f.state.Policy()
		if pol == nil {
			return ErrUnlikely
		}
		pol.VOCImproveMin = v
		return nil

	default:
		return ErrNotHandled
	}
}
