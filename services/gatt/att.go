// Package gatt implements the fan service's attribute contract on top of
// an abstract BLE host stack. Nothing here is safe for concurrent use:
// the stack dispatches attribute access and send windows on the owning
// service loop, matching the single-threaded host model.
package gatt

import (
	"encoding/binary"
	"errors"
)

// Conn is an HCI connection handle.
type Conn uint16

const ConnInvalid Conn = 0xFFFF

// ATTError is a standard ATT error code, returned to the peer verbatim.
type ATTError uint8

const (
	ErrInvalidOffset               ATTError = 0x07
	ErrAttributeNotFound           ATTError = 0x0A
	ErrInvalidAttributeValueLength ATTError = 0x0D
	ErrUnlikely                    ATTError = 0x0E
)

func (e ATTError) Error() string {
	switch e {
	case ErrInvalidOffset:
		return "att: invalid offset"
	case ErrAttributeNotFound:
		return "att: attribute not found"
	case ErrInvalidAttributeValueLength:
		return "att: invalid attribute value length"
	default:
		return "att: unlikely error"
	}
}

// ErrNotHandled tells the dispatcher this handle belongs to another
// service; it is never sent to the peer.
var ErrNotHandled = errors.New("gatt: attribute not handled")

// CCCD notify bit.
const NotifyFlag uint16 = 0x0001

// readBlob implements standard attribute blob semantics: a nil buffer
// queries the value length, otherwise the value is clipped to the
// requested offset and buffer size.
func readBlob(value []byte, offset uint16, buf []byte) (int, error) {
	if int(offset) > len(value) {
		return 0, ErrInvalidOffset
	}
	if buf == nil {
		return len(value) - int(offset), nil
	}
	return copy(buf, value[offset:]), nil
}

// Exact-length write decoders. Short and long writes alike are rejected.

func exactU8(value []byte) (uint8, error) {
	if len(value) != 1 {
		return 0, ErrInvalidAttributeValueLength
	}
	return value[0], nil
}

func exactU16(value []byte) (uint16, error) {
	if len(value) != 2 {
		return 0, ErrInvalidAttributeValueLength
	}
	return binary.LittleEndian.Uint16(value), nil
}

func u16le(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}
