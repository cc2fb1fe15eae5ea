//go:build rp2040

package console

import (
	"io"

	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// DefaultSink opens UART0 on the standard Pico pins at 115200 baud.
// Only TX is used; RX is configured because the UART needs both pins.
func DefaultSink() io.Writer {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	return u
}
