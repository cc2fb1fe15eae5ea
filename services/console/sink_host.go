//go:build !rp2040

package console

import (
	"io"
	"os"
)

// DefaultSink writes to stdout on hosts.
func DefaultSink() io.Writer {
	return os.Stdout
}
