package gosvl

import "io"

// Port is the duplex byte channel to the device. go.bug.st/serial.Port
// satisfies it. The port must be configured with a per-read timeout
// (SetReadTimeout) before it is handed to a Session: a Read that returns
// zero bytes is taken to mean the timeout elapsed with no data.
type Port interface {
	io.ReadWriter
	ResetInputBuffer() error
}
