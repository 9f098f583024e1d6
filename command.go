package gosvl

// Command is an SVL packet command code.
type Command byte

// Command codes matching the device-side SVL bootloader.
const (
	CmdVersion  Command = 0x01 // bootloader version, device -> host
	CmdBootload Command = 0x02 // enter bootload mode, host -> device
	CmdNext     Command = 0x03 // request next frame, device -> host
	CmdFrame    Command = 0x04 // application data frame, host -> device
	CmdRetry    Command = 0x05 // re-send previous frame, device -> host
	CmdDone     Command = 0x06 // transfer complete, either direction
	CmdMessage  Command = 0x07 // ASCII log/status text, device -> host
	CmdDateTime Command = 0x08 // update date/time, host -> device
)

func (c Command) String() string {
	switch c {
	case CmdVersion:
		return "VER"
	case CmdBootload:
		return "BL"
	case CmdNext:
		return "NEXT"
	case CmdFrame:
		return "FRAME"
	case CmdRetry:
		return "RETRY"
	case CmdDone:
		return "DONE"
	case CmdMessage:
		return "MSG"
	case CmdDateTime:
		return "DATE"
	}
	return "UNKNOWN"
}
