package gosvl

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout     = errors.New("timeout waiting for packet")
	ErrCRC         = errors.New("packet crc check failed")
	ErrNoVersion   = errors.New("no version packet received in time")
	ErrRetryBudget = errors.New("device exceeded frame resend budget")
	ErrNoImage     = errors.New("no firmware image supplied")
	ErrNoPort      = errors.New("no open port supplied")
)

// UnexpectedCommandError is returned when the device sends a command the
// current phase has no use for.
type UnexpectedCommandError struct {
	Command Command
	Phase   string
}

func (e *UnexpectedCommandError) Error() string {
	return fmt.Sprintf("unexpected command %s (0x%02X) during %s", e.Command, byte(e.Command), e.Phase)
}
