package gosvl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty", nil, 0x0000},
		{"zero byte", []byte{0x00}, 0x0000},
		{"baud detect byte", []byte{'U'}, 0x01FE},
		{"check string", []byte("123456789"), 0xFEE8},
		{"upgrade trigger", []byte("Upgrade"), 0x7694},
		{"version packet payload", []byte{0x01, 0x06}, 0x8617},
		{"counting", []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, 0x7F43},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Checksum(tt.data))
			// Deterministic, no internal state
			assert.Equal(t, Checksum(tt.data), Checksum(tt.data))
		})
	}
}

func TestChecksumResidue(t *testing.T) {
	// A payload with its own CRC appended must fold to zero, that is what
	// the receiving side relies on.
	for _, data := range [][]byte{nil, {0x06}, []byte("hello bootloader"), make([]byte, FrameSize)} {
		wire, err := NewPacket(CmdFrame, data).MarshalBinary()
		require.NoError(t, err)
		assert.Zero(t, Checksum(wire[2:]), "payload length %d", len(data))
	}
}
