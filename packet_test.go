package gosvl

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	long := make([]byte, 8000)
	for i := range long {
		long[i] = byte(i * 7)
	}

	tests := []struct {
		name string
		cmd  Command
		data []byte
	}{
		{"empty data", CmdBootload, nil},
		{"single byte", CmdVersion, []byte{0x06}},
		{"ascii", CmdMessage, []byte("flash page written")},
		{"full frame", CmdFrame, long[:FrameSize]},
		{"oversized frame", CmdFrame, long},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WritePacket(&buf, tt.cmd, tt.data))

			p, err := ReadPacket(&buf)
			require.NoError(t, err)
			assert.False(t, p.TimedOut)
			assert.Zero(t, p.CRC, "crc residue must be zero")
			assert.Equal(t, tt.cmd, p.Command)
			assert.Equal(t, len(tt.data), len(p.Data))
			assert.Equal(t, []byte(tt.data), []byte(p.Data))
		})
	}
}

func TestMarshalBinary(t *testing.T) {
	p := NewPacket(CmdVersion, []byte{0x06})
	wire, err := p.MarshalBinary()
	require.NoError(t, err)
	// length 4 = cmd + 1 data byte + 2 crc bytes, crc over {0x01 0x06}
	assert.Equal(t, []byte{0x00, 0x04, 0x01, 0x06, 0x86, 0x17}, wire)

	// Encoding is idempotent
	again, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, wire, again)

	_, err = NewPacket(CmdFrame, make([]byte, maxData+1)).MarshalBinary()
	assert.Error(t, err)
}

func TestReadPacketZeroLength(t *testing.T) {
	p, err := ReadPacket(bytes.NewReader([]byte{0x00, 0x00}))
	require.NoError(t, err)
	assert.False(t, p.TimedOut, "empty packet is a benign idle signal")
	assert.Zero(t, p.CRC)
	assert.Empty(t, p.Data)
}

func TestReadPacketShortHeader(t *testing.T) {
	for _, raw := range [][]byte{nil, {0x00}} {
		p, err := ReadPacket(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.True(t, p.TimedOut)
	}
}

func TestReadPacketTruncatedPayload(t *testing.T) {
	wire, err := NewPacket(CmdMessage, []byte("truncated in transit")).MarshalBinary()
	require.NoError(t, err)

	for cut := 3; cut < len(wire); cut += 5 {
		p, err := ReadPacket(bytes.NewReader(wire[:cut]))
		require.NoError(t, err)
		assert.True(t, p.TimedOut, "cut at %d", cut)
	}
}

func TestReadPacketCorrupted(t *testing.T) {
	wire, err := NewPacket(CmdFrame, []byte{0xDE, 0xAD, 0xBE, 0xEF}).MarshalBinary()
	require.NoError(t, err)
	wire[4] ^= 0x01 // flip a data bit

	p, err := ReadPacket(bytes.NewReader(wire))
	require.NoError(t, err)
	assert.False(t, p.TimedOut)
	assert.NotZero(t, p.CRC, "corruption must leave a nonzero residue")
}

func TestWritePacketSplitsLengthPrefix(t *testing.T) {
	w := &writeRecorder{}
	require.NoError(t, WritePacket(w, CmdBootload, nil))
	require.Len(t, w.writes, 2, "length prefix and payload are separate writes")
	assert.Len(t, w.writes[0], 2)
	assert.Equal(t, uint16(3), binary.BigEndian.Uint16(w.writes[0]))
	assert.Equal(t, []byte{0x02, 0x80, 0x0F}, w.writes[1])
}

type writeRecorder struct {
	writes [][]byte
}

func (w *writeRecorder) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	w.writes = append(w.writes, cp)
	return len(p), nil
}
