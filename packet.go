package gosvl

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxData is bound by the u16 length prefix which also covers the command
// byte and the two CRC bytes.
const maxData = 0xFFFF - 3

// Packet is one unit of exchange with the bootloader.
//
// TimedOut and CRC must be checked before Command or Data are interpreted:
// a timed-out packet carries no meaningful fields, and a nonzero CRC residue
// means the payload was corrupted in transit.
type Packet struct {
	Command  Command
	Data     []byte
	CRC      uint16 // checksum residue over the full payload, 0 when intact
	TimedOut bool
}

// NewPacket returns a packet ready for transmission. CRC and TimedOut are
// only meaningful on received packets.
func NewPacket(cmd Command, data []byte) *Packet {
	return &Packet{Command: cmd, Data: data}
}

// MarshalBinary renders the full wire image of the packet:
//
//	[ length: u16 ][ command: u8 ][ data ][ crc16: u16 ]
//
// with all multi-byte integers big-endian and length = 3 + len(data).
func (p *Packet) MarshalBinary() ([]byte, error) {
	if len(p.Data) > maxData {
		return nil, fmt.Errorf("data too large: %d bytes", len(p.Data))
	}
	payload := make([]byte, 0, 3+len(p.Data))
	payload = append(payload, byte(p.Command))
	payload = append(payload, p.Data...)
	crc := Checksum(payload)
	payload = append(payload, byte(crc>>8), byte(crc))

	out := make([]byte, 2, 2+len(payload))
	binary.BigEndian.PutUint16(out, uint16(len(payload)))
	return append(out, payload...), nil
}

// WritePacket encodes and sends a packet. The length prefix and the payload
// go out as two separate writes; the device reads the length first, so the
// split is part of the wire contract.
func WritePacket(w io.Writer, cmd Command, data []byte) error {
	wire, err := NewPacket(cmd, data).MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(wire[:2]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := w.Write(wire[2:]); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// ReadPacket decodes one packet from the device. Short reads are reported
// through Packet.TimedOut, not as an error; the returned error is reserved
// for hard transport failures. A declared length of zero decodes to a benign
// empty packet.
func ReadPacket(r io.Reader) (*Packet, error) {
	p := &Packet{TimedOut: true}

	var hdr [2]byte
	n, err := readFull(r, hdr[:])
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return p, nil
	}

	length := int(binary.BigEndian.Uint16(hdr[:]))
	if length == 0 {
		// The bootloader sends empty packets as an idle signal.
		p.TimedOut = false
		return p, nil
	}

	payload := make([]byte, length)
	n, err = readFull(r, payload)
	if err != nil {
		return nil, err
	}
	if n < length {
		return p, nil
	}

	p.TimedOut = false
	p.Command = Command(payload[0])
	if length >= 3 {
		p.Data = payload[1 : length-2]
	}
	p.CRC = Checksum(payload)
	return p, nil
}

// readFull reads until buf is full or the transport's read timeout elapses
// with no data. A zero-byte Read or io.EOF marks the timeout; anything else
// is a hard failure. Each underlying Read blocks at most one timeout
// interval, so reading length and payload may take up to two.
func readFull(r io.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
