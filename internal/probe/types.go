package probe

// Wire-level types and the error taxonomy for the probe binary API

import (
	"errors"
	"fmt"
)

// DefaultPort is the TCP port the probe serves its binary API on
// (0x4146, "AF").
const DefaultPort = 4146

// Version is the only binary API version this client speaks.
const Version byte = 0x01

// Command opcodes. Reads and writes carry a register select byte;
// writes additionally carry a 4-byte little-endian operand.
const (
	CmdDPRead        byte = 0x00
	CmdDPWrite       byte = 0x01
	CmdAPRead        byte = 0x02
	CmdAPWrite       byte = 0x03
	CmdAPBulkRead    byte = 0x12
	CmdAPBulkWrite   byte = 0x13
	CmdMultiRegWrite byte = 0x14
	CmdPing          byte = 0xF0
	CmdLineReset     byte = 0xF1
	CmdSetSpeed      byte = 0xF3
	CmdDisconnect    byte = 0xFF
)

// Status byte values. Bit 7 flags an error; the low 7 bits are the code.
const (
	StatusOK         byte = 0x00
	StatusErrCommand byte = 0x81
	StatusErrSWD     byte = 0x82
	StatusErrTimeout byte = 0x83
	StatusErrNet     byte = 0x84
	StatusErrAPI     byte = 0x85
)

// MaxBulkWords is the largest word count the probe accepts on a single
// bulk transfer.
const MaxBulkWords = 256

// StatusName returns a display name for a status byte.
func StatusName(status byte) string {
	switch status {
	case StatusOK:
		return "OK"
	case StatusErrCommand:
		return "Command Error"
	case StatusErrSWD:
		return "SWD Error"
	case StatusErrTimeout:
		return "Timeout Error"
	case StatusErrNet:
		return "Network Error"
	case StatusErrAPI:
		return "API Error"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", status)
	}
}

// Speed selects the probe's SWD clock rate.
type Speed byte

const (
	SpeedTurbo  Speed = 0 // 4000 kHz, probe default
	SpeedFast   Speed = 1 // 2000 kHz
	SpeedMedium Speed = 2 // 1000 kHz
	SpeedSlow   Speed = 3 // 500 kHz
)

// SpeedFromKHz maps a clock rate in kHz to the nearest speed setting.
func SpeedFromKHz(khz int) Speed {
	switch {
	case khz <= 750:
		return SpeedSlow
	case khz <= 1500:
		return SpeedMedium
	case khz <= 3000:
		return SpeedFast
	default:
		return SpeedTurbo
	}
}

// KHz returns the clock rate a speed setting selects.
func (s Speed) KHz() int {
	switch s {
	case SpeedSlow:
		return 500
	case SpeedMedium:
		return 1000
	case SpeedFast:
		return 2000
	default:
		return 4000
	}
}

// RegFile names one of the two register files a MultiRegWrite entry
// can target.
type RegFile byte

const (
	RegFileDP RegFile = 0x00
	RegFileAP RegFile = 0x01
)

// RegWrite is one entry of a multi-register write command.
type RegWrite struct {
	File  RegFile
	Reg   uint8
	Value uint32
}

// ErrNotConnected is returned by any operation attempted while the
// session is not in the Connected state.
var ErrNotConnected = errors.New("not connected")

// ErrConnectionClosed is returned when the peer closes the stream before
// a full frame was read. Distinct from a decoded error status.
var ErrConnectionClosed = errors.New("connection closed by peer")

// ErrTimeout is returned when the peer does not respond within the
// configured bound. The session is torn down like any other I/O failure.
var ErrTimeout = errors.New("probe timed out")

// HandshakeError reports a failed version handshake.
type HandshakeError struct {
	Got byte
	Err error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handshake failed: %v", e.Err)
	}
	return fmt.Sprintf("handshake failed: probe sent version 0x%02X, want 0x%02X", e.Got, Version)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// StatusError reports a status byte with the error bit set. It carries
// the operation that was on the wire and the raw code.
type StatusError struct {
	Op     string
	Status byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: probe reported %s (0x%02X)", e.Op, StatusName(e.Status), e.Status)
}

// Code returns the low 7 bits of the status byte.
func (e *StatusError) Code() byte { return e.Status & 0x7F }

// UnrecognizedStatusError reports a status byte with the error bit clear
// but a value other than StatusOK. Not necessarily fatal to the session.
type UnrecognizedStatusError struct {
	Op     string
	Status byte
}

func (e *UnrecognizedStatusError) Error() string {
	return fmt.Sprintf("%s: unrecognized status 0x%02X", e.Op, e.Status)
}
