package probe

// Frame encoding and status decoding for the probe binary API

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
)

func appendUint16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// EncodeBare encodes a command with no arguments (line reset, ping,
// disconnect). One byte on the wire.
func EncodeBare(op byte) []byte {
	return []byte{op}
}

// EncodeRegRead encodes a DP or AP register read: opcode + select.
func EncodeRegRead(op byte, reg uint8) []byte {
	return []byte{op, reg}
}

// EncodeRegWrite encodes a DP or AP register write: opcode + select +
// 4-byte little-endian operand.
func EncodeRegWrite(op byte, reg uint8, value uint32) []byte {
	frame := make([]byte, 0, 6)
	frame = append(frame, op, reg)
	return appendUint32(frame, value)
}

// EncodeSetSpeed encodes a set-speed command: opcode + speed byte.
func EncodeSetSpeed(speed Speed) []byte {
	return []byte{CmdSetSpeed, byte(speed)}
}

// EncodeBulkRead encodes an AP bulk read: opcode + select + 2-byte
// little-endian word count.
func EncodeBulkRead(reg uint8, count uint16) ([]byte, error) {
	if count == 0 || count > MaxBulkWords {
		return nil, fmt.Errorf("bulk read count %d out of range [1,%d]", count, MaxBulkWords)
	}
	frame := make([]byte, 0, 4)
	frame = append(frame, CmdAPBulkRead, reg)
	return appendUint16(frame, count), nil
}

// EncodeBulkWrite encodes an AP bulk write: opcode + select + count +
// count words, all little-endian.
func EncodeBulkWrite(reg uint8, words []uint32) ([]byte, error) {
	if len(words) == 0 || len(words) > MaxBulkWords {
		return nil, fmt.Errorf("bulk write count %d out of range [1,%d]", len(words), MaxBulkWords)
	}
	frame := make([]byte, 0, 4+4*len(words))
	frame = append(frame, CmdAPBulkWrite, reg)
	frame = appendUint16(frame, uint16(len(words)))
	for _, w := range words {
		frame = appendUint32(frame, w)
	}
	return frame, nil
}

// EncodeMultiRegWrite encodes a multi-register write: opcode + 2-byte
// count + count entries of (file, select, 4-byte value).
func EncodeMultiRegWrite(writes []RegWrite) ([]byte, error) {
	if len(writes) == 0 || len(writes) > MaxBulkWords {
		return nil, fmt.Errorf("multi-reg write count %d out of range [1,%d]", len(writes), MaxBulkWords)
	}
	frame := make([]byte, 0, 3+6*len(writes))
	frame = append(frame, CmdMultiRegWrite)
	frame = appendUint16(frame, uint16(len(writes)))
	for _, w := range writes {
		frame = append(frame, byte(w.File), w.Reg)
		frame = appendUint32(frame, w.Value)
	}
	return frame, nil
}

// FrameLen returns the encoded length of a command frame beginning with
// the given opcode, excluding any variable tail (bulk data). Used by the
// offline transcript decoder.
func FrameLen(op byte) (int, error) {
	switch op {
	case CmdLineReset, CmdPing, CmdDisconnect:
		return 1, nil
	case CmdDPRead, CmdAPRead:
		return 2, nil
	case CmdSetSpeed:
		return 2, nil
	case CmdDPWrite, CmdAPWrite:
		return 6, nil
	case CmdAPBulkRead, CmdAPBulkWrite:
		return 4, nil
	case CmdMultiRegWrite:
		return 3, nil
	default:
		return 0, fmt.Errorf("unknown opcode 0x%02X", op)
	}
}

// DecodeStatus reads exactly one status byte for the named operation and
// classifies it. On an error status no further bytes are consumed; the
// caller reads any data words itself after a nil return.
func DecodeStatus(r io.Reader, op string) error {
	var status [1]byte
	if _, err := io.ReadFull(r, status[:]); err != nil {
		return classifyIOErr(op, err)
	}
	switch {
	case status[0]&0x80 != 0:
		return &StatusError{Op: op, Status: status[0]}
	case status[0] == StatusOK:
		return nil
	default:
		return &UnrecognizedStatusError{Op: op, Status: status[0]}
	}
}

// ReadDataWord reads the 4-byte little-endian data word that follows a
// successful read status.
func ReadDataWord(r io.Reader, op string) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, classifyIOErr(op, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadBulkData reads the count-prefixed word block that follows a
// successful bulk read status.
func ReadBulkData(r io.Reader, op string) ([]uint32, error) {
	var cnt [2]byte
	if _, err := io.ReadFull(r, cnt[:]); err != nil {
		return nil, classifyIOErr(op, err)
	}
	count := binary.LittleEndian.Uint16(cnt[:])
	if count > MaxBulkWords {
		return nil, fmt.Errorf("%s: probe sent %d words, max %d", op, count, MaxBulkWords)
	}
	buf := make([]byte, 4*int(count))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, classifyIOErr(op, err)
	}
	words := make([]uint32, count)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return words, nil
}

// classifyIOErr maps low-level I/O failures onto the error taxonomy.
// "Peer closed" and "peer did not answer in time" must stay told apart
// from a decoded error status.
func classifyIOErr(op string, err error) error {
	var nerr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%s: %w", op, ErrConnectionClosed)
	case errors.As(err, &nerr) && nerr.Timeout(), errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
