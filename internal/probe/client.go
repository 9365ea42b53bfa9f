package probe

// Client interface and implementation for the probe binary API

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout bounds each wire exchange. The protocol has no liveness
// signal, so an unresponsive probe must never hang the caller.
const DefaultTimeout = 5 * time.Second

// SessionState is the lifecycle state of a binary API session.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateHandshaking
	StateConnected
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Client is the DP/AP command surface of one probe session. A Client is
// not safe for concurrent use; the protocol allows exactly one
// outstanding command, and each caller owns its own session.
type Client interface {
	Connect(ctx context.Context, host string, port int) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	State() SessionState

	DPRead(ctx context.Context, reg uint8) (uint32, error)
	DPWrite(ctx context.Context, reg uint8, value uint32) error
	APRead(ctx context.Context, reg uint8) (uint32, error)
	APWrite(ctx context.Context, reg uint8, value uint32) error
	LineReset(ctx context.Context) error

	Ping(ctx context.Context) error
	SetSpeed(ctx context.Context, speed Speed) error
	APBulkRead(ctx context.Context, reg uint8, count uint16) ([]uint32, error)
	APBulkWrite(ctx context.Context, reg uint8, words []uint32) error
	MultiRegWrite(ctx context.Context, writes []RegWrite) error
}

// BinaryClient implements Client over a Transport.
type BinaryClient struct {
	transport Transport
	timeout   time.Duration
	state     SessionState
	addr      string
}

var _ Client = (*BinaryClient)(nil)

// NewClient creates a client with the default TCP transport. A zero
// timeout selects DefaultTimeout.
func NewClient(timeout time.Duration) *BinaryClient {
	return NewClientWithTransport(NewTCPTransport(), timeout)
}

// NewClientWithTransport creates a client over the given transport.
func NewClientWithTransport(t Transport, timeout time.Duration) *BinaryClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BinaryClient{
		transport: t,
		timeout:   timeout,
		state:     StateDisconnected,
	}
}

// State returns the session lifecycle state.
func (c *BinaryClient) State() SessionState { return c.state }

// IsConnected reports whether command exchanges are currently possible.
func (c *BinaryClient) IsConnected() bool { return c.state == StateConnected }

// Connect opens the byte stream and performs the version handshake. The
// probe sends one version byte; the client accepts only Version and
// echoes it back. Any other value, or a stream that closes first, fails
// the handshake and leaves the session disconnected.
func (c *BinaryClient) Connect(ctx context.Context, host string, port int) error {
	if c.state != StateDisconnected {
		return fmt.Errorf("connect: session is %s", c.state)
	}
	if port == 0 {
		port = DefaultPort
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	if err := c.transport.Connect(ctx, addr); err != nil {
		return fmt.Errorf("transport connect: %w", err)
	}
	c.state = StateHandshaking

	var version [1]byte
	if _, err := c.transport.ReadFull(ctx, version[:], c.timeout); err != nil {
		c.transport.Disconnect()
		c.state = StateDisconnected
		return &HandshakeError{Err: classifyIOErr("handshake", err)}
	}
	if version[0] != Version {
		c.transport.Disconnect()
		c.state = StateDisconnected
		return &HandshakeError{Got: version[0]}
	}
	if err := c.transport.Send(ctx, []byte{Version}, c.timeout); err != nil {
		c.transport.Disconnect()
		c.state = StateDisconnected
		return &HandshakeError{Got: version[0], Err: fmt.Errorf("echo version: %w", err)}
	}

	c.state = StateConnected
	c.addr = addr
	return nil
}

// Disconnect sends the disconnect opcode, reads the acknowledgement
// best-effort, and releases the connection. It runs to completion on
// every path, including after earlier command failures.
func (c *BinaryClient) Disconnect(ctx context.Context) error {
	if c.state == StateDisconnected {
		return nil
	}

	if c.state == StateConnected {
		c.state = StateDisconnecting
		// Failure to deliver or acknowledge the goodbye is not escalated.
		if err := c.transport.Send(ctx, EncodeBare(CmdDisconnect), c.timeout); err == nil {
			var ack [1]byte
			_, _ = c.transport.ReadFull(ctx, ack[:], c.timeout)
		}
	}

	err := c.transport.Disconnect()
	c.state = StateDisconnected
	c.addr = ""
	return err
}

// fail tears the session down after an I/O failure. Every subsequent
// operation reports ErrNotConnected until a new Connect succeeds.
func (c *BinaryClient) fail(op string, err error) error {
	c.transport.Disconnect()
	c.state = StateDisconnected
	return classifyIOErr(op, err)
}

// exchange writes one frame and decodes its status byte. The response
// body, if any, is read by the caller through the returned reader.
func (c *BinaryClient) exchange(ctx context.Context, op string, frame []byte) (*transportReader, error) {
	if c.state != StateConnected {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConnected)
	}
	if err := c.transport.Send(ctx, frame, c.timeout); err != nil {
		return nil, c.fail(op, err)
	}
	r := &transportReader{ctx: ctx, t: c.transport, timeout: c.timeout}
	if err := DecodeStatus(r, op); err != nil {
		// A decoded error status leaves the stream in sync; only I/O
		// level failures force the session down.
		switch err.(type) {
		case *StatusError, *UnrecognizedStatusError:
			return nil, err
		}
		c.transport.Disconnect()
		c.state = StateDisconnected
		return nil, err
	}
	return r, nil
}

// DPRead reads a debug port register.
func (c *BinaryClient) DPRead(ctx context.Context, reg uint8) (uint32, error) {
	op := fmt.Sprintf("DP read 0x%02X", reg)
	r, err := c.exchange(ctx, op, EncodeRegRead(CmdDPRead, reg))
	if err != nil {
		return 0, err
	}
	return c.readWord(r, op)
}

// DPWrite writes a debug port register.
func (c *BinaryClient) DPWrite(ctx context.Context, reg uint8, value uint32) error {
	op := fmt.Sprintf("DP write 0x%02X", reg)
	_, err := c.exchange(ctx, op, EncodeRegWrite(CmdDPWrite, reg, value))
	return err
}

// APRead reads an access port register.
func (c *BinaryClient) APRead(ctx context.Context, reg uint8) (uint32, error) {
	op := fmt.Sprintf("AP read 0x%02X", reg)
	r, err := c.exchange(ctx, op, EncodeRegRead(CmdAPRead, reg))
	if err != nil {
		return 0, err
	}
	return c.readWord(r, op)
}

// APWrite writes an access port register.
func (c *BinaryClient) APWrite(ctx context.Context, reg uint8, value uint32) error {
	op := fmt.Sprintf("AP write 0x%02X", reg)
	_, err := c.exchange(ctx, op, EncodeRegWrite(CmdAPWrite, reg, value))
	return err
}

// LineReset asks the probe to reset the target's SWD line and
// re-establish the link.
func (c *BinaryClient) LineReset(ctx context.Context) error {
	_, err := c.exchange(ctx, "line reset", EncodeBare(CmdLineReset))
	return err
}

// Ping checks probe liveness without touching the target.
func (c *BinaryClient) Ping(ctx context.Context) error {
	_, err := c.exchange(ctx, "ping", EncodeBare(CmdPing))
	return err
}

// SetSpeed selects the probe's SWD clock rate.
func (c *BinaryClient) SetSpeed(ctx context.Context, speed Speed) error {
	op := fmt.Sprintf("set speed %dkHz", speed.KHz())
	_, err := c.exchange(ctx, op, EncodeSetSpeed(speed))
	return err
}

// APBulkRead reads count words from an AP register. The probe applies
// TAR auto-increment, so with CSW configured this streams memory.
func (c *BinaryClient) APBulkRead(ctx context.Context, reg uint8, count uint16) ([]uint32, error) {
	op := fmt.Sprintf("AP bulk read 0x%02X x%d", reg, count)
	frame, err := EncodeBulkRead(reg, count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r, err := c.exchange(ctx, op, frame)
	if err != nil {
		return nil, err
	}
	words, err := ReadBulkData(r, op)
	if err != nil {
		return nil, c.fail(op, err)
	}
	return words, nil
}

// APBulkWrite writes words to an AP register with auto-increment.
func (c *BinaryClient) APBulkWrite(ctx context.Context, reg uint8, words []uint32) error {
	op := fmt.Sprintf("AP bulk write 0x%02X x%d", reg, len(words))
	frame, err := EncodeBulkWrite(reg, words)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.exchange(ctx, op, frame)
	return err
}

// MultiRegWrite performs a batched sequence of DP/AP register writes in
// a single round trip. The probe applies them strictly in order.
func (c *BinaryClient) MultiRegWrite(ctx context.Context, writes []RegWrite) error {
	op := fmt.Sprintf("multi-reg write x%d", len(writes))
	frame, err := EncodeMultiRegWrite(writes)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.exchange(ctx, op, frame)
	return err
}

func (c *BinaryClient) readWord(r *transportReader, op string) (uint32, error) {
	value, err := ReadDataWord(r, op)
	if err != nil {
		return 0, c.fail(op, err)
	}
	return value, nil
}

// transportReader adapts Transport to io.Reader for the decode helpers.
// Every Read fills the buffer completely or fails.
type transportReader struct {
	ctx     context.Context
	t       Transport
	timeout time.Duration
}

func (r *transportReader) Read(p []byte) (int, error) {
	return r.t.ReadFull(r.ctx, p, r.timeout)
}
