package probe

// Transport abstraction for the probe's TCP byte stream

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// Transport represents the reliable byte stream a session runs over.
// The binary API is strictly synchronous, so ReadFull-with-deadline is
// all the read surface a session needs.
type Transport interface {
	Connect(ctx context.Context, addr string) error
	Disconnect() error
	Send(ctx context.Context, data []byte, timeout time.Duration) error
	ReadFull(ctx context.Context, buf []byte, timeout time.Duration) (int, error)
	IsConnected() bool
}

// TCPTransport implements Transport over a TCP connection.
type TCPTransport struct {
	conn   *net.TCPConn
	addr   string
	connMu sync.RWMutex
}

var _ Transport = (*TCPTransport)(nil)

// NewTCPTransport creates a new TCP transport.
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{}
}

// Connect establishes a TCP connection.
func (t *TCPTransport) Connect(ctx context.Context, addr string) error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.conn != nil {
		return fmt.Errorf("already connected")
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return fmt.Errorf("resolve TCP address: %w", err)
	}

	dialer := net.Dialer{
		Timeout: 5 * time.Second,
	}

	conn, err := dialer.DialContext(ctx, "tcp", tcpAddr.String())
	if err != nil {
		return fmt.Errorf("dial TCP: %w", err)
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return fmt.Errorf("not a TCP connection")
	}

	if err := tcpConn.SetKeepAlive(true); err != nil {
		tcpConn.Close()
		return fmt.Errorf("set keep-alive: %w", err)
	}

	t.conn = tcpConn
	t.addr = addr

	return nil
}

// Disconnect closes the TCP connection.
func (t *TCPTransport) Disconnect() error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.addr = ""

	return err
}

// Send writes a full frame, bounded by the timeout and any context
// deadline, whichever is sooner.
func (t *TCPTransport) Send(ctx context.Context, data []byte, timeout time.Duration) error {
	t.connMu.RLock()
	defer t.connMu.RUnlock()

	if t.conn == nil {
		return ErrNotConnected
	}

	if err := t.conn.SetWriteDeadline(deadline(ctx, timeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	_, err := t.conn.Write(data)
	return err
}

// ReadFull reads exactly len(buf) bytes, bounded by the timeout and any
// context deadline, whichever is sooner.
func (t *TCPTransport) ReadFull(ctx context.Context, buf []byte, timeout time.Duration) (int, error) {
	t.connMu.RLock()
	defer t.connMu.RUnlock()

	if t.conn == nil {
		return 0, ErrNotConnected
	}

	if err := t.conn.SetReadDeadline(deadline(ctx, timeout)); err != nil {
		return 0, fmt.Errorf("set read deadline: %w", err)
	}

	return readFull(t.conn, buf)
}

// IsConnected returns whether the transport is connected.
func (t *TCPTransport) IsConnected() bool {
	t.connMu.RLock()
	defer t.connMu.RUnlock()
	return t.conn != nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		d = ctxDeadline
	}
	return d
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			if total == len(buf) {
				break
			}
			return total, err
		}
	}
	return total, nil
}
