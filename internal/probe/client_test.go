package probe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

// fakeTransport is a scripted Transport. Response bytes are consumed in
// order; sent frames are recorded for assertions.
type fakeTransport struct {
	connected  bool
	connectErr error
	sendErr    error
	responses  *bytes.Buffer
	sent       [][]byte
}

func newFakeTransport(responses ...byte) *fakeTransport {
	return &fakeTransport{responses: bytes.NewBuffer(responses)}
}

func (f *fakeTransport) Connect(ctx context.Context, addr string) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.connected = false
	return nil
}

func (f *fakeTransport) Send(ctx context.Context, data []byte, timeout time.Duration) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeTransport) ReadFull(ctx context.Context, buf []byte, timeout time.Duration) (int, error) {
	n, err := io.ReadFull(f.responses, buf)
	return n, err
}

func (f *fakeTransport) IsConnected() bool { return f.connected }

func connectedClient(t *testing.T, responses ...byte) (*BinaryClient, *fakeTransport) {
	t.Helper()
	script := append([]byte{Version}, responses...)
	ft := newFakeTransport(script...)
	client := NewClientWithTransport(ft, time.Second)
	if err := client.Connect(context.Background(), "probe.local", 0); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	// Drop the recorded version echo so tests see only command frames.
	ft.sent = nil
	return client, ft
}

func TestConnectHandshake(t *testing.T) {
	ft := newFakeTransport(Version)
	client := NewClientWithTransport(ft, time.Second)

	if err := client.Connect(context.Background(), "probe.local", 0); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if client.State() != StateConnected {
		t.Errorf("State() = %v, want connected", client.State())
	}
	if len(ft.sent) != 1 || !bytes.Equal(ft.sent[0], []byte{Version}) {
		t.Errorf("echo = %v, want [0x01]", ft.sent)
	}
}

func TestConnectRejectsWrongVersion(t *testing.T) {
	ft := newFakeTransport(0x02)
	client := NewClientWithTransport(ft, time.Second)

	err := client.Connect(context.Background(), "probe.local", 0)
	var herr *HandshakeError
	if !errors.As(err, &herr) {
		t.Fatalf("error %v is not a HandshakeError", err)
	}
	if herr.Got != 0x02 {
		t.Errorf("Got = 0x%02X, want 0x02", herr.Got)
	}
	if client.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", client.State())
	}
	if ft.connected {
		t.Error("transport still connected after failed handshake")
	}
}

func TestConnectPeerClosesBeforeVersion(t *testing.T) {
	ft := newFakeTransport() // no version byte
	client := NewClientWithTransport(ft, time.Second)

	err := client.Connect(context.Background(), "probe.local", 0)
	var herr *HandshakeError
	if !errors.As(err, &herr) {
		t.Fatalf("error %v is not a HandshakeError", err)
	}
	if !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("error %v does not wrap ErrConnectionClosed", err)
	}
	if client.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", client.State())
	}
}

func TestConnectWhileConnected(t *testing.T) {
	client, _ := connectedClient(t)
	if err := client.Connect(context.Background(), "probe.local", 0); err == nil {
		t.Error("second Connect() expected error")
	}
}

func TestOperationsRequireConnection(t *testing.T) {
	client := NewClientWithTransport(newFakeTransport(), time.Second)
	_, err := client.DPRead(context.Background(), 0x00)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("DPRead error = %v, want ErrNotConnected", err)
	}
	if err := client.Ping(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Ping error = %v, want ErrNotConnected", err)
	}
}

func TestDPReadSuccess(t *testing.T) {
	client, ft := connectedClient(t, 0x00, 0x77, 0x14, 0xB1, 0x2B)

	value, err := client.DPRead(context.Background(), 0x00)
	if err != nil {
		t.Fatalf("DPRead() error = %v", err)
	}
	if value != 0x2BB11477 {
		t.Errorf("value = 0x%08X, want 0x2BB11477", value)
	}
	if len(ft.sent) != 1 || !bytes.Equal(ft.sent[0], []byte{0x00, 0x00}) {
		t.Errorf("sent = % X, want 00 00", ft.sent)
	}
}

func TestAPWriteSuccess(t *testing.T) {
	client, ft := connectedClient(t, 0x00)

	if err := client.APWrite(context.Background(), 0x04, 0xE000ED0C); err != nil {
		t.Fatalf("APWrite() error = %v", err)
	}
	want := []byte{0x03, 0x04, 0x0C, 0xED, 0x00, 0xE0}
	if len(ft.sent) != 1 || !bytes.Equal(ft.sent[0], want) {
		t.Errorf("sent = % X, want % X", ft.sent, want)
	}
}

func TestErrorStatusKeepsSessionUp(t *testing.T) {
	client, _ := connectedClient(t, 0x82, 0x00)

	_, err := client.APRead(context.Background(), 0x0C)
	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("error %v is not a StatusError", err)
	}
	if client.State() != StateConnected {
		t.Errorf("State() = %v, want connected after decoded error status", client.State())
	}

	// The stream stays in sync: the next command still works.
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() after error status = %v", err)
	}
}

func TestPeerCloseTearsSessionDown(t *testing.T) {
	client, _ := connectedClient(t) // no response bytes at all

	_, err := client.DPRead(context.Background(), 0x00)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("error = %v, want ErrConnectionClosed", err)
	}
	if client.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", client.State())
	}
	if _, err := client.DPRead(context.Background(), 0x00); !errors.Is(err, ErrNotConnected) {
		t.Errorf("subsequent DPRead error = %v, want ErrNotConnected", err)
	}
}

func TestTruncatedDataWordTearsSessionDown(t *testing.T) {
	client, _ := connectedClient(t, 0x00, 0x77, 0x14) // OK status, short word

	_, err := client.DPRead(context.Background(), 0x00)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("error = %v, want ErrConnectionClosed", err)
	}
	if client.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", client.State())
	}
}

func TestDisconnectSendsGoodbye(t *testing.T) {
	client, ft := connectedClient(t, 0x00) // ack for disconnect

	if err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if client.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", client.State())
	}
	if len(ft.sent) != 1 || !bytes.Equal(ft.sent[0], []byte{0xFF}) {
		t.Errorf("sent = % X, want FF", ft.sent)
	}
	if ft.connected {
		t.Error("transport still connected")
	}
}

func TestDisconnectWhenAlreadyDisconnected(t *testing.T) {
	client := NewClientWithTransport(newFakeTransport(), time.Second)
	if err := client.Disconnect(context.Background()); err != nil {
		t.Errorf("Disconnect() on idle client = %v", err)
	}
}

func TestDisconnectReleasesEvenWithoutAck(t *testing.T) {
	client, ft := connectedClient(t) // peer never acks

	if err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if client.State() != StateDisconnected || ft.connected {
		t.Error("session not fully released")
	}
}

func TestAPBulkReadSuccess(t *testing.T) {
	client, ft := connectedClient(t,
		0x00,       // status
		0x02, 0x00, // count
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
	)

	words, err := client.APBulkRead(context.Background(), 0x0C, 2)
	if err != nil {
		t.Fatalf("APBulkRead() error = %v", err)
	}
	if len(words) != 2 || words[0] != 1 || words[1] != 2 {
		t.Errorf("words = %v, want [1 2]", words)
	}
	want := []byte{0x12, 0x0C, 0x02, 0x00}
	if len(ft.sent) != 1 || !bytes.Equal(ft.sent[0], want) {
		t.Errorf("sent = % X, want % X", ft.sent, want)
	}
}

func TestAPBulkReadRejectsBadCount(t *testing.T) {
	client, _ := connectedClient(t)
	if _, err := client.APBulkRead(context.Background(), 0x0C, 0); err == nil {
		t.Error("APBulkRead(0) expected error")
	}
	if client.State() != StateConnected {
		t.Error("local validation error must not drop the session")
	}
}

func TestMultiRegWrite(t *testing.T) {
	client, ft := connectedClient(t, 0x00)

	writes := []RegWrite{
		{File: RegFileDP, Reg: 0x08, Value: 0x00000000},
		{File: RegFileAP, Reg: 0x04, Value: 0xE000EDF0},
	}
	if err := client.MultiRegWrite(context.Background(), writes); err != nil {
		t.Fatalf("MultiRegWrite() error = %v", err)
	}
	if len(ft.sent) != 1 || ft.sent[0][0] != CmdMultiRegWrite {
		t.Errorf("sent = % X", ft.sent)
	}
}
