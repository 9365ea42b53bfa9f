package scenario

import (
	"context"
	"fmt"
	"sync"

	"github.com/kmoriarty/airprobe/internal/probe"
)

// MockClient is a scriptable implementation of probe.Client for tests.
// Errors are injected by call key; keys may be exact ("ap_write
// 0x04=0xE000ED0C") or register-wide ("ap_write 0x04"). Every call is
// appended to Calls so ordering invariants can be asserted.
type MockClient struct {
	mu         sync.Mutex
	connected  bool
	connectErr error
	readValues map[string]uint32
	errs       map[string]error
	errAfter   map[string]int // matching calls to allow before failing
	Calls      []string
}

var _ probe.Client = (*MockClient)(nil)

// NewMockClient creates a mock client with empty scripts.
func NewMockClient() *MockClient {
	return &MockClient{
		readValues: make(map[string]uint32),
		errs:       make(map[string]error),
		errAfter:   make(map[string]int),
	}
}

// FailConnect makes Connect return err.
func (m *MockClient) FailConnect(err error) { m.connectErr = err }

// SetReadValue scripts the value returned for a read key.
func (m *MockClient) SetReadValue(key string, value uint32) { m.readValues[key] = value }

// FailOn injects an error for every call matching key.
func (m *MockClient) FailOn(key string, err error) { m.errs[key] = err }

// FailOnAfter injects an error for calls matching key once n matching
// calls have already succeeded.
func (m *MockClient) FailOnAfter(key string, n int, err error) {
	m.errs[key] = err
	m.errAfter[key] = n
}

func (m *MockClient) record(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, keys[0])
	for _, key := range keys {
		err, ok := m.errs[key]
		if !ok {
			continue
		}
		if allow := m.errAfter[key]; allow > 0 {
			m.errAfter[key] = allow - 1
			continue
		}
		return err
	}
	return nil
}

// Connect simulates a connection.
func (m *MockClient) Connect(ctx context.Context, host string, port int) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

// Disconnect simulates a disconnection.
func (m *MockClient) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.Calls = append(m.Calls, "disconnect")
	return nil
}

// IsConnected reports the mock session state.
func (m *MockClient) IsConnected() bool { return m.connected }

// State reports the mock session state.
func (m *MockClient) State() probe.SessionState {
	if m.connected {
		return probe.StateConnected
	}
	return probe.StateDisconnected
}

// DPRead returns the scripted value for the register.
func (m *MockClient) DPRead(ctx context.Context, reg uint8) (uint32, error) {
	key := fmt.Sprintf("dp_read 0x%02X", reg)
	if err := m.record(key); err != nil {
		return 0, err
	}
	return m.readValues[key], nil
}

// DPWrite records the write.
func (m *MockClient) DPWrite(ctx context.Context, reg uint8, value uint32) error {
	return m.record(
		fmt.Sprintf("dp_write 0x%02X=0x%08X", reg, value),
		fmt.Sprintf("dp_write 0x%02X", reg),
	)
}

// APRead returns the scripted value for the register.
func (m *MockClient) APRead(ctx context.Context, reg uint8) (uint32, error) {
	key := fmt.Sprintf("ap_read 0x%02X", reg)
	if err := m.record(key); err != nil {
		return 0, err
	}
	return m.readValues[key], nil
}

// APWrite records the write.
func (m *MockClient) APWrite(ctx context.Context, reg uint8, value uint32) error {
	return m.record(
		fmt.Sprintf("ap_write 0x%02X=0x%08X", reg, value),
		fmt.Sprintf("ap_write 0x%02X", reg),
	)
}

// LineReset records the call.
func (m *MockClient) LineReset(ctx context.Context) error {
	return m.record("line_reset")
}

// Ping records the call.
func (m *MockClient) Ping(ctx context.Context) error {
	return m.record("ping")
}

// SetSpeed records the call.
func (m *MockClient) SetSpeed(ctx context.Context, speed probe.Speed) error {
	return m.record(fmt.Sprintf("set_speed %d", speed))
}

// APBulkRead returns count copies of the scripted value.
func (m *MockClient) APBulkRead(ctx context.Context, reg uint8, count uint16) ([]uint32, error) {
	key := fmt.Sprintf("ap_bulk_read 0x%02X", reg)
	if err := m.record(key); err != nil {
		return nil, err
	}
	words := make([]uint32, count)
	for i := range words {
		words[i] = m.readValues[key]
	}
	return words, nil
}

// APBulkWrite records the call.
func (m *MockClient) APBulkWrite(ctx context.Context, reg uint8, words []uint32) error {
	return m.record(fmt.Sprintf("ap_bulk_write 0x%02X x%d", reg, len(words)))
}

// MultiRegWrite records the call.
func (m *MockClient) MultiRegWrite(ctx context.Context, writes []probe.RegWrite) error {
	return m.record(fmt.Sprintf("multi_reg_write x%d", len(writes)))
}
