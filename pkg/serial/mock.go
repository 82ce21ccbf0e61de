package serial

import (
	"bytes"
	"fmt"
	"time"
)

// MockSerialPort is an in-memory SerialPort for tests.
// Bytes queued with Feed are handed out by ReadBytes; writes are captured.
type MockSerialPort struct {
	config  SerialConfig
	isOpen  bool
	rx      []byte
	written bytes.Buffer

	// OpenErr and ReadErr, when set, are returned by Open and ReadBytes.
	OpenErr error
	ReadErr error

	// OnWrite, when set, is called with every write and may queue a reply.
	OnWrite func(m *MockSerialPort, data []byte)

	CloseCalls   int
	ReadCalls    int
	ReadTimeouts []time.Duration
}

// NewMockSerialPort creates a closed mock port
func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

// Feed queues bytes to be returned by later reads
func (m *MockSerialPort) Feed(data []byte) {
	m.rx = append(m.rx, data...)
}

// Written returns everything written so far
func (m *MockSerialPort) Written() []byte {
	return m.written.Bytes()
}

// Open marks the port open
func (m *MockSerialPort) Open(config SerialConfig) error {
	if m.isOpen {
		return fmt.Errorf("serial port is already open")
	}
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.config = config
	m.isOpen = true
	return nil
}

// Close marks the port closed and counts the call
func (m *MockSerialPort) Close() error {
	m.CloseCalls++
	if !m.isOpen {
		return fmt.Errorf("serial port is not open")
	}
	m.isOpen = false
	return nil
}

// Write captures data
func (m *MockSerialPort) Write(data []byte) (int, error) {
	if !m.isOpen {
		return 0, fmt.Errorf("serial port is not open")
	}
	m.written.Write(data)
	if m.OnWrite != nil {
		m.OnWrite(m, data)
	}
	return len(data), nil
}

// ReadBytes returns up to n queued bytes without blocking
func (m *MockSerialPort) ReadBytes(n int, timeout time.Duration) ([]byte, error) {
	m.ReadCalls++
	m.ReadTimeouts = append(m.ReadTimeouts, timeout)
	if !m.isOpen {
		return nil, fmt.Errorf("serial port is not open")
	}
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if n > len(m.rx) {
		n = len(m.rx)
	}
	data := make([]byte, n)
	copy(data, m.rx[:n])
	m.rx = m.rx[n:]
	return data, nil
}

// IsOpen reports whether the mock is open
func (m *MockSerialPort) IsOpen() bool {
	return m.isOpen
}

// GetConfig returns the config passed to Open
func (m *MockSerialPort) GetConfig() SerialConfig {
	return m.config
}
