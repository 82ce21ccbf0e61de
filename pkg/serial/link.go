package serial

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ConnectionState represents the lifecycle of the peripheral link
type ConnectionState int

const (
	StateIdle ConnectionState = iota
	StateOpen
	StateClosed
)

// String returns the string representation of ConnectionState
func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Link owns the transport handle for the lifetime of the process.
// It is opened once and closed once; Shutdown is safe to call repeatedly.
type Link struct {
	port   SerialPort
	state  ConnectionState
	logger *zap.Logger

	bytesSent int64
	bytesRecv int64
}

// NewLink wraps a closed port
func NewLink(port SerialPort, logger *zap.Logger) *Link {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Link{
		port:   port,
		state:  StateIdle,
		logger: logger,
	}
}

// Open opens the underlying port. A link can only be opened from the idle state.
func (l *Link) Open(config SerialConfig) error {
	if l.state != StateIdle {
		return fmt.Errorf("link cannot be opened in state %s", l.state)
	}

	if err := l.port.Open(config); err != nil {
		return err
	}

	l.state = StateOpen
	l.logger.Info("serial link open",
		zap.String("port", config.Port),
		zap.String("settings", config.Settings()),
		zap.String("driver", config.Driver))

	return nil
}

// Shutdown closes the port if it is still open and moves the link to the closed state.
func (l *Link) Shutdown() error {
	if l.state != StateOpen {
		l.state = StateClosed
		return nil
	}

	l.state = StateClosed
	if err := l.port.Close(); err != nil {
		l.logger.Warn("closing serial link", zap.Error(err))
		return err
	}

	l.logger.Info("serial link closed",
		zap.Int64("bytes_sent", l.bytesSent),
		zap.Int64("bytes_recv", l.bytesRecv))
	return nil
}

// State returns the current lifecycle state
func (l *Link) State() ConnectionState {
	return l.state
}

// Write writes to the port while the link is open
func (l *Link) Write(data []byte) (int, error) {
	if l.state != StateOpen {
		return 0, fmt.Errorf("link is %s", l.state)
	}

	n, err := l.port.Write(data)
	l.bytesSent += int64(n)
	return n, err
}

// ReadBytes reads from the port while the link is open
func (l *Link) ReadBytes(n int, timeout time.Duration) ([]byte, error) {
	if l.state != StateOpen {
		return nil, fmt.Errorf("link is %s", l.state)
	}

	data, err := l.port.ReadBytes(n, timeout)
	l.bytesRecv += int64(len(data))
	return data, err
}

// Stats returns the byte counters since the link was opened
func (l *Link) Stats() (bytesSent, bytesRecv int64) {
	return l.bytesSent, l.bytesRecv
}

// Config returns the configuration the port was opened with
func (l *Link) Config() SerialConfig {
	return l.port.GetConfig()
}
