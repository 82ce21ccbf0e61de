package serial

import (
	"bytes"
	"fmt"
	"sync"
	"time"
)

// SimulatorPortName is reported by the simulator's config
const SimulatorPortName = "simulator"

// Simulator is an in-process stand-in for the lighting peripheral, for dry runs
// without hardware. Its replies use their own format, not the device firmware's.
// Written bytes are line-buffered; each completed line is trimmed and uppercased,
// then answered with "OK <CMD>" when Known accepts it and "ERR" otherwise.
// Blank lines get no reply.
type Simulator struct {
	mu     sync.Mutex
	config SerialConfig
	isOpen bool
	line   []byte
	rx     []byte

	// Known decides whether a normalized command is accepted
	Known func(cmd string) bool
	// LineEnding terminates every reply. With "\r\n" a reader that stops at the CR
	// finds the LF at the start of the next reply.
	LineEnding string
	// Sleep stands in for the read timeout when no byte is pending
	Sleep func(time.Duration)
}

// NewSimulator creates a closed simulator accepting known
func NewSimulator(known func(cmd string) bool) *Simulator {
	return &Simulator{
		Known:      known,
		LineEnding: "\n",
		Sleep:      time.Sleep,
	}
}

// Open opens the simulated port
func (s *Simulator) Open(config SerialConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isOpen {
		return fmt.Errorf("serial port is already open")
	}
	if config.Port == "" {
		config.Port = SimulatorPortName
	}
	s.config = config
	s.isOpen = true
	s.line = s.line[:0]
	s.rx = s.rx[:0]
	return nil
}

// Close closes the simulated port and drops pending bytes
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen {
		return fmt.Errorf("serial port is not open")
	}
	s.isOpen = false
	s.line = nil
	s.rx = nil
	return nil
}

// Write feeds bytes to the simulator
func (s *Simulator) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen {
		return 0, fmt.Errorf("serial port is not open")
	}

	for _, b := range data {
		if b != '\r' && b != '\n' {
			s.line = append(s.line, b)
			continue
		}
		cmd := string(bytes.ToUpper(bytes.TrimSpace(s.line)))
		s.line = s.line[:0]
		if cmd == "" {
			continue
		}
		s.rx = append(s.rx, s.reply(cmd)...)
	}

	return len(data), nil
}

func (s *Simulator) reply(cmd string) string {
	if s.Known != nil && s.Known(cmd) {
		return "OK " + cmd + s.LineEnding
	}
	return "ERR" + s.LineEnding
}

// ReadBytes returns up to n pending reply bytes, or waits out timeout and returns none
func (s *Simulator) ReadBytes(n int, timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	if !s.isOpen {
		s.mu.Unlock()
		return nil, fmt.Errorf("serial port is not open")
	}
	if len(s.rx) == 0 {
		s.mu.Unlock()
		if s.Sleep != nil && timeout > 0 {
			s.Sleep(timeout)
		}
		return []byte{}, nil
	}
	defer s.mu.Unlock()

	if n > len(s.rx) {
		n = len(s.rx)
	}
	data := make([]byte, n)
	copy(data, s.rx[:n])
	s.rx = s.rx[n:]
	return data, nil
}

// IsOpen reports whether the simulator is open
func (s *Simulator) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// GetConfig returns the config passed to Open
func (s *Simulator) GetConfig() SerialConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}
