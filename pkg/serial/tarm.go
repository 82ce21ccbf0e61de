package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	tarm "github.com/tarm/serial"
)

// TarmSerialPort implements SerialPort using github.com/tarm/serial.
//
// tarm fixes the read timeout when the port is opened and rounds it up to
// whole deciseconds on POSIX systems, so the timeout passed to ReadBytes is
// ignored and config.Timeout applies to every read.
type TarmSerialPort struct {
	port   *tarm.Port
	config SerialConfig
	isOpen bool
}

// NewTarmSerialPort creates a closed tarm-backed port
func NewTarmSerialPort() *TarmSerialPort {
	return &TarmSerialPort{}
}

// Open opens the serial port with the given configuration
func (tp *TarmSerialPort) Open(config SerialConfig) error {
	if tp.isOpen {
		return fmt.Errorf("serial port is already open")
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	port, err := tarm.OpenPort(tarmConfig(config))
	if err != nil {
		return NewSerialError("open", config.Port, err)
	}

	tp.port = port
	tp.config = config
	tp.isOpen = true

	return nil
}

// Close closes the serial port
func (tp *TarmSerialPort) Close() error {
	if !tp.isOpen {
		return fmt.Errorf("serial port is not open")
	}

	err := tp.port.Close()
	tp.port = nil
	tp.isOpen = false

	if err != nil {
		return NewSerialError("close", tp.config.Port, err)
	}

	return nil
}

// ReadBytes reads up to n bytes within the timeout configured at Open
func (tp *TarmSerialPort) ReadBytes(n int, _ time.Duration) ([]byte, error) {
	if !tp.isOpen {
		return nil, fmt.Errorf("serial port is not open")
	}

	buf := make([]byte, n)
	read, err := tp.port.Read(buf)
	if err != nil {
		// os.File reports an expired VTIME read as EOF
		if errors.Is(err, io.EOF) {
			return buf[:read], nil
		}
		return buf[:read], NewSerialError("read", tp.config.Port, err)
	}

	return buf[:read], nil
}

// Write writes data to the serial port
func (tp *TarmSerialPort) Write(data []byte) (int, error) {
	if !tp.isOpen {
		return 0, fmt.Errorf("serial port is not open")
	}

	n, err := tp.port.Write(data)
	if err != nil {
		return n, NewSerialError("write", tp.config.Port, err)
	}

	return n, nil
}

// IsOpen returns true if the serial port is open
func (tp *TarmSerialPort) IsOpen() bool {
	return tp.isOpen
}

// GetConfig returns the current serial port configuration
func (tp *TarmSerialPort) GetConfig() SerialConfig {
	return tp.config
}

func tarmConfig(config SerialConfig) *tarm.Config {
	c := &tarm.Config{
		Name:        config.Port,
		Baud:        config.BaudRate,
		ReadTimeout: config.Timeout,
		Size:        byte(config.DataBits),
		StopBits:    tarm.Stop1,
		Parity:      tarm.ParityNone,
	}

	if config.StopBits == 2 {
		c.StopBits = tarm.Stop2
	}

	switch config.Parity {
	case "odd":
		c.Parity = tarm.ParityOdd
	case "even":
		c.Parity = tarm.ParityEven
	case "mark":
		c.Parity = tarm.ParityMark
	case "space":
		c.Parity = tarm.ParitySpace
	}

	return c
}
