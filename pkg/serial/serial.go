// Package serial provides the serial transport used to talk to the lighting peripheral
package serial

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Driver names accepted in SerialConfig.Driver
const (
	DriverBugst = "bugst"
	DriverTarm  = "tarm"
)

// SerialConfig defines the configuration for serial port communication
type SerialConfig struct {
	Port     string        `json:"port" mapstructure:"port"`
	BaudRate int           `json:"baud_rate" mapstructure:"baud_rate"`
	DataBits int           `json:"data_bits" mapstructure:"data_bits"`
	StopBits int           `json:"stop_bits" mapstructure:"stop_bits"`
	Parity   string        `json:"parity" mapstructure:"parity"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
	Driver   string        `json:"driver" mapstructure:"driver"`
}

// Validate checks if the serial configuration is valid
func (c SerialConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	validBaudRates := []int{9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600}
	validBaud := false
	for _, rate := range validBaudRates {
		if c.BaudRate == rate {
			validBaud = true
			break
		}
	}
	if !validBaud {
		return fmt.Errorf("invalid baud rate: %d", c.BaudRate)
	}

	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("data bits must be between 5 and 8, got: %d", c.DataBits)
	}

	if c.StopBits < 1 || c.StopBits > 2 {
		return fmt.Errorf("stop bits must be 1 or 2, got: %d", c.StopBits)
	}

	switch c.Parity {
	case "none", "odd", "even", "mark", "space":
	default:
		return fmt.Errorf("invalid parity: %s", c.Parity)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	switch c.Driver {
	case "", DriverBugst, DriverTarm:
	default:
		return fmt.Errorf("unknown serial driver: %s", c.Driver)
	}

	// tarm turns a zero timeout into a read that blocks until a byte arrives
	if c.Driver == DriverTarm && c.Timeout == 0 {
		return fmt.Errorf("tarm driver needs a positive timeout")
	}

	return nil
}

// Settings returns the compact "115200 8-N-1" form of the line settings
func (c SerialConfig) Settings() string {
	parity := "N"
	if c.Parity != "" {
		parity = strings.ToUpper(c.Parity[:1])
	}
	return fmt.Sprintf("%d %d-%s-%d", c.BaudRate, c.DataBits, parity, c.StopBits)
}

// DefaultConfig returns the 115200 8N1 configuration the peripheral firmware expects
func DefaultConfig() SerialConfig {
	return SerialConfig{
		Port:     defaultPort(),
		BaudRate: 115200,
		DataBits: 8,
		StopBits: 1,
		Parity:   "none",
		Timeout:  10 * time.Millisecond,
		Driver:   DriverBugst,
	}
}

// SerialPort is the byte-level transport contract: blocking read with timeout, write and close.
type SerialPort interface {
	Open(config SerialConfig) error
	Close() error
	Write(data []byte) (int, error)
	// ReadBytes reads at most n bytes, waiting no longer than timeout.
	// A timeout with no data returns an empty slice and a nil error.
	ReadBytes(n int, timeout time.Duration) ([]byte, error)
	IsOpen() bool
	GetConfig() SerialConfig
}

// NewSerialPort returns a closed port for the named driver
func NewSerialPort(driver string) (SerialPort, error) {
	switch driver {
	case "", DriverBugst:
		return NewCrossPlatformSerialPort(), nil
	case DriverTarm:
		return NewTarmSerialPort(), nil
	default:
		return nil, fmt.Errorf("unknown serial driver: %s", driver)
	}
}

// CrossPlatformSerialPort implements SerialPort using go.bug.st/serial
type CrossPlatformSerialPort struct {
	port        serial.Port
	config      SerialConfig
	readTimeout time.Duration
	isOpen      bool
}

// NewCrossPlatformSerialPort creates a new cross-platform serial port instance
func NewCrossPlatformSerialPort() *CrossPlatformSerialPort {
	return &CrossPlatformSerialPort{}
}

// Open opens the serial port with the given configuration
func (sp *CrossPlatformSerialPort) Open(config SerialConfig) error {
	if sp.isOpen {
		return fmt.Errorf("serial port is already open")
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		StopBits: convertStopBits(config.StopBits),
		Parity:   convertParity(config.Parity),
	}

	port, err := serial.Open(config.Port, mode)
	if err != nil {
		return NewSerialError("open", config.Port, err)
	}

	if config.Timeout > 0 {
		if err := port.SetReadTimeout(config.Timeout); err != nil {
			port.Close()
			return NewSerialError("set read timeout", config.Port, err)
		}
	}

	sp.port = port
	sp.config = config
	sp.readTimeout = config.Timeout
	sp.isOpen = true

	return nil
}

// Close closes the serial port
func (sp *CrossPlatformSerialPort) Close() error {
	if !sp.isOpen {
		return fmt.Errorf("serial port is not open")
	}

	err := sp.port.Close()
	sp.port = nil
	sp.isOpen = false

	if err != nil {
		return NewSerialError("close", sp.config.Port, err)
	}

	return nil
}

// ReadBytes reads up to n bytes, adjusting the port read timeout when it changes
func (sp *CrossPlatformSerialPort) ReadBytes(n int, timeout time.Duration) ([]byte, error) {
	if !sp.isOpen {
		return nil, fmt.Errorf("serial port is not open")
	}

	if timeout != sp.readTimeout {
		if err := sp.port.SetReadTimeout(timeout); err != nil {
			return nil, NewSerialError("set read timeout", sp.config.Port, err)
		}
		sp.readTimeout = timeout
	}

	buf := make([]byte, n)
	read, err := sp.port.Read(buf)
	if err != nil {
		return buf[:read], NewSerialError("read", sp.config.Port, err)
	}

	return buf[:read], nil
}

// Write writes data to the serial port
func (sp *CrossPlatformSerialPort) Write(data []byte) (int, error) {
	if !sp.isOpen {
		return 0, fmt.Errorf("serial port is not open")
	}

	n, err := sp.port.Write(data)
	if err != nil {
		return n, NewSerialError("write", sp.config.Port, err)
	}

	return n, nil
}

// IsOpen returns true if the serial port is open
func (sp *CrossPlatformSerialPort) IsOpen() bool {
	return sp.isOpen
}

// GetConfig returns the current serial port configuration
func (sp *CrossPlatformSerialPort) GetConfig() SerialConfig {
	return sp.config
}

// convertStopBits converts our stop bits format to go.bug.st/serial format
func convertStopBits(stopBits int) serial.StopBits {
	switch stopBits {
	case 2:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}

// convertParity converts our parity format to go.bug.st/serial format
func convertParity(parity string) serial.Parity {
	switch parity {
	case "odd":
		return serial.OddParity
	case "even":
		return serial.EvenParity
	case "mark":
		return serial.MarkParity
	case "space":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

// PortInfo contains information about a serial port
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// GetDetailedPortsList returns USB details for every port the enumerator can see
func GetDetailedPortsList() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get ports list: %w", err)
	}

	portInfos := make([]PortInfo, 0, len(details))
	for _, d := range details {
		portInfos = append(portInfos, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
		})
	}

	return portInfos, nil
}

// ListPorts returns a list of available serial ports on the system
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// IsPortAvailable checks if a specific port is available
func IsPortAvailable(portName string) bool {
	ports, err := serial.GetPortsList()
	if err != nil {
		return false
	}

	for _, port := range ports {
		if port == portName {
			return true
		}
	}

	return false
}

// SerialError represents a serial port specific error
type SerialError struct {
	Operation string
	Port      string
	Cause     error
}

// Error implements the error interface
func (e *SerialError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("serial %s operation failed on port %s: %v", e.Operation, e.Port, e.Cause)
	}
	return fmt.Sprintf("serial %s operation failed on port %s", e.Operation, e.Port)
}

// Unwrap returns the underlying driver error
func (e *SerialError) Unwrap() error {
	return e.Cause
}

// NewSerialError creates a new serial error
func NewSerialError(operation, port string, cause error) *SerialError {
	return &SerialError{
		Operation: operation,
		Port:      port,
		Cause:     cause,
	}
}
