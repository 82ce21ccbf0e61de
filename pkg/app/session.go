package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"colorctl/pkg/command"
	"colorctl/pkg/sender"
	"colorctl/pkg/serial"
)

// Session represents one run of the color menu against a port
type Session struct {
	ID        string
	Name      string
	Variant   command.Variant
	Config    serial.SerialConfig
	StartTime time.Time
	EndTime   *time.Time
	IsActive  bool

	CommandsSent int
	Replies      int
	BytesSent    int64
	BytesRecv    int64

	mu sync.RWMutex
}

// NewSession creates a new session
func NewSession(name string, variant command.Variant, config serial.SerialConfig) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Variant:   variant,
		Config:    config,
		StartTime: time.Now(),
		IsActive:  true,
	}
}

// Validate checks if the session is valid
func (s *Session) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := uuid.Parse(s.ID); err != nil {
		return fmt.Errorf("invalid session ID %q: %w", s.ID, err)
	}

	if s.Name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	if s.StartTime.IsZero() {
		return fmt.Errorf("start time cannot be zero")
	}

	if s.EndTime != nil && s.EndTime.Before(s.StartTime) {
		return fmt.Errorf("end time cannot be before start time")
	}

	return nil
}

// End marks the session as ended; later calls keep the first end time
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.IsActive {
		return
	}
	now := time.Now()
	s.EndTime = &now
	s.IsActive = false
}

// RecordExchange counts one command/response exchange
func (s *Session) RecordExchange(result sender.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CommandsSent++
	if result.Responded {
		s.Replies++
	}
}

// UpdateStats sets the byte counters
func (s *Session) UpdateStats(bytesSent, bytesRecv int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.BytesSent = bytesSent
	s.BytesRecv = bytesRecv
}

// Duration returns the duration of the session
func (s *Session) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// Summary is a snapshot of the session counters
type Summary struct {
	ID           string
	Port         string
	Duration     time.Duration
	CommandsSent int
	Replies      int
	BytesSent    int64
	BytesRecv    int64
}

// Summary returns the current counters
func (s *Session) Summary() Summary {
	duration := s.Duration()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Summary{
		ID:           s.ID,
		Port:         s.Name,
		Duration:     duration,
		CommandsSent: s.CommandsSent,
		Replies:      s.Replies,
		BytesSent:    s.BytesSent,
		BytesRecv:    s.BytesRecv,
	}
}
