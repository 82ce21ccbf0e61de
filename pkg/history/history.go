// Package history keeps an in-memory record of the command/response exchanges of a session
package history

import (
	"fmt"
	"sync"
	"time"
)

// Exchange is one command written to the peripheral and the reply read back
type Exchange struct {
	Timestamp time.Time     `json:"timestamp"`
	Command   string        `json:"command"`
	Response  string        `json:"response"`
	Responded bool          `json:"responded"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Validate checks if the exchange is valid
func (e Exchange) Validate() error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp cannot be zero")
	}

	if e.Command == "" {
		return fmt.Errorf("command cannot be empty")
	}

	if e.Elapsed < 0 {
		return fmt.Errorf("elapsed time cannot be negative")
	}

	if !e.Responded && e.Response != "" {
		return fmt.Errorf("response text without any received bytes")
	}

	return nil
}

// Stats summarizes the recorded exchanges
type Stats struct {
	TotalExchanges int           `json:"total_exchanges"`
	Responded      int           `json:"responded"`
	NoResponse     int           `json:"no_response"`
	Dropped        int           `json:"dropped"`
	TotalElapsed   time.Duration `json:"total_elapsed"`
	OldestEntry    *time.Time    `json:"oldest_entry,omitempty"`
	NewestEntry    *time.Time    `json:"newest_entry,omitempty"`
}

// Recorder is the contract the sender writes exchanges through
type Recorder interface {
	Record(e Exchange) error
}

// MemoryHistory keeps the most recent exchanges in memory, dropping the oldest past maxEntries
type MemoryHistory struct {
	entries    []Exchange
	maxEntries int
	dropped    int
	mu         sync.RWMutex
}

// NewMemoryHistory creates a history bounded to maxEntries exchanges
func NewMemoryHistory(maxEntries int) *MemoryHistory {
	if maxEntries <= 0 {
		maxEntries = 1000
	}

	return &MemoryHistory{
		entries:    make([]Exchange, 0, 16),
		maxEntries: maxEntries,
	}
}

// Record appends an exchange
func (mh *MemoryHistory) Record(e Exchange) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid exchange: %w", err)
	}

	mh.mu.Lock()
	defer mh.mu.Unlock()

	mh.entries = append(mh.entries, e)
	if over := len(mh.entries) - mh.maxEntries; over > 0 {
		mh.entries = append(mh.entries[:0], mh.entries[over:]...)
		mh.dropped += over
	}

	return nil
}

// Len returns the number of retained exchanges
func (mh *MemoryHistory) Len() int {
	mh.mu.RLock()
	defer mh.mu.RUnlock()

	return len(mh.entries)
}

// Entries returns up to count exchanges starting at start, oldest first
func (mh *MemoryHistory) Entries(start, count int) ([]Exchange, error) {
	mh.mu.RLock()
	defer mh.mu.RUnlock()

	if start < 0 || start > len(mh.entries) {
		return nil, fmt.Errorf("start index out of range: %d", start)
	}

	if count < 0 {
		return nil, fmt.Errorf("count cannot be negative")
	}

	end := start + count
	if end > len(mh.entries) {
		end = len(mh.entries)
	}

	result := make([]Exchange, end-start)
	copy(result, mh.entries[start:end])
	return result, nil
}

// Last returns the most recent exchange
func (mh *MemoryHistory) Last() (Exchange, bool) {
	mh.mu.RLock()
	defer mh.mu.RUnlock()

	if len(mh.entries) == 0 {
		return Exchange{}, false
	}
	return mh.entries[len(mh.entries)-1], true
}

// Clear removes all exchanges
func (mh *MemoryHistory) Clear() {
	mh.mu.Lock()
	defer mh.mu.Unlock()

	mh.entries = mh.entries[:0]
	mh.dropped = 0
}

// Stats returns counters over the retained exchanges
func (mh *MemoryHistory) Stats() Stats {
	mh.mu.RLock()
	defer mh.mu.RUnlock()

	stats := Stats{
		TotalExchanges: len(mh.entries),
		Dropped:        mh.dropped,
	}

	for _, e := range mh.entries {
		if e.Responded {
			stats.Responded++
		} else {
			stats.NoResponse++
		}
		stats.TotalElapsed += e.Elapsed
	}

	if len(mh.entries) > 0 {
		oldest := mh.entries[0].Timestamp
		newest := mh.entries[len(mh.entries)-1].Timestamp
		stats.OldestEntry = &oldest
		stats.NewestEntry = &newest
	}

	return stats
}
