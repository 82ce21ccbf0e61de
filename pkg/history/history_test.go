package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exchange(cmd string, responded bool) Exchange {
	e := Exchange{
		Timestamp: time.Now(),
		Command:   cmd,
		Responded: responded,
		Elapsed:   20 * time.Millisecond,
	}
	if responded {
		e.Response = "OK " + cmd
	}
	return e
}

func TestExchange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ex      Exchange
		wantErr bool
	}{
		{name: "valid", ex: exchange("ON", true)},
		{name: "valid without response", ex: exchange("ON", false)},
		{name: "zero timestamp", ex: Exchange{Command: "ON"}, wantErr: true},
		{name: "empty command", ex: Exchange{Timestamp: time.Now()}, wantErr: true},
		{name: "negative elapsed", ex: Exchange{Timestamp: time.Now(), Command: "ON", Elapsed: -1}, wantErr: true},
		{name: "response without bytes", ex: Exchange{Timestamp: time.Now(), Command: "ON", Response: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ex.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemoryHistory_RecordAndEntries(t *testing.T) {
	h := NewMemoryHistory(10)
	require.NoError(t, h.Record(exchange("ON", true)))
	require.NoError(t, h.Record(exchange("OFF", false)))

	assert.Equal(t, 2, h.Len())

	entries, err := h.Entries(0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ON", entries[0].Command)
	assert.Equal(t, "OFF", entries[1].Command)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "OFF", last.Command)
}

func TestMemoryHistory_RejectsInvalid(t *testing.T) {
	h := NewMemoryHistory(10)
	assert.Error(t, h.Record(Exchange{}))
	assert.Zero(t, h.Len())
}

func TestMemoryHistory_DropsOldest(t *testing.T) {
	h := NewMemoryHistory(3)
	for i := 0; i < 5; i++ {
		require.NoError(t, h.Record(exchange(fmt.Sprintf("CMD%d", i), true)))
	}

	assert.Equal(t, 3, h.Len())
	entries, err := h.Entries(0, 3)
	require.NoError(t, err)
	assert.Equal(t, "CMD2", entries[0].Command)
	assert.Equal(t, "CMD4", entries[2].Command)
	assert.Equal(t, 2, h.Stats().Dropped)
}

func TestMemoryHistory_EntriesBounds(t *testing.T) {
	h := NewMemoryHistory(0)
	require.NoError(t, h.Record(exchange("ON", true)))

	_, err := h.Entries(-1, 1)
	assert.Error(t, err)

	_, err = h.Entries(2, 1)
	assert.Error(t, err)

	_, err = h.Entries(0, -1)
	assert.Error(t, err)

	entries, err := h.Entries(1, 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryHistory_Stats(t *testing.T) {
	h := NewMemoryHistory(10)
	stats := h.Stats()
	assert.Zero(t, stats.TotalExchanges)
	assert.Nil(t, stats.OldestEntry)

	require.NoError(t, h.Record(exchange("ON", true)))
	require.NoError(t, h.Record(exchange("OFF", false)))
	require.NoError(t, h.Record(exchange("FFFFFF", true)))

	stats = h.Stats()
	assert.Equal(t, 3, stats.TotalExchanges)
	assert.Equal(t, 2, stats.Responded)
	assert.Equal(t, 1, stats.NoResponse)
	assert.Equal(t, 60*time.Millisecond, stats.TotalElapsed)
	require.NotNil(t, stats.OldestEntry)
	require.NotNil(t, stats.NewestEntry)
	assert.False(t, stats.NewestEntry.Before(*stats.OldestEntry))

	h.Clear()
	assert.Zero(t, h.Len())
	_, ok := h.Last()
	assert.False(t, ok)
}
