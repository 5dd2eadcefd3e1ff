package postgres

import (
	"testing"
	"time"

	"watchkeeper/internal/domain/watchlist"

	"github.com/stretchr/testify/assert"
)

func TestUnixNanos_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
	}{
		{name: "whole seconds", at: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{name: "sub microsecond", at: time.Date(2024, 5, 1, 12, 0, 0, 700, time.UTC)},
		{name: "non utc zone", at: time.Date(2024, 5, 1, 14, 0, 0, 123456789, time.FixedZone("CEST", 2*60*60))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fromUnixNanos(unixNanos(tt.at))
			assert.True(t, got.Equal(tt.at), "got %s, want %s", got, tt.at)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

// Версии, записанные в одну микросекунду, разрешаются одинаково независимо
// от того, какая из них уже лежит в таблице
func TestUnixNanos_PreservesTieBreak(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	x := watchlist.Item{
		ID: "42", Title: "Heat", CreatedAt: at, UpdatedAt: at.Add(500),
		IsInWatchlist: true, VectorClock: watchlist.VectorClock{"X": 1}, LastUpdatedBy: "X",
	}
	y := watchlist.Item{
		ID: "42", Title: "Heat", CreatedAt: at, UpdatedAt: at.Add(700),
		IsInWatchlist: false, VectorClock: watchlist.VectorClock{"Y": 1}, LastUpdatedBy: "Y",
	}

	stored := func(it watchlist.Item) watchlist.Item {
		it.CreatedAt = fromUnixNanos(unixNanos(it.CreatedAt))
		it.UpdatedAt = fromUnixNanos(unixNanos(it.UpdatedAt))
		return it
	}

	xFirst, err := watchlist.Merge(stored(x), y)
	assert.NoError(t, err)
	yFirst, err := watchlist.Merge(stored(y), x)
	assert.NoError(t, err)

	assert.Equal(t, "Y", xFirst.LastUpdatedBy)
	assert.Equal(t, "Y", yFirst.LastUpdatedBy)
	assert.True(t, xFirst.UpdatedAt.Equal(yFirst.UpdatedAt))
}
