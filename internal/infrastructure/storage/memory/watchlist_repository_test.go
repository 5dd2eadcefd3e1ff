package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domainsync "watchkeeper/internal/domain/sync"
	"watchkeeper/internal/domain/watchlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestWatchlistRepository_UpdateAndGet(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	got, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, got)

	it := watchlist.NewItem("1", watchlist.Metadata{Title: "Up"}, "X", t0).Toggle(watchlist.Metadata{}, "X", t0)
	_, err = repo.Update(ctx, "1", func(current *watchlist.Item) (watchlist.Item, error) {
		assert.Nil(t, current)
		return it, nil
	})
	require.NoError(t, err)

	got, err = repo.Get(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, it, *got)

	got.VectorClock["X"] = 100
	again, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), again.VectorClock["X"])
}

func TestWatchlistRepository_UpdateErrors(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "1", func(*watchlist.Item) (watchlist.Item, error) {
		return watchlist.Item{}, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.Update(ctx, "1", func(*watchlist.Item) (watchlist.Item, error) {
		return watchlist.Item{ID: "2"}, nil
	})
	assert.ErrorIs(t, err, domainsync.ErrItemMismatch)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = repo.Update(cancelled, "1", func(*watchlist.Item) (watchlist.Item, error) {
		return watchlist.Item{ID: "1"}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchlistRepository_ConcurrentUpdatesSerialize(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	const writers = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			device := fmt.Sprintf("dev-%02d", n)
			_, err := repo.Update(ctx, "shared", func(current *watchlist.Item) (watchlist.Item, error) {
				base := watchlist.NewItem("shared", watchlist.Metadata{Title: "Shared"}, device, t0)
				if current != nil {
					base = *current
				}
				return base.Toggle(watchlist.Metadata{}, device, t0.Add(time.Duration(n)*time.Second)), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := repo.Get(ctx, "shared")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Each read-modify-write saw the previous result, so no tick was lost.
	var total uint64
	for _, v := range got.VectorClock {
		total += v
	}
	assert.Equal(t, uint64(writers), total)
	assert.Equal(t, writers, len(got.VectorClock))
}

func TestWatchlistRepository_ListSorted(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	for _, id := range []string{"b", "c", "a"} {
		id := id
		_, err := repo.Update(ctx, id, func(*watchlist.Item) (watchlist.Item, error) {
			return watchlist.NewItem(id, watchlist.Metadata{Title: id}, "X", t0), nil
		})
		require.NoError(t, err)
	}

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "c", items[2].ID)
}

func TestWatchlistRepository_ConvergesThroughService(t *testing.T) {
	repo := NewWatchlistRepository()
	service := domainsync.NewService(repo, slog.Default(), nil)
	ctx := context.Background()

	x := watchlist.NewItem("42", watchlist.Metadata{Title: "Dune"}, "X", t0).Toggle(watchlist.Metadata{}, "X", t0.Add(time.Second))
	y := watchlist.NewItem("42", watchlist.Metadata{Title: "Dune"}, "Y", t0).Toggle(watchlist.Metadata{}, "Y", t0.Add(2*time.Second))

	opX, err := watchlist.NewToggleOperation(x)
	require.NoError(t, err)
	opY, err := watchlist.NewToggleOperation(y)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, op := range []watchlist.Operation{opX, opY} {
		wg.Add(1)
		go func(op watchlist.Operation) {
			defer wg.Done()
			_, err := service.ApplyBatch(ctx, domainsync.SyncRequest{Operations: []watchlist.Operation{op}})
			assert.NoError(t, err)
		}(op)
	}
	wg.Wait()

	// Replaying both batches does not change the outcome.
	resp, err := service.ApplyBatch(ctx, domainsync.SyncRequest{Operations: []watchlist.Operation{opX, opY}})
	require.NoError(t, err)
	require.Len(t, resp.MergedItems, 1)

	got, err := repo.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Y", got.LastUpdatedBy)
	assert.Equal(t, *got, resp.MergedItems[0])
}
