package memory

import (
	"context"
	"fmt"
	"sync"

	domainsync "watchkeeper/internal/domain/sync"
	"watchkeeper/internal/domain/watchlist"
)

// WatchlistRepository хранит канонический набор в памяти процесса.
// Обновления одной записи сериализуются собственным мьютексом записи.
type WatchlistRepository struct {
	mu    sync.RWMutex
	items map[string]watchlist.Item

	locks sync.Map // id -> *sync.Mutex
}

// NewWatchlistRepository создает пустой репозиторий
func NewWatchlistRepository() *WatchlistRepository {
	return &WatchlistRepository{
		items: make(map[string]watchlist.Item),
	}
}

func (r *WatchlistRepository) lockFor(id string) *sync.Mutex {
	l, _ := r.locks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// Update атомарно применяет fn к текущей версии записи
func (r *WatchlistRepository) Update(ctx context.Context, id string, fn domainsync.UpdateFunc) (watchlist.Item, error) {
	l := r.lockFor(id)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return watchlist.Item{}, err
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return watchlist.Item{}, err
	}

	next, err := fn(current)
	if err != nil {
		return watchlist.Item{}, err
	}
	if next.ID != id {
		return watchlist.Item{}, fmt.Errorf("%w: %q vs %q", domainsync.ErrItemMismatch, id, next.ID)
	}

	r.mu.Lock()
	r.items[id] = next.Clone()
	r.mu.Unlock()

	return next.Clone(), nil
}

// Get возвращает копию записи или nil, если ее нет
func (r *WatchlistRepository) Get(_ context.Context, id string) (*watchlist.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	c := it.Clone()
	return &c, nil
}

// List возвращает копии всех записей, упорядоченные по id
func (r *WatchlistRepository) List(_ context.Context) ([]watchlist.Item, error) {
	r.mu.RLock()
	items := make([]watchlist.Item, 0, len(r.items))
	for _, it := range r.items {
		items = append(items, it.Clone())
	}
	r.mu.RUnlock()

	watchlist.SortByID(items)
	return items, nil
}
