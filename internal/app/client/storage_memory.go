package client

import (
	"context"
	"sync"

	"watchkeeper/internal/domain/watchlist"
)

// MemoryStorage - временное in-memory хранилище, используется, если SQLite
// недоступен. Данные живут до завершения процесса.
type MemoryStorage struct {
	mu      sync.RWMutex
	items   map[string]watchlist.Item
	pending []watchlist.Operation
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string]watchlist.Item),
	}
}

func (m *MemoryStorage) Get(_ context.Context, id string) (*watchlist.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.get(id), nil
}

func (m *MemoryStorage) get(id string) *watchlist.Item {
	it, ok := m.items[id]
	if !ok {
		return nil
	}
	c := it.Clone()
	return &c
}

func (m *MemoryStorage) GetAll(_ context.Context) ([]watchlist.Item, error) {
	m.mu.RLock()
	items := make([]watchlist.Item, 0, len(m.items))
	for _, it := range m.items {
		items = append(items, it.Clone())
	}
	m.mu.RUnlock()

	watchlist.SortByID(items)
	return items, nil
}

func (m *MemoryStorage) Put(_ context.Context, item watchlist.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[item.ID] = item.Clone()
	return nil
}

func (m *MemoryStorage) PutMany(_ context.Context, items []watchlist.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, it := range items {
		m.items[it.ID] = it.Clone()
	}
	return nil
}

func (m *MemoryStorage) AppendPending(_ context.Context, op watchlist.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return storageErr("append pending", m.appendPending(op))
}

func (m *MemoryStorage) appendPending(op watchlist.Operation) error {
	if _, err := op.Decode(); err != nil {
		return err
	}

	for _, p := range m.pending {
		if p.OpID == op.OpID {
			return nil
		}
	}
	m.pending = append(m.pending, op)
	return nil
}

func (m *MemoryStorage) ListPending(_ context.Context) ([]watchlist.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]watchlist.Operation, len(m.pending))
	copy(out, m.pending)
	return out, nil
}

func (m *MemoryStorage) ClearPending(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = nil
	return nil
}

func (m *MemoryStorage) DeletePending(_ context.Context, opIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deletePending(opIDs)
	return nil
}

func (m *MemoryStorage) deletePending(opIDs []string) {
	if len(opIDs) == 0 {
		return
	}

	ack := make(map[string]struct{}, len(opIDs))
	for _, id := range opIDs {
		ack[id] = struct{}{}
	}

	kept := m.pending[:0]
	for _, op := range m.pending {
		if _, ok := ack[op.OpID]; !ok {
			kept = append(kept, op)
		}
	}
	m.pending = kept
}

func (m *MemoryStorage) CountPending(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.pending), nil
}

func (m *MemoryStorage) ApplyLocal(_ context.Context, id string, fn LocalMutation) (watchlist.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, op, err := fn(m.get(id))
	if err != nil {
		return watchlist.Item{}, err
	}

	// Операция добавляется первой: при ошибке запись не меняется
	if err := m.appendPending(op); err != nil {
		return watchlist.Item{}, storageErr("apply local", err)
	}
	m.items[id] = next.Clone()
	return next, nil
}

func (m *MemoryStorage) ApplyRemote(_ context.Context, items []watchlist.Item, ackOpIDs []string) ([]watchlist.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Сначала считаем все версии, чтобы ошибка не оставила частичный результат
	applied := make([]watchlist.Item, 0, len(items))
	for _, remote := range items {
		merged, err := mergeRemote(m.get(remote.ID), remote)
		if err != nil {
			return nil, storageErr("apply remote", err)
		}
		applied = append(applied, merged)
	}

	for _, it := range applied {
		m.items[it.ID] = it.Clone()
	}
	m.deletePending(ackOpIDs)

	return applied, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
