package client

import (
	"context"

	"watchkeeper/internal/domain/watchlist"
)

// LocalMutation получает текущую локальную версию записи (nil, если ее нет)
// и возвращает новую версию вместе с операцией для журнала.
type LocalMutation func(current *watchlist.Item) (watchlist.Item, watchlist.Operation, error)

// Storage - локальное хранилище устройства: записи и журнал неподтвержденных
// операций. Все ошибки оборачиваются в *watchlist.StorageError.
type Storage interface {
	// Get возвращает запись или nil, nil, если ее нет
	Get(ctx context.Context, id string) (*watchlist.Item, error)
	// GetAll возвращает все записи, упорядоченные по id
	GetAll(ctx context.Context) ([]watchlist.Item, error)
	// Put заменяет запись целиком
	Put(ctx context.Context, item watchlist.Item) error
	// PutMany заменяет набор записей атомарно
	PutMany(ctx context.Context, items []watchlist.Item) error

	// AppendPending добавляет операцию в конец журнала. Повтор с тем же
	// opId ничего не меняет.
	AppendPending(ctx context.Context, op watchlist.Operation) error
	// ListPending возвращает журнал в порядке добавления
	ListPending(ctx context.Context) ([]watchlist.Operation, error)
	// ClearPending очищает журнал
	ClearPending(ctx context.Context) error
	// DeletePending удаляет подтвержденные операции
	DeletePending(ctx context.Context, opIDs []string) error
	// CountPending возвращает длину журнала
	CountPending(ctx context.Context) (int, error)

	// ApplyLocal выполняет чтение-изменение-запись одной записи и добавление
	// операции в журнал в одной транзакции
	ApplyLocal(ctx context.Context, id string, fn LocalMutation) (watchlist.Item, error)
	// ApplyRemote сливает записи сервера с локальными копиями и удаляет
	// подтвержденные операции в одной транзакции. Возвращает итоговые версии.
	ApplyRemote(ctx context.Context, items []watchlist.Item, ackOpIDs []string) ([]watchlist.Item, error)

	Close() error
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &watchlist.StorageError{Op: op, Err: err}
}

// mergeRemote выбирает итоговую версию для записи, пришедшей с сервера.
// Незнакомые записи принимаются как есть.
func mergeRemote(current *watchlist.Item, remote watchlist.Item) (watchlist.Item, error) {
	if current == nil {
		return remote.Clone(), nil
	}
	return watchlist.Merge(*current, remote)
}
