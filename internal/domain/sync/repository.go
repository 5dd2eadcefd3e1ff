package sync

import (
	"context"

	"watchkeeper/internal/domain/watchlist"
)

// UpdateFunc получает текущую каноническую версию (nil, если записи нет)
// и возвращает новую. Ошибка отменяет обновление.
type UpdateFunc func(current *watchlist.Item) (watchlist.Item, error)

// Repository интерфейс канонического хранилища записей.
// Update атомарен в пределах одной записи: конкурентные обновления одного id
// выполняются последовательно, разных id - независимо.
type Repository interface {
	Update(ctx context.Context, id string, fn UpdateFunc) (watchlist.Item, error)
	Get(ctx context.Context, id string) (*watchlist.Item, error)
	List(ctx context.Context) ([]watchlist.Item, error)
}
