package watchlist

import "fmt"

// Winner сторона, чья версия стала результатом слияния
type Winner string

const (
	WinnerLocal    Winner = "local"
	WinnerIncoming Winner = "incoming"
)

// Resolution описывает, как было принято решение при слиянии
type Resolution struct {
	Ordering Ordering
	Winner   Winner
}

// Conflicting сообщает, понадобился ли тай-брейк по времени
func (r Resolution) Conflicting() bool {
	return r.Ordering == Concurrent
}

// Resolve сравнивает две версии одной записи и выбирает победителя.
//
// Доминирующая по часам сторона побеждает целиком. Для конкурентных версий
// побеждает более поздний UpdatedAt; при одинаковом времени - больший
// LastUpdatedBy, иначе локальная версия. При равных часах всегда остается
// локальная версия.
func Resolve(local, incoming Item) (Resolution, error) {
	if local.ID != incoming.ID {
		return Resolution{}, fmt.Errorf("%w: %q vs %q", ErrIDMismatch, local.ID, incoming.ID)
	}

	ordering := CompareClocks(local.VectorClock, incoming.VectorClock)
	res := Resolution{Ordering: ordering, Winner: WinnerLocal}

	switch ordering {
	case IncomingDominates:
		res.Winner = WinnerIncoming
	case Concurrent:
		if incomingIsLater(local, incoming) {
			res.Winner = WinnerIncoming
		}
	}

	return res, nil
}

// Merge возвращает копию победившей версии. Функция чистая: входные записи
// не изменяются, результат не разделяет с ними часы.
func Merge(local, incoming Item) (Item, error) {
	res, err := Resolve(local, incoming)
	if err != nil {
		return Item{}, err
	}

	if res.Winner == WinnerIncoming {
		return incoming.Clone(), nil
	}
	return local.Clone(), nil
}

func incomingIsLater(local, incoming Item) bool {
	if !incoming.UpdatedAt.Equal(local.UpdatedAt) {
		return incoming.UpdatedAt.After(local.UpdatedAt)
	}
	return incoming.LastUpdatedBy > local.LastUpdatedBy
}
