package watchlist

import (
	"errors"
	"fmt"
)

var (
	ErrIDMismatch       = errors.New("item ids do not match")
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrSyncDisabled     = errors.New("sync is disabled")
)

// StorageError ошибка локального хранилища. Фатальна для текущей операции,
// автоматически не повторяется.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// TransportError ошибка сети или неуспешный ответ сервера. Восстановимая:
// журнал ожидающих операций сохраняется до следующей попытки.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError некорректная запись из удаленного или локального источника.
// Запись отбрасывается, остальная часть пакета обрабатывается.
type ValidationError struct {
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid item %q: %s %s", e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid item: %s %s", e.Field, e.Reason)
}

// IsValidation проверяет, является ли ошибка ошибкой валидации
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
