package watchlist

import (
	"encoding/json"
	"fmt"
	"time"
)

// OpType тип ожидающей операции. Сейчас существует один вариант - toggle,
// остальные типы декодер отклоняет, не ломая разбор остального пакета.
type OpType string

const (
	OpToggle OpType = "toggle"
)

// Operation - неподтвержденная локальная мутация в формате обмена с сервером.
// Payload хранится в исходном виде и разбирается по Type.
type Operation struct {
	OpID    string          `json:"opId"`
	Type    OpType          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Mutation - разобранное содержимое операции
type Mutation interface {
	// Snapshot возвращает полную версию записи, зафиксированную операцией
	Snapshot() Item
}

// TogglePayload содержимое операции toggle
type TogglePayload struct {
	Item Item `json:"item"`
}

// Snapshot реализует Mutation
func (p TogglePayload) Snapshot() Item {
	return p.Item
}

// OperationID строит идентификатор операции из (itemID, время, устройство).
// Повторная отправка той же операции дает тот же идентификатор.
func OperationID(itemID string, at time.Time, device DeviceID) string {
	return fmt.Sprintf("%s-%s-%s", itemID, at.UTC().Format(time.RFC3339Nano), device)
}

// NewToggleOperation создает операцию toggle для новой версии записи
func NewToggleOperation(item Item) (Operation, error) {
	payload, err := json.Marshal(TogglePayload{Item: item})
	if err != nil {
		return Operation{}, fmt.Errorf("marshal toggle payload: %w", err)
	}

	return Operation{
		OpID:    OperationID(item.ID, item.UpdatedAt, item.LastUpdatedBy),
		Type:    OpToggle,
		Payload: payload,
	}, nil
}

// Decode разбирает содержимое операции в зависимости от ее типа
func (o Operation) Decode() (Mutation, error) {
	switch o.Type {
	case OpToggle:
		var p TogglePayload
		if err := json.Unmarshal(o.Payload, &p); err != nil {
			return nil, &ValidationError{Field: "payload", Reason: err.Error()}
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, o.Type)
	}
}
