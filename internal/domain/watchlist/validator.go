package watchlist

// Validator - интерфейс для проверки формы записей
type Validator interface {
	ValidateItem(item Item) error
	ValidateOperation(op Operation) (Item, error)
}

type ItemValidator struct{}

// NewValidator создает новый валидатор
func NewValidator() *ItemValidator {
	return &ItemValidator{}
}

// ValidateItem проверяет обязательные поля и согласованность часов.
// Отображаемые данные (название, постер) могут быть пустыми.
func (v *ItemValidator) ValidateItem(item Item) error {
	if item.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}

	if item.CreatedAt.IsZero() {
		return &ValidationError{ID: item.ID, Field: "createdAt", Reason: "must be set"}
	}

	if item.UpdatedAt.IsZero() {
		return &ValidationError{ID: item.ID, Field: "updatedAt", Reason: "must be set"}
	}

	if item.UpdatedAt.Before(item.CreatedAt) {
		return &ValidationError{ID: item.ID, Field: "updatedAt", Reason: "must not precede createdAt"}
	}

	if item.LastUpdatedBy == "" {
		return &ValidationError{ID: item.ID, Field: "lastUpdatedBy", Reason: "must not be empty"}
	}

	for device := range item.VectorClock {
		if device == "" {
			return &ValidationError{ID: item.ID, Field: "vectorClock", Reason: "contains empty device id"}
		}
	}

	if item.VectorClock.Get(item.LastUpdatedBy) == 0 {
		return &ValidationError{ID: item.ID, Field: "vectorClock", Reason: "has no entry for lastUpdatedBy"}
	}

	return nil
}

// ValidateOperation разбирает операцию и проверяет зафиксированную в ней запись
func (v *ItemValidator) ValidateOperation(op Operation) (Item, error) {
	if op.OpID == "" {
		return Item{}, &ValidationError{Field: "opId", Reason: "must not be empty"}
	}

	mutation, err := op.Decode()
	if err != nil {
		return Item{}, err
	}

	item := mutation.Snapshot()
	if err := v.ValidateItem(item); err != nil {
		return Item{}, err
	}

	return item, nil
}
