package sync

import (
	"fmt"
	"time"
)

// ResponseMode определяет, какие записи сервер возвращает в ответ на пакет
type ResponseMode string

const (
	// ResponseTouched - только записи, затронутые пакетом
	ResponseTouched ResponseMode = "touched"
	// ResponseFull - весь канонический набор
	ResponseFull ResponseMode = "full"
)

// ParseResponseMode разбирает значение из конфигурации, пустая строка - touched
func ParseResponseMode(s string) (ResponseMode, error) {
	switch ResponseMode(s) {
	case "", ResponseTouched:
		return ResponseTouched, nil
	case ResponseFull:
		return ResponseFull, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidResponseMode, s)
	}
}

// ServiceConfig конфигурация сервиса слияния
type ServiceConfig struct {
	ResponseMode ResponseMode
}

// Status - состояние канонического набора и счетчики с момента запуска
type Status struct {
	Items       int       `json:"items"`
	InWatchlist int       `json:"inWatchlist"`
	Devices     int       `json:"devices"`
	LastUpdate  time.Time `json:"lastUpdate,omitempty" format:"date-time"`
	Batches     int64     `json:"batches"`
	Operations  int64     `json:"operations"`
	Rejected    int64     `json:"rejected"`
	Conflicts   int64     `json:"conflicts"`
	StartedAt   time.Time `json:"startedAt" format:"date-time"`
}
