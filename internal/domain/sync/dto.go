package sync

import "watchkeeper/internal/domain/watchlist"

// DTO (Data Transfer Objects) для API синхронизации

// SyncRequest пакет неподтвержденных операций устройства
type SyncRequest struct {
	Operations []watchlist.Operation `json:"operations" required:"true"`
}

// RejectedOperation операция, отброшенная при разборе или проверке
type RejectedOperation struct {
	OpID  string `json:"opId"`
	Error string `json:"error"`
}

// SyncResponse результат слияния пакета
type SyncResponse struct {
	MergedItems []watchlist.Item    `json:"mergedItems"`
	Rejected    []RejectedOperation `json:"rejected,omitempty"`
}

// ListResponse канонический набор записей
type ListResponse struct {
	Items []watchlist.Item `json:"items"`
}
