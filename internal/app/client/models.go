package client

import (
	"time"
)

// SyncState состояние движка синхронизации
type SyncState string

const (
	StateIdle     SyncState = "idle"
	StateSending  SyncState = "sending"
	StateApplying SyncState = "applying"
)

// SyncResult результат одного раунда синхронизации
type SyncResult struct {
	// Skipped - раунд уже выполнялся, новый не запускался
	Skipped bool `json:"skipped"`
	// Uploaded - число отправленных операций
	Uploaded int `json:"uploaded"`
	// Applied - число записей сервера, примененных локально
	Applied int `json:"applied"`
	// Invalid - записи сервера, не прошедшие проверку
	Invalid int `json:"invalid"`
	// Rejected - операции, отклоненные сервером
	Rejected  int           `json:"rejected"`
	Duration  time.Duration `json:"duration"`
	StartTime time.Time     `json:"start_time"`
}

// SyncStats статистика синхронизации с момента запуска
type SyncStats struct {
	State               SyncState `json:"state"`
	TotalSyncs          int       `json:"total_syncs"`
	TotalUploaded       int       `json:"total_uploaded"`
	TotalApplied        int       `json:"total_applied"`
	TotalInvalid        int       `json:"total_invalid"`
	TotalRejected       int       `json:"total_rejected"`
	TotalErrors         int       `json:"total_errors"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastSuccessful      time.Time `json:"last_successful,omitempty"`
	LastFailed          time.Time `json:"last_failed,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
}
