package sync

import (
	domainsync "watchkeeper/internal/domain/sync"
)

// Request/Response для синхронизации пакета
type syncInput struct {
	Body domainsync.SyncRequest
}

type syncOutput struct {
	Body domainsync.SyncResponse
}

// Request/Response для списка
type listInput struct{}

type listOutput struct {
	Body domainsync.ListResponse
}

// Request/Response для статуса
type statusInput struct{}

type statusOutput struct {
	Body domainsync.Status
}
