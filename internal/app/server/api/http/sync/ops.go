package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) syncOp() huma.Operation {
	return huma.Operation{
		OperationID:   "watchlist-sync",
		Method:        http.MethodPost,
		Path:          "/api/watchlist/sync",
		Summary:       "Слить пакет операций устройства",
		Description:   "Принимает неподтвержденные операции, сливает каждую с канонической записью и возвращает результат",
		Tags:          []string{"sync"},
		DefaultStatus: http.StatusOK,
		Security:      h.security(),
		Middlewares:   h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "watchlist-list",
		Method:      http.MethodGet,
		Path:        "/api/watchlist",
		Summary:     "Канонический список",
		Description: "Возвращает все записи, известные серверу, упорядоченные по id",
		Tags:        []string{"watchlist"},
		Security:    h.security(),
		Middlewares: h.middleware,
	}
}

func (h *Handler) statusOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-get-status",
		Method:      http.MethodGet,
		Path:        "/api/sync/status",
		Summary:     "Получить статус синхронизации",
		Description: "Возвращает сводку по каноническому набору и счетчики с момента запуска",
		Tags:        []string{"sync"},
		Security:    h.security(),
		Middlewares: h.middleware,
	}
}

func (h *Handler) security() []map[string][]string {
	if !h.secured {
		return nil
	}
	return []map[string][]string{{"bearer": {}}}
}
