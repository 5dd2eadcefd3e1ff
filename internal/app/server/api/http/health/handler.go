package health

import (
	"context"
	"time"

	domainsync "watchkeeper/internal/domain/sync"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// StatusReader читает сводку канонического хранилища
type StatusReader interface {
	Status(ctx context.Context) (*domainsync.Status, error)
}

// Info - неизменяемые параметры сервера, которые видит клиент
type Info struct {
	ResponseMode domainsync.ResponseMode
	AuthRequired bool
}

type Handler struct {
	log        *slog.Logger
	status     StatusReader
	info       Info
	middleware huma.Middlewares
}

func NewHandler(status StatusReader, info Info, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		log:        log,
		status:     status,
		info:       info,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

// healthCheck отвечает 503, если хранилище недоступно: клиент не должен
// отправлять пакеты, которые сервер не сможет слить
func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	status, err := h.status.Status(ctx)
	if err != nil {
		h.log.Error("authority probe failed", "error", err)
		return nil, huma.Error503ServiceUnavailable("canonical store unavailable")
	}

	return &Output{
		Body: Response{
			Status:       "OK",
			ServerTime:   time.Now().UTC(),
			ResponseMode: h.info.ResponseMode,
			AuthRequired: h.info.AuthRequired,
			Items:        status.Items,
		},
	}, nil
}
