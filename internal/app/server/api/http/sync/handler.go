package sync

import (
	"context"

	domainsync "watchkeeper/internal/domain/sync"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type Handler struct {
	service    domainsync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
	secured    bool
}

func NewHandler(service domainsync.Servicer, log *slog.Logger, middleware huma.Middlewares, secured bool) *Handler {
	return &Handler{
		service:    service,
		log:        log.With(slog.String("component", "sync_handler")),
		middleware: middleware,
		secured:    secured,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.syncOp(), h.sync)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.statusOp(), h.status)
}

func (h *Handler) sync(ctx context.Context, input *syncInput) (*syncOutput, error) {
	response, err := h.service.ApplyBatch(ctx, input.Body)
	if err != nil {
		h.log.Error("failed to apply batch", slog.Any("error", err), slog.Int("operations", len(input.Body.Operations)))
		return nil, huma.Error500InternalServerError("failed to apply batch", err)
	}

	return &syncOutput{
		Body: *response,
	}, nil
}

func (h *Handler) list(ctx context.Context, _ *listInput) (*listOutput, error) {
	response, err := h.service.List(ctx)
	if err != nil {
		h.log.Error("failed to list items", slog.Any("error", err))
		return nil, huma.Error500InternalServerError("failed to list items", err)
	}

	return &listOutput{
		Body: *response,
	}, nil
}

func (h *Handler) status(ctx context.Context, _ *statusInput) (*statusOutput, error) {
	response, err := h.service.Status(ctx)
	if err != nil {
		h.log.Error("failed to get status", slog.Any("error", err))
		return nil, huma.Error500InternalServerError("failed to get status", err)
	}

	return &statusOutput{
		Body: *response,
	}, nil
}
