package sync

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"watchkeeper/internal/domain/watchlist"

	"golang.org/x/exp/slog"
)

// Servicer интерфейс сервиса слияния
type Servicer interface {
	// ApplyBatch сливает пакет операций устройства с каноническим набором
	ApplyBatch(ctx context.Context, req SyncRequest) (*SyncResponse, error)

	// List возвращает канонический набор, упорядоченный по id
	List(ctx context.Context) (*ListResponse, error)

	// Status возвращает состояние набора и счетчики
	Status(ctx context.Context) (*Status, error)
}

// Service реализация сервиса слияния
type Service struct {
	repo      Repository
	validator watchlist.Validator
	log       *slog.Logger
	config    *ServiceConfig
	startedAt time.Time

	batches    atomic.Int64
	operations atomic.Int64
	rejected   atomic.Int64
	conflicts  atomic.Int64
}

// NewService создает новый сервис слияния
func NewService(repo Repository, log *slog.Logger, config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{ResponseMode: ResponseTouched}
	}

	return &Service{
		repo:      repo,
		validator: watchlist.NewValidator(),
		log:       log,
		config:    config,
		startedAt: time.Now(),
	}
}

// ResponseMode возвращает режим ответа на пакет
func (s *Service) ResponseMode() ResponseMode {
	if s.config.ResponseMode == "" {
		return ResponseTouched
	}
	return s.config.ResponseMode
}

// ApplyBatch применяет операции в порядке их следования. Некорректные операции
// попадают в Rejected и не мешают остальным. Ошибка хранилища прерывает пакет.
func (s *Service) ApplyBatch(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	s.batches.Add(1)

	touched := make(map[string]watchlist.Item, len(req.Operations))
	resp := &SyncResponse{}

	for _, op := range req.Operations {
		incoming, err := s.validator.ValidateOperation(op)
		if err != nil {
			s.rejected.Add(1)
			s.log.Warn("Rejected operation", "op_id", op.OpID, "error", err)
			resp.Rejected = append(resp.Rejected, RejectedOperation{OpID: op.OpID, Error: err.Error()})
			continue
		}

		merged, err := s.repo.Update(ctx, incoming.ID, s.mergeInto(incoming))
		if err != nil {
			return nil, fmt.Errorf("failed to merge item %q: %w", incoming.ID, err)
		}

		s.operations.Add(1)
		touched[merged.ID] = merged
	}

	switch s.config.ResponseMode {
	case ResponseFull:
		items, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list items: %w", err)
		}
		if items == nil {
			items = []watchlist.Item{}
		}
		resp.MergedItems = items
	default:
		items := make([]watchlist.Item, 0, len(touched))
		for _, it := range touched {
			items = append(items, it)
		}
		watchlist.SortByID(items)
		resp.MergedItems = items
	}

	s.log.Debug("Batch merged",
		"operations", len(req.Operations),
		"rejected", len(resp.Rejected),
		"returned", len(resp.MergedItems),
	)

	return resp, nil
}

func (s *Service) mergeInto(incoming watchlist.Item) UpdateFunc {
	return func(current *watchlist.Item) (watchlist.Item, error) {
		if current == nil {
			return incoming.Clone(), nil
		}

		res, err := watchlist.Resolve(*current, incoming)
		if err != nil {
			return watchlist.Item{}, err
		}

		if res.Conflicting() {
			s.conflicts.Add(1)
			s.log.Info("Concurrent versions resolved",
				"item_id", incoming.ID,
				"winner", string(res.Winner),
				"local_by", current.LastUpdatedBy,
				"incoming_by", incoming.LastUpdatedBy,
			)
		}

		if res.Winner == watchlist.WinnerIncoming {
			return incoming.Clone(), nil
		}
		return current.Clone(), nil
	}
}

// List возвращает канонический набор
func (s *Service) List(ctx context.Context) (*ListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	if items == nil {
		items = []watchlist.Item{}
	}

	return &ListResponse{Items: items}, nil
}

// Status собирает сводку по каноническому набору
func (s *Service) Status(ctx context.Context) (*Status, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	status := &Status{
		Items:      len(items),
		Batches:    s.batches.Load(),
		Operations: s.operations.Load(),
		Rejected:   s.rejected.Load(),
		Conflicts:  s.conflicts.Load(),
		StartedAt:  s.startedAt,
	}

	devices := make(map[watchlist.DeviceID]struct{})
	for _, it := range items {
		if it.IsInWatchlist {
			status.InWatchlist++
		}
		if it.UpdatedAt.After(status.LastUpdate) {
			status.LastUpdate = it.UpdatedAt
		}
		for d := range it.VectorClock {
			devices[d] = struct{}{}
		}
	}
	status.Devices = len(devices)

	return status, nil
}
