package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"watchkeeper/internal/domain/watchlist"

	"golang.org/x/exp/slog"
)

// SyncConfig конфигурация синхронизации
type SyncConfig struct {
	Enabled   bool
	Interval  time.Duration
	RetryBase time.Duration
	RetryMax  time.Duration
}

// SyncService отправляет журнал ожидающих операций на сервер и применяет
// канонические версии записей из ответа
type SyncService struct {
	storage   Storage
	transport Transport
	notifier  Notifier
	validator watchlist.Validator
	log       *slog.Logger
	config    SyncConfig

	mu        sync.Mutex
	isSyncing bool
	state     SyncState
	failures  int
	stats     SyncStats

	bg sync.WaitGroup
}

// NewSyncService создает новый сервис синхронизации. notifier может быть nil.
func NewSyncService(storage Storage, transport Transport, notifier Notifier, config SyncConfig, log *slog.Logger) *SyncService {
	if config.RetryBase <= 0 {
		config.RetryBase = 2 * time.Second
	}
	if config.RetryMax < config.RetryBase {
		config.RetryMax = config.RetryBase
	}
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}

	return &SyncService{
		storage:   storage,
		transport: transport,
		notifier:  notifier,
		validator: watchlist.NewValidator(),
		log:       log.With(slog.String("component", "sync")),
		config:    config,
		state:     StateIdle,
	}
}

// Sync выполняет один раунд синхронизации. Если раунд уже выполняется,
// сразу возвращает SyncResult{Skipped: true}.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	if !s.config.Enabled {
		return nil, watchlist.ErrSyncDisabled
	}

	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.log.Debug("Синхронизация уже выполняется, раунд пропущен")
		return &SyncResult{Skipped: true}, nil
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.state = StateIdle
		s.mu.Unlock()
	}()

	result := &SyncResult{StartTime: time.Now()}
	defer func() {
		result.Duration = time.Since(result.StartTime)
	}()

	ops, err := s.storage.ListPending(ctx)
	if err != nil {
		s.fail(err)
		return result, err
	}
	if len(ops) == 0 {
		s.log.Debug("Нет операций для отправки")
		s.succeed(result)
		return result, nil
	}

	s.setState(StateSending)
	s.log.Info("Начало синхронизации", "operations", len(ops))

	resp, err := s.transport.Sync(ctx, ops)
	if err != nil {
		var tErr *watchlist.TransportError
		if !errors.As(err, &tErr) {
			err = &watchlist.TransportError{Op: "sync", Err: err}
		}
		s.log.Warn("Ошибка отправки операций, журнал сохранен", "operations", len(ops), "error", err)
		s.fail(err)
		return result, err
	}
	result.Uploaded = len(ops)
	result.Rejected = len(resp.Rejected)

	for _, r := range resp.Rejected {
		s.log.Warn("Сервер отклонил операцию", "op_id", r.OpID, "error", r.Error)
	}

	s.setState(StateApplying)

	valid := make([]watchlist.Item, 0, len(resp.MergedItems))
	for _, it := range resp.MergedItems {
		if err := s.validator.ValidateItem(it); err != nil {
			result.Invalid++
			s.log.Warn("Запись сервера отброшена", "id", it.ID, "error", err)
			continue
		}
		valid = append(valid, it)
	}

	// Подтверждаются ровно те операции, что были в пакете
	ack := make([]string, len(ops))
	for i, op := range ops {
		ack[i] = op.OpID
	}

	applied, err := s.storage.ApplyRemote(ctx, valid, ack)
	if err != nil {
		s.log.Error("Ошибка применения ответа сервера", "error", err)
		s.fail(err)
		return result, fmt.Errorf("ошибка применения ответа сервера: %w", err)
	}
	result.Applied = len(applied)

	s.succeed(result)
	s.log.Info("Синхронизация завершена",
		"uploaded", result.Uploaded,
		"applied", result.Applied,
		"invalid", result.Invalid,
		"rejected", result.Rejected,
	)

	if s.notifier != nil {
		s.notifier.Notify()
	}
	return result, nil
}

// Trigger запрашивает раунд синхронизации в фоне и сразу возвращает управление
func (s *SyncService) Trigger() {
	if !s.config.Enabled {
		return
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if _, err := s.Sync(context.Background()); err != nil {
			s.log.Debug("Фоновая синхронизация не удалась", "error", err)
		}
	}()
}

// Wait ожидает завершения фоновых раундов, запущенных через Trigger
func (s *SyncService) Wait() {
	s.bg.Wait()
}

// NextRetryDelay возвращает задержку до следующей плановой попытки:
// обычный интервал без ошибок, иначе экспоненциальная задержка
func (s *SyncService) NextRetryDelay() time.Duration {
	s.mu.Lock()
	failures := s.failures
	s.mu.Unlock()

	if failures == 0 {
		return s.config.Interval
	}
	return backoff(s.config.RetryBase, s.config.RetryMax, failures)
}

func backoff(base, limit time.Duration, failures int) time.Duration {
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= limit || d <= 0 {
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}

// Stats возвращает копию статистики синхронизации
func (s *SyncService) Stats() SyncStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.State = s.state
	stats.ConsecutiveFailures = s.failures
	return stats
}

func (s *SyncService) setState(state SyncState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *SyncService) succeed(result *SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = 0
	s.stats.TotalSyncs++
	s.stats.TotalUploaded += result.Uploaded
	s.stats.TotalApplied += result.Applied
	s.stats.TotalInvalid += result.Invalid
	s.stats.TotalRejected += result.Rejected
	s.stats.LastSuccessful = time.Now()
}

func (s *SyncService) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures++
	s.stats.TotalSyncs++
	s.stats.TotalErrors++
	s.stats.LastFailed = time.Now()
	s.stats.LastError = err.Error()
}
