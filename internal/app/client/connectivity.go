package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

// HealthChecker проверяет доступность сервера
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ConnectivityMonitor периодически опрашивает сервер и сообщает о переходах
// между состояниями online и offline
type ConnectivityMonitor struct {
	checker  HealthChecker
	interval time.Duration
	log      *slog.Logger

	mu     sync.RWMutex
	online bool
	subs   []chan bool
}

func NewConnectivityMonitor(checker HealthChecker, interval time.Duration, log *slog.Logger) *ConnectivityMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &ConnectivityMonitor{
		checker:  checker,
		interval: interval,
		log:      log.With(slog.String("component", "connectivity")),
	}
}

func (m *ConnectivityMonitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Subscribe возвращает канал, в который приходит новое состояние при каждом
// переходе. В канале хранится только последнее состояние.
func (m *ConnectivityMonitor) Subscribe() <-chan bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan bool, 1)
	m.subs = append(m.subs, ch)
	return ch
}

// Check выполняет одну проверку и возвращает текущее состояние
func (m *ConnectivityMonitor) Check(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	err := m.checker.HealthCheck(checkCtx)
	m.set(err == nil)
	if err != nil {
		m.log.Debug("Сервер недоступен", "error", err)
	}
	return err == nil
}

// Run опрашивает сервер до отмены ctx
func (m *ConnectivityMonitor) Run(ctx context.Context) error {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *ConnectivityMonitor) set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online
	m.log.Info("Состояние соединения изменилось", "online", online)

	for _, ch := range m.subs {
		// Вытесняем устаревшее состояние, если подписчик его еще не прочитал
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
}
