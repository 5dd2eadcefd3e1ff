package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"watchkeeper/internal/app/client/catalog"
	"watchkeeper/internal/app/client/config"
	domainsync "watchkeeper/internal/domain/sync"
	"watchkeeper/internal/domain/watchlist"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

type App struct {
	log       *slog.Logger
	device    watchlist.DeviceID
	transport Transport
	storage   Storage
	sync      *SyncService
	notifier  Notifier
	monitor   *ConnectivityMonitor
	catalog   *catalog.Client
	validator watchlist.Validator
	now       func() time.Time
}

// Deps - зависимости приложения, собранные вызывающей стороной
type Deps struct {
	Device    watchlist.DeviceID
	Storage   Storage
	Transport Transport
	Notifier  Notifier
	Catalog   *catalog.Client
	Sync      SyncConfig
	// ConnectivityInterval - период опроса сервера
	ConnectivityInterval time.Duration
	Now                  func() time.Time
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога данных: %w", err)
	}

	device, err := LoadOrCreateDeviceID(cfg.DeviceIDPath)
	if err != nil {
		return nil, err
	}

	// Инициализируем локальное хранилище (используем SQLite)
	var storage Storage
	sqliteStorage, err := NewSQLiteStorage(cfg.DataPath)
	switch {
	case err == nil:
		storage = sqliteStorage
	case cfg.MemoryFallback:
		log.Warn("Не удалось инициализировать SQLite, используем память", "error", err)
		storage = NewMemoryStorage()
	default:
		log.Error("Не удалось инициализировать SQLite", "path", cfg.DataPath, "error", err)
		return nil, storageErr("open", err)
	}

	app := NewWithDeps(Deps{
		Device:    device,
		Storage:   storage,
		Transport: NewHTTPClient(cfg, log),
		Notifier:  NewFileSignal(cfg.SignalPath, log),
		Catalog:   catalog.New(cfg.TMDBAccessToken, log),
		Sync: SyncConfig{
			Enabled:   cfg.SyncEnabled,
			Interval:  cfg.SyncInterval,
			RetryBase: cfg.SyncRetryBase,
			RetryMax:  cfg.SyncRetryMax,
		},
		ConnectivityInterval: cfg.ConnectivityInterval,
	}, log)

	return app, nil
}

// NewWithDeps собирает приложение из готовых зависимостей
func NewWithDeps(deps Deps, log *slog.Logger) *App {
	if deps.Notifier == nil {
		deps.Notifier = NewBroadcaster()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}

	log = log.With(slog.String("device", deps.Device))

	return &App{
		log:       log,
		device:    deps.Device,
		transport: deps.Transport,
		storage:   deps.Storage,
		sync:      NewSyncService(deps.Storage, deps.Transport, deps.Notifier, deps.Sync, log),
		notifier:  deps.Notifier,
		monitor:   NewConnectivityMonitor(deps.Transport, deps.ConnectivityInterval, log),
		catalog:   deps.Catalog,
		validator: watchlist.NewValidator(),
		now:       deps.Now,
	}
}

// Ephemeral сообщает, что изменения не переживут завершение процесса
func (a *App) Ephemeral() bool {
	_, ok := a.storage.(*MemoryStorage)
	return ok
}

// DeviceID возвращает идентификатор устройства
func (a *App) DeviceID() watchlist.DeviceID {
	return a.device
}

// Toggle переключает запись в списке. Изменение и операция журнала
// сохраняются в одной транзакции, после чего запускается синхронизация.
// Ошибки синхронизации из Toggle не возвращаются.
func (a *App) Toggle(ctx context.Context, id string, meta watchlist.Metadata) (watchlist.Item, error) {
	item, err := a.storage.ApplyLocal(ctx, id, func(current *watchlist.Item) (watchlist.Item, watchlist.Operation, error) {
		now := a.now()

		var base watchlist.Item
		switch {
		case current != nil:
			base = *current
		case meta.Title == "":
			return watchlist.Item{}, watchlist.Operation{}, &watchlist.ValidationError{ID: id, Field: "title", Reason: "required for a new item"}
		default:
			base = watchlist.NewItem(id, meta, a.device, now)
		}

		next := base.Toggle(meta, a.device, now)
		if err := a.validator.ValidateItem(next); err != nil {
			return watchlist.Item{}, watchlist.Operation{}, err
		}

		op, err := watchlist.NewToggleOperation(next)
		if err != nil {
			return watchlist.Item{}, watchlist.Operation{}, err
		}
		return next, op, nil
	})
	if err != nil {
		a.log.Warn("Переключение не выполнено", "id", id, "error", err)
		return watchlist.Item{}, err
	}

	a.log.Info("Запись переключена",
		"id", item.ID,
		"in_watchlist", item.IsInWatchlist,
		"clock", item.VectorClock.Get(a.device),
	)

	a.notifier.Notify()
	a.sync.Trigger()

	return item, nil
}

// FetchMetadata получает данные записи из каталога
func (a *App) FetchMetadata(ctx context.Context, id string) (watchlist.Metadata, error) {
	if a.catalog == nil || !a.catalog.Configured() {
		return watchlist.Metadata{}, catalog.ErrNotConfigured
	}

	m, err := a.catalog.FetchItemMetadata(ctx, id)
	if err != nil {
		return watchlist.Metadata{}, fmt.Errorf("ошибка получения данных каталога: %w", err)
	}
	return watchlist.Metadata{Title: m.Title, PosterURL: m.PosterReference}, nil
}

func (a *App) Get(ctx context.Context, id string) (*watchlist.Item, error) {
	return a.storage.Get(ctx, id)
}

// List возвращает записи в списке, а при all - все известные записи
func (a *App) List(ctx context.Context, all bool) ([]watchlist.Item, error) {
	items, err := a.storage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if all {
		return items, nil
	}

	out := items[:0]
	for _, it := range items {
		if it.IsInWatchlist {
			out = append(out, it)
		}
	}
	return out, nil
}

func (a *App) PendingCount(ctx context.Context) (int, error) {
	return a.storage.CountPending(ctx)
}

// Sync выполняет раунд синхронизации немедленно
func (a *App) Sync(ctx context.Context) (*SyncResult, error) {
	return a.sync.Sync(ctx)
}

func (a *App) SyncStats() SyncStats {
	return a.sync.Stats()
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection(ctx context.Context) error {
	return a.transport.HealthCheck(ctx)
}

type statusReader interface {
	Status(ctx context.Context) (*domainsync.Status, error)
}

// RemoteStatus возвращает статус сервера, если транспорт его поддерживает
func (a *App) RemoteStatus(ctx context.Context) (*domainsync.Status, error) {
	sr, ok := a.transport.(statusReader)
	if !ok {
		return nil, errors.New("транспорт не поддерживает запрос статуса")
	}
	return sr.Status(ctx)
}

// Subscribe подписывает на изменения локальных записей
func (a *App) Subscribe() (<-chan struct{}, func()) {
	return a.notifier.Subscribe()
}

// Run запускает цикл синхронизации: плановые попытки с экспоненциальной
// задержкой после ошибок, догоняющая синхронизация при восстановлении
// соединения и наблюдение за сигналами других процессов
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	if fs, ok := a.notifier.(*FileSignal); ok {
		g.Go(func() error {
			return fs.Run(ctx)
		})
	}

	if a.sync.config.Enabled {
		online := a.monitor.Subscribe()

		g.Go(func() error {
			return a.monitor.Run(ctx)
		})
		g.Go(func() error {
			a.syncLoop(ctx, online)
			return nil
		})
	}

	a.log.Info("Клиент запущен", "sync_enabled", a.sync.config.Enabled)

	err := g.Wait()
	a.sync.Wait()
	return err
}

func (a *App) syncLoop(ctx context.Context, online <-chan bool) {
	timer := time.NewTimer(a.sync.NextRetryDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case up := <-online:
			if !up {
				continue
			}
			a.log.Info("Соединение восстановлено, запускаем синхронизацию")
			a.runSync(ctx)
		case <-timer.C:
			a.runSync(ctx)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(a.sync.NextRetryDelay())
	}
}

func (a *App) runSync(ctx context.Context) {
	if _, err := a.sync.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Debug("Раунд синхронизации не удался", "error", err, "next_attempt", a.sync.NextRetryDelay())
	}
}

// Close дожидается фоновой синхронизации и закрывает хранилище
func (a *App) Close() error {
	a.sync.Wait()
	return a.storage.Close()
}

type appCtxKey struct{}

// WithApp сохраняет приложение в контексте команды
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appCtxKey{}, app)
}

// FromContext извлекает приложение из контекста команды
func FromContext(ctx context.Context) (*App, bool) {
	app, ok := ctx.Value(appCtxKey{}).(*App)
	return app, ok && app != nil
}
