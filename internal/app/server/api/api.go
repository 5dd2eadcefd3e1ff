// GET  /api/v1/health        # Проверка доступности (публичный)
// POST /api/watchlist/sync   # Слияние пакета операций (токен)
// GET  /api/watchlist        # Канонический список (токен)
// GET  /api/sync/status      # Статус слияния (токен)

package api

import (
	healthAPI "watchkeeper/internal/app/server/api/http/health"
	"watchkeeper/internal/app/server/api/http/middleware"
	"watchkeeper/internal/app/server/api/http/middleware/auth"
	"watchkeeper/internal/app/server/api/http/middleware/logger"
	syncAPI "watchkeeper/internal/app/server/api/http/sync"
	"watchkeeper/internal/app/server/config"
	domainsync "watchkeeper/internal/domain/sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"
)

type Handlers struct {
	Health *healthAPI.Handler
	Sync   *syncAPI.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register
func New(cfg *config.Config, repo domainsync.Repository, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()
	mux.Use(chimw.Recoverer)

	humaConfig := huma.DefaultConfig("Watchkeeper API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(cfg, repo, log)
	h.Health.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	return mux
}

func handlers(cfg *config.Config, repo domainsync.Repository, log *slog.Logger) *Handlers {
	authMW := auth.New(cfg.Sync.Token, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	syncService := domainsync.NewService(repo, log.With(slog.String("component", "merge_service")), &domainsync.ServiceConfig{
		ResponseMode: cfg.Sync.ResponseMode,
	})

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(syncService, healthAPI.Info{
		ResponseMode: syncService.ResponseMode(),
		AuthRequired: authMW.Enabled(),
	}, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(authMW.Middleware())
	syncHandler := syncAPI.NewHandler(syncService, log, middlewares.GetAllAndClear(), authMW.Enabled())

	return &Handlers{
		Health: healthHandler,
		Sync:   syncHandler,
	}
}
