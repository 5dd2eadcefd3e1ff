package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"watchkeeper/internal/app/server/api"
	"watchkeeper/internal/app/server/config"
	domainsync "watchkeeper/internal/domain/sync"
	"watchkeeper/internal/infrastructure/storage/memory"
	"watchkeeper/internal/infrastructure/storage/postgres"
	"watchkeeper/internal/utils/logger"

	"golang.org/x/exp/slog"
)

func main() {
	conf := config.MustLoad()
	log := logger.NewWithLevel(conf.Env, conf.Logger.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, log); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, conf *config.Config, log *slog.Logger) error {
	var repo domainsync.Repository

	if conf.DB.DatabaseURI == "" {
		log.Warn("DATABASE_URI is empty, canonical set is kept in memory")
		repo = memory.NewWatchlistRepository()
	} else {
		storage, err := postgres.New(ctx, conf.DB.DatabaseURI)
		if err != nil {
			return err
		}
		defer storage.Close()
		repo = postgres.NewWatchlistRepository(storage.Pool(), log)
	}

	srv := &http.Server{
		Addr:              conf.Server.RunAddress,
		Handler:           api.New(conf, repo, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			slog.String("address", conf.Server.RunAddress),
			slog.String("env", conf.Env),
			slog.String("response_mode", string(conf.Sync.ResponseMode)),
			slog.Bool("auth", conf.Sync.Token != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", slog.Duration("timeout", conf.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
