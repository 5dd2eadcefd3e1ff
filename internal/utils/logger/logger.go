package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"watchkeeper/internal/app/server/config"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New создает логгер для окружения: local - цветной текст, dev - JSON с debug,
// prod - JSON с info
func New(env string) *slog.Logger {
	return NewWithLevel(env, "", os.Stdout)
}

// NewWithLevel позволяет переопределить уровень (LOG_LEVEL) и вывод
func NewWithLevel(env, level string, w io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = slog.New(newPrettyHandler(w, &slog.HandlerOptions{Level: levelOr(level, slog.LevelDebug)}))
	case config.EnvDev:
		log = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelOr(level, slog.LevelDebug)}))
	default:
		log = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelOr(level, slog.LevelInfo)}))
	}

	return log
}

// NewFile пишет JSON-лог в файл с ротацией. Клиентский CLI логирует туда,
// чтобы не смешивать журнал с выводом команд.
func NewFile(env, level, path string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	def := slog.LevelInfo
	if env != config.EnvProd {
		def = slog.LevelDebug
	}

	log := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelOr(level, def)}))
	return log, w, nil
}

func setupPrettySlog() *slog.Logger {
	return slog.New(newPrettyHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// ParseLevel разбирает уровень из конфигурации, ok=false для пустой или неизвестной строки
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

func levelOr(s string, def slog.Level) slog.Level {
	if l, ok := ParseLevel(s); ok {
		return l
	}
	return def
}
