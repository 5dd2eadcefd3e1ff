package cmd

import (
	"fmt"
	"io"
	"os"

	"watchkeeper/internal/app/client"
	"watchkeeper/internal/app/client/config"
	"watchkeeper/internal/utils/logger"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

var (
	cfgFile   string
	serverURL string
	noSync    bool

	app       *client.App
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "watchkeeper",
	Short: "Watchkeeper - список просмотра, синхронизируемый между устройствами",
	Long: `Watchkeeper хранит список фильмов для просмотра локально и работает
без сети. Изменения записываются в журнал и отправляются на сервер, когда
соединение доступно; конфликты между устройствами разрешаются векторными часами.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Переопределяем настройки из флагов командной строки
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}
	if noSync {
		cfg.SyncEnabled = false
	}

	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("ошибка создания каталога данных: %w", err)
	}

	// Логи пишутся в файл, чтобы не смешиваться с выводом команд
	var log *slog.Logger
	log, logCloser, err = logger.NewFile(cfg.Env, cfg.LogLevel, cfg.LogPath)
	if err != nil {
		log = logger.NewWithLevel(cfg.Env, "error", os.Stderr)
		logCloser = nil
	}

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}
	if app.Ephemeral() {
		fmt.Fprintln(cmd.ErrOrStderr(), "⚠️  Локальная база недоступна, изменения не сохранятся после выхода")
	}

	cmd.SetContext(client.WithApp(cmd.Context(), app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	var err error
	if app != nil {
		err = app.Close()
	}
	if logCloser != nil {
		_ = logCloser.Close()
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл (yaml, json, toml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера синхронизации")
	rootCmd.PersistentFlags().BoolVar(&noSync, "offline", false, "не синхронизировать с сервером")
	rootCmd.PersistentFlags().Bool("json", false, "вывод в формате JSON")
}
