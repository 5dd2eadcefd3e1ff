package sync

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"watchkeeper/cmd/client/cmd/output"

	"github.com/spf13/cobra"
)

var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Фоновая синхронизация и наблюдение за изменениями",
	Long: `Запускает цикл синхронизации: плановые попытки с экспоненциальной
задержкой после ошибок, догоняющую синхронизацию при восстановлении
соединения и вывод списка при изменениях, в том числе сделанных другими
процессами на этом устройстве. Завершается по Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := output.App(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		changes, unsubscribe := app.Subscribe()
		defer unsubscribe()

		w := cmd.OutOrStdout()
		asJSON := output.JSON(cmd)

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-changes:
					if !ok {
						return
					}
					printList(ctx, cmd, asJSON)
				}
			}
		}()

		fmt.Fprintf(w, "Устройство %s, ожидание изменений (Ctrl+C для выхода)\n", app.DeviceID())
		printList(ctx, cmd, asJSON)

		return app.Run(ctx)
	},
}

func printList(ctx context.Context, cmd *cobra.Command, asJSON bool) {
	app, err := output.App(cmd)
	if err != nil {
		return
	}

	items, err := app.List(ctx, false)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Ошибка получения списка: %v\n", err)
		return
	}

	if !asJSON {
		fmt.Fprintln(cmd.OutOrStdout(), "---")
	}
	if err := output.Items(cmd.OutOrStdout(), items, asJSON); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Ошибка вывода: %v\n", err)
	}
}
