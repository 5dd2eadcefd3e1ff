package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"watchkeeper/cmd/client/cmd/output"
	"watchkeeper/internal/app/client"
	domainsync "watchkeeper/internal/domain/sync"
	"watchkeeper/internal/domain/watchlist"

	"github.com/spf13/cobra"
)

var syncStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизировать с сервером",
	Long: `Отправляет журнал неподтвержденных изменений на сервер одним пакетом
и применяет канонические версии записей из ответа.

С флагом --status показывает состояние локального журнала и сервера.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := output.App(cmd)
		if err != nil {
			return err
		}

		if syncStatus {
			return showSyncStatus(cmd.Context(), cmd.OutOrStdout(), app, output.JSON(cmd))
		}
		return runSync(cmd.Context(), cmd.OutOrStdout(), app, output.JSON(cmd))
	},
}

func runSync(ctx context.Context, w io.Writer, app *client.App, asJSON bool) error {
	pending, err := app.PendingCount(ctx)
	if err != nil {
		return err
	}

	result, err := app.Sync(ctx)
	if errors.Is(err, watchlist.ErrSyncDisabled) {
		fmt.Fprintln(w, "⚠️  Синхронизация отключена в настройках")
		return nil
	}
	if err != nil {
		var tErr *watchlist.TransportError
		if errors.As(err, &tErr) {
			return fmt.Errorf("сервер недоступен, изменения (%d) сохранены локально: %w", pending, err)
		}
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	if asJSON {
		return output.WriteJSON(w, result)
	}

	if result.Uploaded == 0 {
		fmt.Fprintln(w, "Нет изменений для отправки")
		return nil
	}

	fmt.Fprintln(w, "✅ Синхронизация завершена")
	fmt.Fprintf(w, "Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Отправлено операций: %d\n", result.Uploaded)
	fmt.Fprintf(w, "Применено записей: %d\n", result.Applied)
	if result.Rejected > 0 {
		fmt.Fprintf(w, "Отклонено сервером: %d\n", result.Rejected)
	}
	if result.Invalid > 0 {
		fmt.Fprintf(w, "Отброшено некорректных записей: %d\n", result.Invalid)
	}
	return nil
}

type statusView struct {
	DeviceID string             `json:"deviceId"`
	Pending  int                `json:"pending"`
	Online   bool               `json:"online"`
	Stats    client.SyncStats   `json:"stats"`
	Server   *domainsync.Status `json:"server,omitempty"`
	Error    string             `json:"serverError,omitempty"`
}

func showSyncStatus(ctx context.Context, w io.Writer, app *client.App, asJSON bool) error {
	pending, err := app.PendingCount(ctx)
	if err != nil {
		return err
	}

	view := statusView{
		DeviceID: app.DeviceID(),
		Pending:  pending,
		Stats:    app.SyncStats(),
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := app.CheckConnection(checkCtx); err != nil {
		view.Error = err.Error()
	} else {
		view.Online = true
		status, err := app.RemoteStatus(checkCtx)
		if err != nil {
			view.Error = err.Error()
		} else {
			view.Server = status
		}
	}

	if asJSON {
		return output.WriteJSON(w, view)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Устройство:\t%s\n", view.DeviceID)
	fmt.Fprintf(tw, "Неотправленных операций:\t%d\n", view.Pending)

	if view.Online {
		fmt.Fprintf(tw, "Сервер:\t✅ доступен\n")
	} else {
		fmt.Fprintf(tw, "Сервер:\t❌ %s\n", view.Error)
	}

	st := view.Stats
	fmt.Fprintf(tw, "Раундов синхронизации:\t%d (ошибок: %d)\n", st.TotalSyncs, st.TotalErrors)
	fmt.Fprintf(tw, "Последняя успешная:\t%s\n", output.Time(st.LastSuccessful))
	if st.LastError != "" {
		fmt.Fprintf(tw, "Последняя ошибка:\t%s (%s)\n", st.LastError, output.Time(st.LastFailed))
	}

	if srv := view.Server; srv != nil {
		fmt.Fprintf(tw, "Записей на сервере:\t%d (в списке: %d)\n", srv.Items, srv.InWatchlist)
		fmt.Fprintf(tw, "Устройств:\t%d\n", srv.Devices)
		fmt.Fprintf(tw, "Последнее изменение:\t%s\n", output.Time(srv.LastUpdate))
		fmt.Fprintf(tw, "Пакетов / конфликтов:\t%d / %d\n", srv.Batches, srv.Conflicts)
	}
	return tw.Flush()
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
}
