package watchlist

import (
	"errors"
	"fmt"

	"watchkeeper/cmd/client/cmd/output"
	"watchkeeper/internal/app/client/catalog"
	"watchkeeper/internal/domain/watchlist"

	"github.com/spf13/cobra"
)

var (
	toggleTitle  string
	togglePoster string
)

var ToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Добавить фильм в список или убрать из него",
	Long: `Переключает запись в локальном списке. Изменение сохраняется сразу,
даже без сети, и отправляется на сервер в фоне.

Для новой записи нужно название: передайте --title или задайте
TMDB_ACCESS_TOKEN, чтобы получить его из каталога.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := output.App(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		id := args[0]

		meta := watchlist.Metadata{Title: toggleTitle, PosterURL: togglePoster}

		if meta.Title == "" {
			existing, err := app.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("ошибка чтения записи: %w", err)
			}
			if existing == nil {
				fetched, err := app.FetchMetadata(ctx, id)
				switch {
				case errors.Is(err, catalog.ErrNotConfigured):
					return fmt.Errorf("для новой записи укажите --title")
				case err != nil:
					return err
				}
				if meta.PosterURL == "" {
					meta.PosterURL = fetched.PosterURL
				}
				meta.Title = fetched.Title
			}
		}

		item, err := app.Toggle(ctx, id, meta)
		if err != nil {
			return fmt.Errorf("ошибка переключения: %w", err)
		}

		if output.JSON(cmd) {
			return output.WriteJSON(cmd.OutOrStdout(), item)
		}

		if item.IsInWatchlist {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s) добавлен в список\n", item.Title, item.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s) убран из списка\n", item.Title, item.ID)
		}
		return nil
	},
}

func init() {
	ToggleCmd.Flags().StringVar(&toggleTitle, "title", "", "название фильма")
	ToggleCmd.Flags().StringVar(&togglePoster, "poster", "", "адрес постера")
}
