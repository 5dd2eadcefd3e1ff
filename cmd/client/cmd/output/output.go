// Package output форматирует вывод команд клиента
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"watchkeeper/internal/app/client"
	"watchkeeper/internal/domain/watchlist"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const timeLayout = "2006-01-02 15:04:05"

// App возвращает приложение из контекста команды
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := client.FromContext(cmd.Context())
	if !ok {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}

// JSON проверяет флаг --json
func JSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// IsTerminal проверяет, выводим ли в терминал
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Items печатает записи таблицей в терминал или строками через табуляцию
func Items(w io.Writer, items []watchlist.Item, asJSON bool) error {
	if asJSON {
		if items == nil {
			items = []watchlist.Item{}
		}
		return WriteJSON(w, items)
	}

	if IsTerminal() {
		if len(items) == 0 {
			fmt.Fprintln(w, "Список пуст")
			return nil
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tНАЗВАНИЕ\tВ СПИСКЕ\tОБНОВЛЕНО\tУСТРОЙСТВО\tЧАСЫ")
		for _, it := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				it.ID, it.Title, yesNo(it.IsInWatchlist),
				it.UpdatedAt.Local().Format(timeLayout), short(it.LastUpdatedBy), Clock(it.VectorClock))
		}
		return tw.Flush()
	}

	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
			it.ID, it.Title, it.IsInWatchlist, it.UpdatedAt.UTC().Format(time.RFC3339Nano), it.LastUpdatedBy)
	}
	return nil
}

// Item печатает одну запись подробно
func Item(w io.Writer, it watchlist.Item, asJSON bool) error {
	if asJSON {
		return WriteJSON(w, it)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", it.ID)
	fmt.Fprintf(tw, "Название:\t%s\n", it.Title)
	if it.PosterURL != "" {
		fmt.Fprintf(tw, "Постер:\t%s\n", it.PosterURL)
	}
	fmt.Fprintf(tw, "В списке:\t%s\n", yesNo(it.IsInWatchlist))
	fmt.Fprintf(tw, "Создано:\t%s\n", it.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(tw, "Обновлено:\t%s\n", it.UpdatedAt.Local().Format(timeLayout))
	fmt.Fprintf(tw, "Устройство:\t%s\n", it.LastUpdatedBy)
	fmt.Fprintf(tw, "Часы:\t%s\n", Clock(it.VectorClock))
	return tw.Flush()
}

// Clock форматирует векторные часы в устойчивом порядке
func Clock(c watchlist.VectorClock) string {
	devices := c.Devices()
	parts := make([]string, 0, len(devices))
	for _, d := range devices {
		parts = append(parts, fmt.Sprintf("%s:%d", short(d), c[d]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func Time(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

// short сокращает uuid устройства для таблиц
func short(device string) string {
	if len(device) > 8 {
		return device[:8]
	}
	return device
}
