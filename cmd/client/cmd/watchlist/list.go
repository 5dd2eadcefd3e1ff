package watchlist

import (
	"fmt"

	"watchkeeper/cmd/client/cmd/output"

	"github.com/spf13/cobra"
)

var listAll bool

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Показать список просмотра",
	Long: `Показывает фильмы из локального списка. С флагом --all выводятся
также записи, убранные из списка.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := output.App(cmd)
		if err != nil {
			return err
		}

		items, err := app.List(cmd.Context(), listAll)
		if err != nil {
			return fmt.Errorf("ошибка получения списка: %w", err)
		}

		return output.Items(cmd.OutOrStdout(), items, output.JSON(cmd))
	},
}

func init() {
	ListCmd.Flags().BoolVar(&listAll, "all", false, "показать все известные записи")
}
