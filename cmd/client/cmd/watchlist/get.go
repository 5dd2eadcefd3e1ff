package watchlist

import (
	"fmt"

	"watchkeeper/cmd/client/cmd/output"

	"github.com/spf13/cobra"
)

var GetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Показать запись",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := output.App(cmd)
		if err != nil {
			return err
		}

		item, err := app.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ошибка чтения записи: %w", err)
		}
		if item == nil {
			return fmt.Errorf("запись %s не найдена", args[0])
		}

		return output.Item(cmd.OutOrStdout(), *item, output.JSON(cmd))
	},
}
