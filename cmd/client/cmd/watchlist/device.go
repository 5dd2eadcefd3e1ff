package watchlist

import (
	"fmt"

	"watchkeeper/cmd/client/cmd/output"

	"github.com/spf13/cobra"
)

var DeviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Показать идентификатор устройства",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := output.App(cmd)
		if err != nil {
			return err
		}

		if output.JSON(cmd) {
			return output.WriteJSON(cmd.OutOrStdout(), map[string]string{"deviceId": app.DeviceID()})
		}
		fmt.Fprintln(cmd.OutOrStdout(), app.DeviceID())
		return nil
	},
}
