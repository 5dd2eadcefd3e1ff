package cmd

import (
	"watchkeeper/cmd/client/cmd/sync"
	"watchkeeper/cmd/client/cmd/watchlist"
)

func init() {
	// Команды работы со списком
	rootCmd.AddCommand(watchlist.ToggleCmd)
	rootCmd.AddCommand(watchlist.ListCmd)
	rootCmd.AddCommand(watchlist.GetCmd)
	rootCmd.AddCommand(watchlist.DeviceCmd)

	// Синхронизация
	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(sync.WatchCmd)
}
