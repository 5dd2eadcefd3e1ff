package main

import "watchkeeper/cmd/client/cmd"

func main() {
	cmd.Execute()
}
