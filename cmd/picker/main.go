package main

import (
	"os"

	"StockPicker/cmd/picker/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
