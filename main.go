package main

import (
	"os"

	"mtg_card_prices/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
