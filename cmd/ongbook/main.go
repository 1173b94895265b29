package main

import (
	"os"

	"github.com/ongbook-dev/ongbook/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
