package main

import (
	"os"

	"github.com/tengebook-dev/tengebook/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
