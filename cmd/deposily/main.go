package main

import (
	"os"

	"github.com/deposily/deposily/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
