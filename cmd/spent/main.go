package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/cleared-dev/spent/internal/commands"
)

func main() {
	// SPENT_* overrides may live in a .env next to the book.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
