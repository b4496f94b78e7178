package main

import (
	"os"

	"ratchetd/cmd/ratchetd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
