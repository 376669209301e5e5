package main

import (
	"os"

	"github.com/seatwise-systems/seatwise/internal/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
