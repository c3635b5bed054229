package main

import (
	"os"

	"github.com/kverel/edge-search-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
