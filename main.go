package main

import (
	"os"

	"github.com/lumahq/companion/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
