package main

import (
	"os"

	"github.com/forgeide/forge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
