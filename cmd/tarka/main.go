package main

import (
	"os"

	"github.com/tarkyaio/tarka/cmd/tarka/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
