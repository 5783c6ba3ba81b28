// Package main is the entry point for the benthic CLI.
package main

import (
	"os"

	"github.com/benthic/benthic/cmd/benthic/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
