// Package main is the entry point for the gnewcash CLI.
package main

import (
	"os"

	"github.com/gnewcash/gnewcash-go/cmd/gnewcash/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
