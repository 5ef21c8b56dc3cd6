// Package main provides the entry point for the pdfsearch CLI.
package main

import (
	"os"

	"github.com/mklauzo/pdf-search/cmd/pdfsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
