// Package main is the entry point for systock-dw.
package main

import (
	"fmt"
	"os"

	"systock/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
