package main

import (
	"fmt"
	"os"

	"rizesync/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file for local development
	cli.LoadEnvFile()

	return cli.NewRootCmd().Execute()
}
