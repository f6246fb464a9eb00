package main

import (
	"fmt"
	"os"

	"dimconv/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dimconv: %v\n", err)
		os.Exit(1)
	}
}
