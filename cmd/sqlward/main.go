// Command sqlward is the CLI entry point for the SQLWard engine.
package main

import (
	"os"

	"github.com/sqlward/sqlward/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
