// Command loom builds static sites from a typed, incremental
// dependency graph (spec.md §1).
package main

import (
	"fmt"
	"os"

	"github.com/loomweave/loom/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
