// Command qgraphctl is a small demonstration driver for the qgraph engine:
// a thin main.go delegating to a cobra root command defined alongside its
// subcommands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
