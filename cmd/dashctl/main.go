// Command dashctl runs the dashboard's fetch, field discovery and render
// pipeline against arbitrary URLs from a terminal.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
