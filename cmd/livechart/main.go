// Command livechart lays out stacked column charts from CSV files and
// reports the drawing instructions they produce.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "livechart:", err)
		os.Exit(1)
	}
}
