// Command tripload loads a CSV file of bike trips into Elasticsearch and
// prints how many trips started at each station, in 2-hour windows.
package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd := newRootCommand(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
