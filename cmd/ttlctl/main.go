// Package main provides ttlctl, a command line client for the TTL cache daemon.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
