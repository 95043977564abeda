package main

import (
	"os"
)

// This is the main entry point for the API server.
// Loads in all system components
// Exposes functionalities
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
