package main

import (
	"os"
)

// main runs the root command; wiring lives in app.go and the lifecycle in
// serve.go.
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
