// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/pbartkiw/aviary/cmd"
	"github.com/pbartkiw/aviary/internal/observability"
)

// main is the entry point for the aviary CLI.
func main() {
	// Set up a context that listens for interrupt signals (SIGINT, SIGTERM)
	// so remote sessions are released on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
