// Package main is the entry point for the telereso CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pitabwire/telereso/cmd/telereso/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.New().Execute(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "telereso: %v\n", err)
		stop()
		os.Exit(1)
	}
}
