// Package main is the entry point for the tunedeck command-line player.
//
// Build:
//
//	go build -o build/tunedeck ./cmd
//
// Run:
//
//	./build/tunedeck play ~/Music/album
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
