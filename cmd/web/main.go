package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"salespulse/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "salespulse: %v\n", err)
		os.Exit(1)
	}

	a.Preload(ctx)

	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "salespulse: %v\n", err)
		os.Exit(1)
	}
}
