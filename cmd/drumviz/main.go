package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"drumviz/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		os.Exit(exitCode(err))
	}
}

func formatError(err error) string {
	switch kind := services.Classify(err); kind {
	case "", "unknown":
		return fmt.Sprintf("drumviz: %v", err)
	default:
		return fmt.Sprintf("drumviz: %s error: %v", kind, err)
	}
}

func exitCode(err error) int {
	switch services.Classify(err) {
	case "canceled":
		return 130
	case "configuration", "validation":
		return 2
	case "locked":
		return 3
	default:
		return 1
	}
}
