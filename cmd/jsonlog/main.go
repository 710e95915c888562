package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	clientcmd "github.com/joelverhagen/json-append-log/internal/cmd/client"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Standard library logs (used by Pebble) go through the configured logger.
	rootCmd := clientcmd.NewRoot(&clientcmd.Globals{RedirectStdLog: true})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, clientcmd.ErrDeclined) || errors.Is(err, clientcmd.ErrPrecondition) {
			fmt.Fprintln(os.Stderr, "nothing was changed")
		}
		cancel()
		os.Exit(1)
	}
}
