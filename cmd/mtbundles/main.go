package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mt-sre/managed-tenants-cli/cmd/mtbundles/root"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.NewCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
