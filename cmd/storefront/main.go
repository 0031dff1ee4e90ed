// Command storefront is the Storefront Console: an interactive terminal
// client for the store API plus scriptable one-shot commands.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/storefront-console/storefront/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
