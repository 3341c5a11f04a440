// Command harvest runs and inspects auction harvests from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"auction-harvester/cmd/harvest/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	commands.ExecuteContext(ctx)
}
