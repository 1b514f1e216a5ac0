package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joacominatel/dblab/internal/cli"
	"github.com/joacominatel/dblab/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, cli.Env{Launch: tui.Launch}); err != nil {
		stop()
		os.Exit(1)
	}
}
