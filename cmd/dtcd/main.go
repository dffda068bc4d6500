package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pkt.systems/pslog"
)

func main() {
	logger := pslog.NewStructured(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(logger).ExecuteContext(ctx); err != nil {
		logger.Error("dtcd exited with error", "error", err)
		os.Exit(1)
	}
}
