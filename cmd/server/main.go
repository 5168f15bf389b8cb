package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sitehrm/internal/app/server"
	"sitehrm/internal/platform/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, config.Load())
	if err != nil {
		return err
	}
	defer app.Close()
	slog.SetDefault(app.Logger)

	return app.Run(ctx)
}
