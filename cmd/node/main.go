package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Grailmarket/gusd/internal/app"
	"github.com/Grailmarket/gusd/internal/infra"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// Pprof server, localhost only.
	go func() {
		slog.Info("Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	infra.PrintBanner(bootstrap.Config)

	// Periodic snapshots bound recovery replay time.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				keep := bootstrap.Config.Storage.SnapshotKeep
				if keep <= 0 {
					keep = 3
				}
				if err := bootstrap.Controller.SaveSnapshot(keep); err != nil {
					slog.Warn("Snapshot failed", slog.Any("error", err))
				}
			}
		}
	}()

	slog.InfoContext(ctx, "Node operational. Press Ctrl+C to exit.")
	<-ctx.Done()
	slog.InfoContext(ctx, "Shutting down gracefully...")
}
