package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
)

// run starts the application and blocks until a shutdown signal.
func run(ctx context.Context, app *application, logger observability.Logger) {
	if err := app.start(ctx); err != nil {
		logger.Fatal("failed to start", observability.Error(err))
		return
	}
	waitForShutdown(app, logger)
}

func (a *application) start(ctx context.Context) error {
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			return err
		}
	}
	return a.server.Start(ctx)
}

// waitForShutdown waits for a shutdown signal and stops gracefully.
func waitForShutdown(app *application, logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))

	timeout := app.config.ShutdownTimeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app.shutdown(shutdownCtx, logger)
	logger.Info("managedproxy stopped")
}

func (a *application) shutdown(ctx context.Context, logger observability.Logger) {
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			logger.Error("failed to stop views watcher", observability.Error(err))
		}
	}
	if err := a.server.Stop(ctx); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}
}
