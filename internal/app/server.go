package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 15 * time.Second

// Start serves HTTP in the background. The returned channel is closed when a
// termination signal arrives.
func (a *App) Start() <-chan struct{} {
	go func() {
		slog.Info("tabmerge http server listening", "address", a.httpServer.Addr)

		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	terminated := make(chan struct{})
	go func() {
		ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		slog.Info("termination signal received")
		close(terminated)
	}()

	return terminated
}

// ShutdownTimeout bounds Stop.
func (a *App) ShutdownTimeout() time.Duration {
	if d := a.config.GetDuration("server.shutdown_timeout"); d > 0 {
		return d
	}
	return defaultShutdownTimeout
}

// Stop drains HTTP, then background tasks, then the registered closers.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown http server", "error", err)
	}

	a.cancel()

	slog.InfoContext(ctx, "waiting for background tasks", "running", a.goroutine.Running())
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background task failed", "error", err)
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
			continue
		}
		slog.InfoContext(ctx, "resource closed", "name", c.name)
	}
}
