package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// shutdownTimeout bounds the graceful shutdown.
const shutdownTimeout = 30 * time.Second

// run starts the servers and blocks until a shutdown signal arrives or
// the gateway server fails.
func run(ctx context.Context, app *application) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, app)
}

// serve runs the servers until ctx is done, then shuts down.
func serve(ctx context.Context, app *application) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start(ctx)
	}()

	if app.metricsServer != nil {
		go runMetricsServer(app.metricsServer, app.config.Observability.Metrics.Path, app.logger)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		app.logger.Info("received shutdown signal")
	case serveErr = <-errCh:
		if serveErr != nil {
			app.logger.Error("gateway server failed", zap.Error(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	app.shutdown(shutdownCtx)

	return serveErr
}

// shutdown stops the servers, waiting for in-flight requests, then
// flushes the tracer and closes the limiter store.
func (a *application) shutdown(ctx context.Context) {
	if a.metricsServer != nil {
		a.logger.Info("stopping metrics server")
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Error("failed to stop metrics server gracefully", zap.Error(err))
		}
	}

	if err := a.server.Stop(ctx); err != nil {
		a.logger.Error("failed to stop gateway gracefully", zap.Error(err))
	}

	a.closeResources(ctx)

	a.logger.Info("chatrelay stopped")
}
