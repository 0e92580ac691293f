package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"VolaPulse/internal/domain/repository"
	"VolaPulse/pkg/config"
	xhttp "VolaPulse/pkg/http"
	"VolaPulse/pkg/logger"
)

// App encapsulates the worker lifecycle: one broker connection, one consume
// loop, one ops server. Every exit path closes what it opened.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	broker     repository.Broker
	pipeline   repository.Handler
	tracker    repository.RedeliveryTracker
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *logger.Logger,
	broker repository.Broker,
	pipeline repository.Handler,
	tracker repository.RedeliveryTracker,
	httpServer *xhttp.Server,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		broker:     broker,
		pipeline:   pipeline,
		tracker:    tracker,
		httpServer: httpServer,
	}
}

// Run starts the worker and blocks until interrupted or the consume loop
// fails fatally. A clean interrupt returns nil.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		return err
	}

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- a.broker.Consume(ctx, a.pipeline)
	}()
	a.log.Info("consumer started",
		logger.String("queue_type", a.cfg.Queue.Type),
		logger.String("output_mode", a.cfg.Output.Mode))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case runErr = <-consumeErr:
		// Consume only returns early on a fatal error (connect exhausted,
		// consume setup failure). The worker must not run without a broker.
		if runErr != nil {
			a.log.Error("consumer failed", logger.Error(runErr))
		}
	case <-sigCh:
		a.log.Info("shutdown signal received")
		cancel()
		// Let the consume loop finish its in-flight message and return.
		if err := <-consumeErr; err != nil {
			a.log.Warn("consumer stop error", logger.Error(err))
		}
	}

	a.shutdown()
	return runErr
}

// shutdown closes all resources, continuing past individual failures.
func (a *App) shutdown() {
	if err := a.broker.Close(); err != nil {
		a.log.Warn("broker close error", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}

	if a.tracker != nil {
		if err := a.tracker.Close(); err != nil {
			a.log.Warn("tracker close error", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
