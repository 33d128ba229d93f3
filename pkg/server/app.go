package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"coincast/internal/usecase"
	"coincast/pkg/config"
	xhttp "coincast/pkg/http"
	applogger "coincast/pkg/logger"
)

// App encapsulates the entire application lifecycle: the refresh loop and
// the HTTP server, started together and stopped together.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	refresher  *usecase.Refresher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, refresher *usecase.Refresher, handler xhttp.Handler) *App {
	srv := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	)
	return &App{
		cfg:        cfg,
		logger:     l,
		refresher:  refresher,
		httpServer: srv,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := a.refresher.Start(ctx); err != nil && err != context.Canceled {
			a.logger.Error("refresher error", applogger.Error(err))
		}
	}()
	a.logger.Info("refresher started",
		applogger.Duration("interval", a.cfg.Refresh.Interval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(cancel)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(cancel context.CancelFunc) error {
	cancel() // stops the refresh loop

	shutdownCtx, done := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer done()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}
