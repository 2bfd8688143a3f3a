package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/loykin/rdaemon/internal/daemon"
	"github.com/loykin/rdaemon/internal/event"
)

// shutdownGrace bounds how long in-flight requests may delay termination.
const shutdownGrace = 5 * time.Second

// Daemon runs the control server as a daemon: Run serves until Terminate,
// then drains in-flight requests and returns. It registers itself in the
// router's registry so it can be terminated through its own endpoint.
type Daemon struct {
	*daemon.Base
	router *Router
	addr   string
	logger *slog.Logger
}

// NewDaemon wraps router in a daemon serving on addr.
func NewDaemon(name, addr string, router *Router, ev event.Event, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{
		Base:   daemon.NewBase(name, ev, logger),
		router: router,
		addr:   addr,
		logger: logger,
	}
	router.Registry().Add(name, d)
	return d
}

// Run serves HTTP until the daemon is terminated. A listener failure ends
// the run early; termination state is set so callers observe a finished
// daemon either way.
func (d *Daemon) Run() {
	srv := &http.Server{
		Addr:              d.addr,
		Handler:           d.router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	failed := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
		close(failed)
	}()

	done := make(chan struct{})
	go func() {
		d.Base.Run()
		close(done)
	}()

	d.logger.Info("control server listening", "addr", d.addr)
	select {
	case <-done:
	case err := <-failed:
		if err != nil {
			d.logger.Error("control server failed", "addr", d.addr, "error", err)
		}
		d.Terminate()
		<-done
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		d.logger.Warn("control server shutdown", "error", err)
	}
	d.logger.Info("control server stopped", "addr", d.addr)
}
