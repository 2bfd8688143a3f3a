package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/rdaemon"
	"github.com/loykin/rdaemon/internal/history"
	"github.com/loykin/rdaemon/internal/metrics"
	"github.com/loykin/rdaemon/internal/server"
	"github.com/loykin/rdaemon/internal/supervisor"
)

// runServe starts the control server as a supervised daemon. With
// --daemonize the foreground process re-executes itself into the
// background and exits.
func runServe(f ServeFlags) error {
	if f.ConfigPath == "" {
		return fmt.Errorf("--config is required for serve")
	}
	cfg, err := rdaemon.LoadConfig(f.ConfigPath)
	if err != nil {
		return err
	}

	if f.Daemonize && !rdaemon.Detached() {
		pid, err := rdaemon.Detach(f.LogFile)
		if err != nil {
			return err
		}
		fmt.Printf("daemon started with PID %d\n", pid)
		return nil
	}

	return serve(cfg)
}

func serve(cfg rdaemon.Config) error {
	log, logCloser, err := cfg.Log.New(cfg.Name)
	if err != nil {
		return err
	}
	if logCloser != nil {
		defer func() { _ = logCloser.Close() }()
	}

	be, err := cfg.NewBackend()
	if err != nil {
		return err
	}

	var rec history.Recorder
	if cfg.History.Enabled {
		rec, err = history.NewSQLite(cfg.History.DSN)
		if err != nil {
			return err
		}
		defer func() { _ = rec.Close() }()
	}

	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return err
		}
		if cfg.Metrics.Listen != "" {
			go func() {
				if err := rdaemon.ServeMetrics(cfg.Metrics.Listen); err != nil {
					log.Error("metrics server failed", "addr", cfg.Metrics.Listen, "error", err)
				}
			}()
		}
	}

	ev, err := cfg.NewEvent()
	if err != nil {
		return err
	}

	router := server.NewRouter(server.NewRegistry(), be, rec, cfg.Server.BasePath)
	d := server.NewDaemon(cfg.Name, cfg.Server.Listen, router, ev, log)

	sup := supervisor.New(cfg.Name, cfg.SubPath, be, rec, log)
	if err := sup.Daemonize(); err != nil {
		return err
	}
	stop := sup.HandleSignals(d)
	defer stop()

	sup.Supervise(d)
	return nil
}
