// Package supervisor ties a daemon's run loop to the host: it registers
// the process in bookkeeping, routes OS termination signals into the
// daemon's event, and guarantees the bookkeeping record is released when
// the run loop ends, however it ends.
package supervisor

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/loykin/rdaemon/internal/bookkeeping"
	"github.com/loykin/rdaemon/internal/daemon"
	"github.com/loykin/rdaemon/internal/history"
)

// Supervisor supervises one daemon in the current process.
type Supervisor struct {
	name     string
	subPath  string
	backend  bookkeeping.Backend
	recorder history.Recorder
	logger   *slog.Logger

	mu    sync.Mutex
	hooks []func()
	ran   bool
}

// New builds a supervisor for the daemon registered as name/subPath.
// recorder may be nil to skip audit logging.
func New(name, subPath string, backend bookkeeping.Backend, recorder history.Recorder, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		name:     name,
		subPath:  subPath,
		backend:  backend,
		recorder: recorder,
		logger:   logger,
	}
}

// Daemonize registers the current process in bookkeeping and arms an exit
// hook that releases the record on clean shutdown. A kill through the
// backend's confirm signal removes the record without this hook.
func (s *Supervisor) Daemonize() error {
	if err := s.backend.Daemonize(s.name, s.subPath); err != nil {
		return err
	}
	s.logger.Info("daemonized", "pid", os.Getpid(), "sub_path", s.subPath)
	s.record(history.EventDaemonized, "")
	s.AddExitHook(func() {
		s.backend.Release(s.name, s.subPath)
		if s.subPath != "" {
			s.backend.ClearEmpty(s.subPath)
		}
	})
	return nil
}

// AddExitHook registers fn to run when the supervised run loop ends.
// Hooks run once, in reverse registration order.
func (s *Supervisor) AddExitHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// RunExitHooks runs the registered hooks. Safe to call more than once;
// only the first call runs anything. Exposed so signal handlers that
// os.Exit can flush bookkeeping first.
func (s *Supervisor) RunExitHooks() {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return
	}
	s.ran = true
	hooks := s.hooks
	s.mu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// HandleSignals routes SIGTERM and SIGINT into d.Terminate so the run
// loop winds down instead of the process dying mid-task. The returned
// stop function uninstalls the handler.
func (s *Supervisor) HandleSignals(d daemon.Daemon) (stop func()) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGTERM, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				s.logger.Info("termination signal received", "signal", sig.String())
				d.Terminate()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// Supervise blocks running d, then releases bookkeeping via the exit
// hooks. The daemon's termination is recorded in the audit log.
func (s *Supervisor) Supervise(d daemon.Daemon) {
	defer s.RunExitHooks()
	d.Run()
	s.logger.Info("daemon finished", "pid", os.Getpid())
	s.record(history.EventTerminated, "")
}

func (s *Supervisor) record(t history.EventType, detail string) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(context.Background(), history.Event{
		Type:    t,
		Name:    s.name,
		SubPath: s.subPath,
		PID:     os.Getpid(),
		Detail:  detail,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "event", string(t), "error", err)
	}
}
