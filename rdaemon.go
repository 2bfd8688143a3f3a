// Package rdaemon turns long-running work into supervised daemons: a
// wakeup event with sticky termination, a periodic scheduler that drives
// a task through setup/loop/teardown, and pluggable bookkeeping so
// daemons can be found and killed from any process on the host.
package rdaemon

import (
	"log/slog"
	"net/http"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/rdaemon/internal/bookkeeping"
	cfg "github.com/loykin/rdaemon/internal/config"
	"github.com/loykin/rdaemon/internal/daemon"
	"github.com/loykin/rdaemon/internal/event"
	"github.com/loykin/rdaemon/internal/history"
	"github.com/loykin/rdaemon/internal/logger"
	"github.com/loykin/rdaemon/internal/metrics"
	iapi "github.com/loykin/rdaemon/internal/server"
	"github.com/loykin/rdaemon/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Event = event.Event

type Daemon = daemon.Daemon

type PeriodicTask = daemon.PeriodicTask

type TaskFuncs = daemon.TaskFuncs

type AliveChecker = daemon.AliveChecker

type Backend = bookkeeping.Backend

type Config = cfg.Config

type LogConfig = logger.Config

type HistoryEvent = history.Event

type HistoryRecorder = history.Recorder

// Sentinel errors and well-known constants.
var (
	ErrNotActive       = bookkeeping.ErrNotActive
	ErrInvalidArgument = bookkeeping.ErrInvalidArgument
)

const (
	// Forever waits indefinitely in Event.WaitAndClear.
	Forever = event.Forever
	// MinWakeupPeriod is the smallest accepted scheduler period.
	MinWakeupPeriod = daemon.MinWakeupPeriod
	// ConfirmSignal also deletes the daemon's bookkeeping record.
	ConfirmSignal = bookkeeping.ConfirmSignal
)

// NewEvent creates an in-process wakeup event.
func NewEvent() Event { return event.NewCond() }

// NewFileEvent creates a file-backed event shared between processes
// attaching to the same directory.
func NewFileEvent(dir string) (Event, error) { return event.NewFile(dir) }

// NewDaemon wraps an event in a minimal daemon that blocks until
// terminated. A nil ev gets a fresh in-process event.
func NewDaemon(name string, ev Event, logger *slog.Logger) Daemon {
	return daemon.NewBase(name, ev, logger)
}

// NewPeriodicDaemon builds a daemon that drives task every period.
// Periods below MinWakeupPeriod are clamped with a warning.
func NewPeriodicDaemon(name string, task PeriodicTask, period time.Duration, ev Event, logger *slog.Logger) Daemon {
	return daemon.NewPeriodic(name, task, period, ev, logger)
}

// NewFileBackend keeps one PID file per daemon under root.
// An empty root uses the default directory under the OS temp dir.
func NewFileBackend(root string) Backend { return bookkeeping.NewFile(root) }

// NewCgroupBackend keeps one cgroup per daemon, so descendants are
// tracked and killed together. Linux with cgroup v2 only.
func NewCgroupBackend(mount string) Backend { return bookkeeping.NewCgroup(mount) }

// NewHistoryRecorder opens the SQLite lifecycle audit log at dsn.
func NewHistoryRecorder(dsn string) (HistoryRecorder, error) { return history.NewSQLite(dsn) }

// Supervisor facade

type Supervisor struct{ inner *supervisor.Supervisor }

// NewSupervisor prepares supervision of the daemon registered as
// name/subPath. recorder may be nil.
func NewSupervisor(name, subPath string, backend Backend, recorder HistoryRecorder, logger *slog.Logger) *Supervisor {
	return &Supervisor{inner: supervisor.New(name, subPath, backend, recorder, logger)}
}

func (s *Supervisor) Daemonize() error                     { return s.inner.Daemonize() }
func (s *Supervisor) AddExitHook(fn func())                { s.inner.AddExitHook(fn) }
func (s *Supervisor) HandleSignals(d Daemon) (stop func()) { return s.inner.HandleSignals(d) }
func (s *Supervisor) Supervise(d Daemon)                   { s.inner.Supervise(d) }

// LaunchSpec describes a daemon to run in a detached background process.
type LaunchSpec = supervisor.LaunchSpec

// Launch runs a daemon in the background via re-execution. See
// supervisor.Launch for the two-process contract.
func Launch(spec LaunchSpec, run func(log *slog.Logger) Daemon) (pid int, detached bool, err error) {
	return supervisor.Launch(spec, func(log *slog.Logger) daemon.Daemon { return run(log) })
}

// Detach re-executes the current binary in the background.
// Returns the child PID; the caller should exit.
func Detach(logPath string) (int, error) { return supervisor.Detach(logPath) }

// Detached reports whether this process is a Detach child.
func Detached() bool { return supervisor.Detached() }

// Kill signals a daemon through its bookkeeping record. Reports whether
// anything was signaled.
func Kill(b Backend, name, subPath string, sig syscall.Signal) bool {
	return b.Kill(name, subPath, sig)
}

// KillAll signals every daemon recorded under subPath, best-effort.
func KillAll(b Backend, subPath string, sig syscall.Signal) {
	b.KillAll(subPath, sig)
}

// LoadConfig reads and validates a TOML config file.
func LoadConfig(path string) (Config, error) { return cfg.Load(path) }

// NewHTTPServer starts the control server on addr. The returned router
// registry is where locally running daemons are added so the notify and
// terminate endpoints can reach them.
func NewHTTPServer(addr, basePath string, backend Backend, recorder HistoryRecorder) (*http.Server, *iapi.Registry) {
	r := iapi.NewRouter(iapi.NewRegistry(), backend, recorder, basePath)
	return iapi.NewServer(addr, r), r.Registry()
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
