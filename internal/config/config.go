// Package config loads daemon configuration from TOML files. Every
// section has defaults tuned for a single daemon on one host, so a
// minimal file only needs a name.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/rdaemon/internal/bookkeeping"
	"github.com/loykin/rdaemon/internal/daemon"
	"github.com/loykin/rdaemon/internal/event"
	"github.com/loykin/rdaemon/internal/logger"
)

// Backend selects and parameterizes the bookkeeping backend.
type Backend struct {
	Type        string `mapstructure:"type"`         // file|cgroup (default file)
	Root        string `mapstructure:"root"`         // file backend root directory
	CgroupMount string `mapstructure:"cgroup_mount"` // cgroup filesystem mount point
	CgroupRoot  string `mapstructure:"cgroup_root"`  // group directory under the mount
}

// Event selects the wakeup event implementation.
type Event struct {
	Type         string        `mapstructure:"type"`          // cond|file (default cond)
	Dir          string        `mapstructure:"dir"`           // file event directory, required for type=file
	PollInterval time.Duration `mapstructure:"poll_interval"` // file event poll interval
}

// History configures the lifecycle audit log.
type History struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"` // sqlite path or sqlite:// DSN
}

// Server configures the optional HTTP control endpoint.
type Server struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"` // host:port (default 127.0.0.1:8951)
	// BasePath prefixes all routes, e.g. "/rdaemon".
	BasePath string `mapstructure:"base_path"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"` // host:port, empty serves on the control server
}

// Config is the top-level TOML structure.
type Config struct {
	Name         string        `mapstructure:"name"`
	SubPath      string        `mapstructure:"sub_path"`
	WakeupPeriod time.Duration `mapstructure:"wakeup_period"`
	Backend      Backend       `mapstructure:"backend"`
	Event        Event         `mapstructure:"event"`
	Log          logger.Config `mapstructure:"log"`
	History      History       `mapstructure:"history"`
	Server       Server        `mapstructure:"server"`
	Metrics      Metrics       `mapstructure:"metrics"`
}

// DefaultListen is the control server's default bind address.
const DefaultListen = "127.0.0.1:8951"

// Load reads and validates a TOML config file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend.Type == "" {
		c.Backend.Type = "file"
	}
	if c.Backend.Root == "" {
		c.Backend.Root = bookkeeping.DefaultFileRoot
	}
	if c.Backend.CgroupMount == "" {
		c.Backend.CgroupMount = bookkeeping.DefaultCgroupMount
	}
	if c.Backend.CgroupRoot == "" {
		c.Backend.CgroupRoot = bookkeeping.DefaultGroupRoot
	}
	if c.Event.Type == "" {
		c.Event.Type = "cond"
	}
	if c.Event.PollInterval <= 0 {
		c.Event.PollInterval = event.DefaultPollInterval
	}
	if c.WakeupPeriod == 0 {
		c.WakeupPeriod = daemon.MinWakeupPeriod
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
}

// Validate rejects configurations that cannot be acted on.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("daemon name is required")
	}
	switch strings.ToLower(c.Backend.Type) {
	case "file", "cgroup":
	default:
		return fmt.Errorf("unknown backend type %q", c.Backend.Type)
	}
	switch strings.ToLower(c.Event.Type) {
	case "cond":
	case "file":
		if c.Event.Dir == "" {
			return fmt.Errorf("event type %q requires event.dir", c.Event.Type)
		}
	default:
		return fmt.Errorf("unknown event type %q", c.Event.Type)
	}
	if c.WakeupPeriod < 0 {
		return fmt.Errorf("wakeup_period must be positive")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.History.Enabled && c.History.DSN == "" {
		return fmt.Errorf("history requires a dsn when enabled")
	}
	return nil
}

// NewBackend builds the configured bookkeeping backend.
func (c Config) NewBackend() (bookkeeping.Backend, error) {
	switch strings.ToLower(c.Backend.Type) {
	case "file":
		return &bookkeeping.FileBackend{Root: c.Backend.Root}, nil
	case "cgroup":
		return &bookkeeping.CgroupBackend{
			Mount: c.Backend.CgroupMount,
			Root:  c.Backend.CgroupRoot,
		}, nil
	}
	return nil, fmt.Errorf("unknown backend type %q", c.Backend.Type)
}

// NewEvent builds the configured wakeup event.
func (c Config) NewEvent() (event.Event, error) {
	switch strings.ToLower(c.Event.Type) {
	case "cond":
		return event.NewCond(), nil
	case "file":
		ev, err := event.NewFile(c.Event.Dir)
		if err != nil {
			return nil, err
		}
		ev.SetPollInterval(c.Event.PollInterval)
		return ev, nil
	}
	return nil, fmt.Errorf("unknown event type %q", c.Event.Type)
}
