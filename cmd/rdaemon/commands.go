package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"syscall"

	"github.com/loykin/rdaemon"
)

// backendFrom builds a bookkeeping backend from the config file, or the
// default file backend when no config is given.
func backendFrom(configPath string) (rdaemon.Backend, error) {
	if configPath == "" {
		return rdaemon.NewFileBackend(""), nil
	}
	cfg, err := rdaemon.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return cfg.NewBackend()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type statusResult struct {
	Name    string `json:"name"`
	SubPath string `json:"sub_path,omitempty"`
	Running bool   `json:"running"`
	PIDs    []int  `json:"pids,omitempty"`
}

func runStatus(f StatusFlags) error {
	if f.Name == "" {
		return fmt.Errorf("daemon name is required")
	}
	be, err := backendFrom(f.ConfigPath)
	if err != nil {
		return err
	}
	res := statusResult{Name: f.Name, SubPath: f.SubPath}
	if pids, err := be.PIDs(f.Name, f.SubPath); err == nil {
		res.PIDs = pids
		res.Running = be.IsRunning(f.Name, f.SubPath)
	}
	printJSON(res)
	return nil
}

func runKill(f KillFlags) error {
	if f.Name == "" {
		return fmt.Errorf("daemon name is required")
	}
	if f.Signal <= 0 {
		return fmt.Errorf("signal must be a positive signal number")
	}
	be, err := backendFrom(f.ConfigPath)
	if err != nil {
		return err
	}
	killed := rdaemon.Kill(be, f.Name, f.SubPath, syscall.Signal(f.Signal))
	printJSON(map[string]any{"name": f.Name, "killed": killed})
	if !killed {
		return fmt.Errorf("nothing signaled for %s", f.Name)
	}
	return nil
}

func runKillAll(f KillAllFlags) error {
	if f.Signal <= 0 {
		return fmt.Errorf("signal must be a positive signal number")
	}
	be, err := backendFrom(f.ConfigPath)
	if err != nil {
		return err
	}
	rdaemon.KillAll(be, f.SubPath, syscall.Signal(f.Signal))
	return nil
}

func runHistory(f HistoryFlags) error {
	if f.ConfigPath == "" {
		return fmt.Errorf("--config is required for history")
	}
	cfg, err := rdaemon.LoadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is not enabled in %s", f.ConfigPath)
	}
	rec, err := rdaemon.NewHistoryRecorder(cfg.History.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = rec.Close() }()
	events, err := rec.Recent(context.Background(), f.Name, f.Limit)
	if err != nil {
		return err
	}
	printJSON(events)
	return nil
}

func runNotify(f NotifyFlags) error {
	if f.Name == "" {
		return fmt.Errorf("daemon name is required")
	}
	return NewAPIClient(f.APIUrl, f.APITimeout).Notify(f.Name)
}

func runTerminate(f TerminateFlags) error {
	if f.Name == "" {
		return fmt.Errorf("daemon name is required")
	}
	client := NewAPIClient(f.APIUrl, f.APITimeout)
	if err := client.Terminate(f.Name); err != nil {
		return err
	}
	terminated, err := client.Terminated(f.Name)
	if err != nil {
		return err
	}
	printJSON(map[string]any{"name": f.Name, "terminated": terminated})
	return nil
}

func runList(f ListFlags) error {
	daemons, err := NewAPIClient(f.APIUrl, f.APITimeout).List()
	if err != nil {
		return err
	}
	printJSON(daemons)
	return nil
}
