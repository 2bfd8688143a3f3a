package main

import "time"

// Flag structs decouple cobra from logic for testing.

type ServeFlags struct {
	ConfigPath string
	Daemonize  bool
	LogFile    string
}

type StatusFlags struct {
	ConfigPath string
	Name       string
	SubPath    string
}

type KillFlags struct {
	ConfigPath string
	Name       string
	SubPath    string
	Signal     int
}

type KillAllFlags struct {
	ConfigPath string
	SubPath    string
	Signal     int
}

type HistoryFlags struct {
	ConfigPath string
	Name       string
	Limit      int
}

// Remote commands talk to a running control server.

type NotifyFlags struct {
	Name       string
	APIUrl     string
	APITimeout time.Duration
}

type TerminateFlags struct {
	Name       string
	APIUrl     string
	APITimeout time.Duration
}

type ListFlags struct {
	APIUrl     string
	APITimeout time.Duration
}
