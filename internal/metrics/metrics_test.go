package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestWakeupKinds(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	IncWakeup("d1", true)
	IncWakeup("d1", true)
	IncWakeup("d1", false)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "rdaemon_daemon_wakeups_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var kind string
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "kind" {
					kind = lp.GetValue()
				}
			}
			got[kind] = m.GetCounter().GetValue()
		}
	}
	if got["scheduled"] != 2 || got["notified"] != 1 {
		t.Fatalf("wakeup counts = %v, want scheduled=2 notified=1", got)
	}
}

func TestHelpersNoopBeforeRegister(t *testing.T) {
	// Fresh process state cannot be guaranteed here, but the helpers must
	// never panic regardless of registration state.
	IncTaskFailure("x", "setup")
	IncTermination("x")
	RunLoopStarted()
	RunLoopFinished()
}
