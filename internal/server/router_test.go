package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/loykin/rdaemon/internal/bookkeeping"
	"github.com/loykin/rdaemon/internal/daemon"
	"github.com/loykin/rdaemon/internal/history"
)

func newTestRouter(t *testing.T) (*Router, *bookkeeping.FileBackend, history.Recorder) {
	t.Helper()
	be := &bookkeeping.FileBackend{Root: t.TempDir()}
	rec, err := history.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	t.Cleanup(func() { _ = rec.Close() })
	return NewRouter(NewRegistry(), be, rec, ""), be, rec
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNotifyAndTerminateRoutes(t *testing.T) {
	r, _, _ := newTestRouter(t)
	d := daemon.NewBase("svc", nil, nil)
	r.Registry().Add("svc", d)
	h := r.Handler()

	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()

	if w := do(t, h, http.MethodPost, "/notify?name=svc"); w.Code != http.StatusOK {
		t.Fatalf("notify: %d %s", w.Code, w.Body)
	}
	if w := do(t, h, http.MethodGet, "/terminated?name=svc"); w.Code != http.StatusOK {
		t.Fatalf("terminated: %d", w.Code)
	} else {
		var resp terminatedResp
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Terminated {
			t.Fatalf("unexpected terminated response: %s (%v)", w.Body, err)
		}
	}
	if w := do(t, h, http.MethodPost, "/terminate?name=svc"); w.Code != http.StatusOK {
		t.Fatalf("terminate: %d %s", w.Code, w.Body)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("daemon did not stop after terminate route")
	}
	if w := do(t, h, http.MethodGet, "/terminated?name=svc"); w.Code != http.StatusOK {
		t.Fatalf("terminated: %d", w.Code)
	} else {
		var resp terminatedResp
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if !resp.Terminated {
			t.Fatalf("expected terminated=true: %s", w.Body)
		}
	}
}

func TestRoutesRejectUnknownAndUnsafeNames(t *testing.T) {
	r, _, _ := newTestRouter(t)
	h := r.Handler()

	if w := do(t, h, http.MethodPost, "/notify?name=ghost"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown daemon: %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/notify"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing name: %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/notify?name=..%2Fetc"); w.Code != http.StatusBadRequest {
		t.Fatalf("traversal name: %d", w.Code)
	}
}

func TestListAndInspectRoutes(t *testing.T) {
	r, be, _ := newTestRouter(t)
	r.Registry().Add("beta", daemon.NewBase("beta", nil, nil))
	r.Registry().Add("alpha", daemon.NewBase("alpha", nil, nil))
	h := r.Handler()

	w := do(t, h, http.MethodGet, "/daemons")
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var lr listResp
	if err := json.Unmarshal(w.Body.Bytes(), &lr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lr.Daemons) != 2 || lr.Daemons[0] != "alpha" || lr.Daemons[1] != "beta" {
		t.Fatalf("unexpected list: %v", lr.Daemons)
	}

	// Register this test process in bookkeeping and inspect it.
	if err := be.Daemonize("self", ""); err != nil {
		t.Fatalf("daemonize: %v", err)
	}
	w = do(t, h, http.MethodGet, "/daemons/self")
	if w.Code != http.StatusOK {
		t.Fatalf("inspect: %d %s", w.Code, w.Body)
	}
	var ir inspectResp
	if err := json.Unmarshal(w.Body.Bytes(), &ir); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ir.Running || len(ir.PIDs) != 1 || ir.PIDs[0] != os.Getpid() {
		t.Fatalf("unexpected inspect: %+v", ir)
	}

	// A daemon with no record reports not running.
	w = do(t, h, http.MethodGet, "/daemons/gone")
	var ir2 inspectResp
	_ = json.Unmarshal(w.Body.Bytes(), &ir2)
	if ir2.Running || len(ir2.PIDs) != 0 {
		t.Fatalf("expected inactive daemon: %+v", ir2)
	}
}

func TestKillRouteValidation(t *testing.T) {
	r, _, _ := newTestRouter(t)
	h := r.Handler()

	if w := do(t, h, http.MethodDelete, "/daemons/victim?signal=bogus"); w.Code != http.StatusBadRequest {
		t.Fatalf("bogus signal: %d", w.Code)
	}
	// No record at all still answers 200 with killed=false.
	w := do(t, h, http.MethodDelete, "/daemons/ghost")
	if w.Code != http.StatusOK {
		t.Fatalf("kill without record: %d", w.Code)
	}
	var kr killResp
	if err := json.Unmarshal(w.Body.Bytes(), &kr); err != nil || kr.Killed {
		t.Fatalf("expected killed=false: %s (%v)", w.Body, err)
	}
}

func TestHistoryRoute(t *testing.T) {
	r, _, rec := newTestRouter(t)
	h := r.Handler()

	if err := rec.Record(t.Context(), history.Event{Type: history.EventDaemonized, Name: "a", PID: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}
	w := do(t, h, http.MethodGet, "/history?name=a")
	if w.Code != http.StatusOK {
		t.Fatalf("history: %d %s", w.Code, w.Body)
	}
	var events []history.Event
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil || len(events) != 1 {
		t.Fatalf("decode history: %v %s", err, w.Body)
	}

	bare := NewRouter(NewRegistry(), nil, nil, "")
	if w := do(t, bare.Handler(), http.MethodGet, "/history"); w.Code != http.StatusNotFound {
		t.Fatalf("history without recorder: %d", w.Code)
	}
}

func TestBasePathPrefixesRoutes(t *testing.T) {
	be := &bookkeeping.FileBackend{Root: t.TempDir()}
	r := NewRouter(NewRegistry(), be, nil, "rdaemon")
	h := r.Handler()
	if w := do(t, h, http.MethodGet, "/rdaemon/daemons"); w.Code != http.StatusOK {
		t.Fatalf("prefixed route: %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/daemons"); w.Code != http.StatusNotFound {
		t.Fatalf("unprefixed route should 404: %d", w.Code)
	}
}
