package server

import (
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/rdaemon/internal/bookkeeping"
	"github.com/loykin/rdaemon/internal/history"
)

// Router provides embeddable HTTP handlers for controlling daemons.
// Endpoints:
//
//	POST   {basePath}/notify             query: name=...
//	POST   {basePath}/terminate          query: name=...
//	GET    {basePath}/terminated         query: name=...
//	GET    {basePath}/daemons            local registrations
//	GET    {basePath}/daemons/:name      bookkeeping state, query: sub_path=...
//	DELETE {basePath}/daemons/:name      kill, query: sub_path=...&signal=9
//	GET    {basePath}/history            query: name=...&limit=50
//
// notify/terminate/terminated act on daemons registered in this process;
// the daemons endpoints consult the bookkeeping backend and so cover
// daemons started by any process on the host.
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	reg      *Registry
	backend  bookkeeping.Backend
	recorder history.Recorder
	basePath string
}

// NewRouter constructs a Router. recorder may be nil; the history
// endpoint then answers 404.
func NewRouter(reg *Registry, backend bookkeeping.Backend, recorder history.Recorder, basePath string) *Router {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Router{reg: reg, backend: backend, recorder: recorder, basePath: sanitizeBase(basePath)}
}

// Registry exposes the router's daemon registry for callers that start
// daemons after the server is up.
func (r *Router) Registry() *Registry { return r.reg }

// Handler returns an http.Handler powered by gin that can be mounted in
// any server/mux.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/notify", r.handleNotify)
	group.POST("/terminate", r.handleTerminate)
	group.GET("/terminated", r.handleTerminated)
	group.GET("/daemons", r.handleList)
	group.GET("/daemons/:name", r.handleInspect)
	group.DELETE("/daemons/:name", r.handleKill)
	group.GET("/history", r.handleHistory)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr string, r *Router) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server
}

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) localDaemon(c *gin.Context) (string, bool) {
	name := c.Query("name")
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required: allowed [A-Za-z0-9._-]"})
		return "", false
	}
	return name, true
}

func (r *Router) handleNotify(c *gin.Context) {
	name, ok := r.localDaemon(c)
	if !ok {
		return
	}
	d, found := r.reg.Get(name)
	if !found {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "unknown daemon " + name})
		return
	}
	d.Notify()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleTerminate(c *gin.Context) {
	name, ok := r.localDaemon(c)
	if !ok {
		return
	}
	d, found := r.reg.Get(name)
	if !found {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "unknown daemon " + name})
		return
	}
	d.Terminate()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

type terminatedResp struct {
	Name       string `json:"name"`
	Terminated bool   `json:"terminated"`
}

func (r *Router) handleTerminated(c *gin.Context) {
	name, ok := r.localDaemon(c)
	if !ok {
		return
	}
	d, found := r.reg.Get(name)
	if !found {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "unknown daemon " + name})
		return
	}
	writeJSON(c, http.StatusOK, terminatedResp{Name: name, Terminated: d.IsTerminated()})
}

type listResp struct {
	Daemons []string `json:"daemons"`
}

func (r *Router) handleList(c *gin.Context) {
	writeJSON(c, http.StatusOK, listResp{Daemons: r.reg.Names()})
}

type inspectResp struct {
	Name    string `json:"name"`
	SubPath string `json:"sub_path,omitempty"`
	Running bool   `json:"running"`
	PIDs    []int  `json:"pids,omitempty"`
}

func (r *Router) handleInspect(c *gin.Context) {
	name := c.Param("name")
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid daemon name"})
		return
	}
	if r.backend == nil {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "no bookkeeping backend configured"})
		return
	}
	subPath := c.Query("sub_path")
	resp := inspectResp{Name: name, SubPath: subPath}
	if pids, err := r.backend.PIDs(name, subPath); err == nil {
		resp.PIDs = pids
		resp.Running = r.backend.IsRunning(name, subPath)
	}
	writeJSON(c, http.StatusOK, resp)
}

type killResp struct {
	Name   string `json:"name"`
	Killed bool   `json:"killed"`
}

func (r *Router) handleKill(c *gin.Context) {
	name := c.Param("name")
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid daemon name"})
		return
	}
	if r.backend == nil {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "no bookkeeping backend configured"})
		return
	}
	sig := bookkeeping.ConfirmSignal
	if s := c.Query("signal"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "signal must be a positive signal number"})
			return
		}
		sig = syscall.Signal(n)
	}
	subPath := c.Query("sub_path")
	killed := r.backend.Kill(name, subPath, sig)
	if killed && r.recorder != nil {
		_ = r.recorder.Record(c.Request.Context(), history.Event{
			Type:    history.EventKilled,
			Name:    name,
			SubPath: subPath,
			Detail:  "signal " + strconv.Itoa(int(sig)),
		})
	}
	writeJSON(c, http.StatusOK, killResp{Name: name, Killed: killed})
}

func (r *Router) handleHistory(c *gin.Context) {
	if r.recorder == nil {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "history not configured"})
		return
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := r.recorder.Recent(c.Request.Context(), c.Query("name"), limit)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if events == nil {
		events = []history.Event{}
	}
	writeJSON(c, http.StatusOK, events)
}
