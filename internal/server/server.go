// Package server hosts the preview over HTTP: the generated document,
// a WebSocket carrying sandbox console traffic and reload notices, and
// the tool endpoint for automated callers.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/forgeide/forge/internal/agent"
	"github.com/forgeide/forge/internal/config"
	"github.com/forgeide/forge/internal/logging"
	"github.com/forgeide/forge/internal/preview"
	"github.com/forgeide/forge/internal/workspace"
)

// Server ties the workspace, the pipeline and the sandbox protocol to
// an http.Server.
type Server struct {
	cfg        *config.Config
	ws         *workspace.Workspace
	pipeline   *preview.Pipeline
	dispatcher *agent.Dispatcher
	console    *Console
	hub        *hub
	log        logging.Logger

	httpServer *http.Server
}

// New builds a server. Start must be called before it serves anything.
func New(cfg *config.Config, ws *workspace.Workspace, pipeline *preview.Pipeline, log logging.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		ws:         ws,
		pipeline:   pipeline,
		dispatcher: agent.NewDispatcher(ws, log),
		console:    &Console{},
		hub:        newHub(),
		log:        log.WithComponent("server"),
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/preview", s.handlePreview)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/tools", s.handleTools)
	mux.HandleFunc("/api/console", s.handleConsole)
	return mux
}

// Start serves until ctx is done, then drains connections. It blocks.
func (s *Server) Start(ctx context.Context) error {
	// Relay completed builds to connected sandboxes as reload notices.
	results := s.pipeline.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case res := <-results:
				s.notifyReload(res)
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Console exposes the buffered sandbox output.
func (s *Server) Console() *Console {
	return s.console
}

type reloadNotice struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation"`
}

func (s *Server) notifyReload(res preview.Result) {
	frame, err := json.Marshal(reloadNotice{Type: "reload", Generation: res.Generation})
	if err != nil {
		return
	}
	s.hub.broadcast(frame)
	s.log.Debug(context.Background(), "reload notice sent",
		"generation", res.Generation,
		"clients", s.hub.count(),
	)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, hostPage)
}

// handlePreview serves the latest generated document. There is always
// one: the pipeline builds a placeholder page even for an empty tree.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	res, ok := s.pipeline.Current()
	if !ok {
		res = s.pipeline.Rebuild()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	fmt.Fprint(w, res.Document)
}

// handleWS upgrades the sandbox connection. Inbound frames are sandbox
// events; frames tagged with a superseded generation are dropped.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn(r.Context(), err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	send := s.hub.add(conn)
	defer s.hub.remove(conn)

	ctx := r.Context()
	go writePump(ctx, conn, send)

	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				s.log.Debug(ctx, "websocket closed", "reason", err.Error())
			}
			return
		}

		var ev SandboxEvent
		if err := json.Unmarshal(frame, &ev); err != nil {
			s.log.Warn(ctx, err, "malformed sandbox event")
			continue
		}
		if ev.Kind != EventLog && ev.Kind != EventError {
			s.log.Debug(ctx, "dropping unknown sandbox event", "kind", string(ev.Kind))
			continue
		}
		if s.pipeline.IsStale(ev.Generation) {
			s.log.Debug(ctx, "dropping stale sandbox event", "generation", ev.Generation)
			continue
		}

		s.console.Append(ev)
		if ev.Kind == EventError {
			fields := []interface{}{"message", ev.Message}
			if ev.Line != nil {
				fields = append(fields, "line", *ev.Line)
			}
			s.log.Warn(ctx, nil, "sandbox error", fields...)
		}
	}
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req agent.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, agent.Response{Error: "invalid request body"})
		return
	}

	res := s.dispatcher.Dispatch(r.Context(), req)
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.console.Entries())
	case http.MethodDelete:
		s.console.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
